package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/cms"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/contact"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/form"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/notify"
	"github.com/xenking/storefront/internal/remote"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/storage/redis"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

const serviceName = "storefront"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", health.GoroutineCountCheck(10000), health.WithTimeout(time.Second))
	healthSvc.AddLivenessCheck("gc", health.GCMaxPauseCheck(time.Second), health.WithTimeout(time.Second))

	// Released after the server has drained.
	var cleanup []func()
	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	provider, err := newCatalogProvider(cfg)
	if err != nil {
		return err
	}

	carts, err := newCartStorage(ctx, lg, cfg.Cart, healthSvc, &cleanup)
	if err != nil {
		return err
	}

	orderGateway, contactGateway, err := newGateways(ctx, lg, cfg.Orders, healthSvc, &cleanup)
	if err != nil {
		return err
	}

	// Domain services.
	mailer := notify.NewMailer(cfg.Mail)
	validator := form.New()
	catalogSvc := catalog.NewService(provider)
	orderSvc := order.NewService(orderGateway, mailer, validator)
	contactSvc := contact.NewService(contactGateway, mailer, validator)

	h, err := handler.NewHandler(handler.Config{
		FallbackImage: cfg.Images.Fallback,
		SessionTTL:    cfg.Cart.TTL,
		SecureCookies: cfg.Cart.SecureCookies,
	}, catalogSvc, carts, orderSvc, contactSvc, m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	limiter := httpmiddleware.NewLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	go func() { _ = limiter.Run(ctx) }()

	r := chi.NewRouter()
	r.Use(
		httpmiddleware.Recovery(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.RequestID(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", handler.SessionHeader, httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{handler.SessionHeader, httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.Instrument(serviceName, m.TracerProvider(), m.MeterProvider()),
		httpmiddleware.LogRequests(),
		httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Skip:   httpmiddleware.SafeMethod,
		}, limiter),
	)
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	h.Register(r)

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           r,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func newCatalogProvider(cfg *Config) (catalog.Provider, error) {
	if cfg.CatalogSnapshot != "" {
		src, err := cms.OpenFileSource(cfg.CatalogSnapshot)
		if err != nil {
			return nil, errors.Wrap(err, "open catalog snapshot")
		}
		return src, nil
	}
	return cms.NewClient(cfg.CMS, nil), nil
}

// newCartStorage connects to Redis when configured and falls back to
// process memory otherwise.
func newCartStorage(
	ctx context.Context,
	lg *zap.Logger,
	cfg CartConfig,
	healthSvc *health.Health,
	cleanup *[]func(),
) (cart.Storage, error) {
	if cfg.RedisURL == "" {
		lg.Warn("No Redis configured, carts are kept in memory")
		return memory.NewCartStorage(), nil
	}
	client, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect redis")
	}
	*cleanup = append(*cleanup, func() { _ = client.Close() })

	storage := redis.NewCartStorage(client, cfg.KeyPrefix, cfg.TTL)
	healthSvc.AddReadinessCheck("redis", health.PingCheck(storage), health.WithTimeout(2*time.Second))
	return storage, nil
}

// newGateways picks where orders and contact requests go. The database is
// preferred; the remote API is used when no database is configured.
func newGateways(
	ctx context.Context,
	lg *zap.Logger,
	cfg OrdersConfig,
	healthSvc *health.Health,
	cleanup *[]func(),
) (order.Gateway, contact.Gateway, error) {
	if cfg.DatabaseURL == "" {
		lg.Info("Submitting orders to remote API", zap.String("base_url", cfg.APIBaseURL))
		client := remote.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.Timeout, nil)
		return client, client, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create db pool")
	}
	*cleanup = append(*cleanup, pool.Close)
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return nil, nil, errors.Wrap(err, "run migrations")
	}

	orders := postgres.NewOrderGateway(pool)
	healthSvc.AddReadinessCheck("postgres", health.PingCheck(orders), health.WithTimeout(5*time.Second))

	var contacts contact.Gateway = postgres.NewContactGateway(pool)
	if cfg.APIBaseURL != "" {
		contacts = remote.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.Timeout, nil)
	}
	return orders, contacts, nil
}
