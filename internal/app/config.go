package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/cms"
	"github.com/xenking/storefront/internal/notify"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr string `default:"0.0.0.0:8080" usage:"API server listen address"`
	// CatalogSnapshot serves the catalog from a snapshot file instead of the
	// CMS.
	CatalogSnapshot string `usage:"Path to a gzip catalog snapshot (replaces the CMS)" flag:"catalog-snapshot"`
	CMS             cms.Config
	Cart            CartConfig
	Orders          OrdersConfig
	Mail            notify.Config
	Images          ImagesConfig
	RateLimit       RateLimitConfig
	CORS            CORSConfig
	Graceful        GracefulConfig
}

// CartConfig selects the cart session storage.
type CartConfig struct {
	RedisURL      string        `usage:"Redis URL for cart sessions (STOREFRONT_CART_REDIS_URL or REDIS_URL); empty keeps carts in memory" flag:"redis-url"`
	KeyPrefix     string        `default:"storefront:cart:" usage:"Redis key prefix for carts"`
	TTL           time.Duration `default:"720h" usage:"Cart and session cookie lifetime"`
	SecureCookies bool          `default:"false" usage:"Mark the session cookie Secure" flag:"secure-cookies"`
}

// OrdersConfig selects where orders and contact requests are submitted.
type OrdersConfig struct {
	DatabaseURL string        `usage:"PostgreSQL URL; when set orders are stored directly (STOREFRONT_ORDERS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIBaseURL  string        `usage:"Base URL of the order/contact API (POST {base}/orders, {base}/contact)" flag:"api-base-url"`
	APIToken    string        `usage:"Bearer token for the order/contact API"`
	Timeout     time.Duration `default:"15s" usage:"Order/contact API timeout"`
}

// ImagesConfig controls image URLs in responses.
type ImagesConfig struct {
	Fallback string `default:"https://imgix.cosmicjs.com/placeholder.png" usage:"Image shown for items without one"`
}

// RateLimitConfig controls the per-client sliding window rate limiter for
// state-changing requests.
type RateLimitConfig struct {
	Max    int           `default:"60" usage:"Max POST/PUT/DELETE requests per window"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(os.Getenv)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.CatalogSnapshot == "" && c.CMS.BucketSlug == "" {
		return errors.New("catalog source is required: set STOREFRONT_CMS_BUCKET_SLUG or STOREFRONT_CATALOG_SNAPSHOT")
	}
	if c.Orders.DatabaseURL == "" && c.Orders.APIBaseURL == "" {
		return errors.New("order destination is required: set DATABASE_URL or STOREFRONT_ORDERS_API_BASE_URL")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) like PORT, DATABASE_URL and REDIS_URL onto the configuration.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.Orders.DatabaseURL == "" {
		c.Orders.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.Cart.RedisURL == "" {
		c.Cart.RedisURL = getenv("REDIS_URL")
	}
	if port := getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
