// Package handler exposes the storefront JSON API over chi.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/contact"
	"github.com/xenking/storefront/internal/domain/order"
)

// DefaultFallbackImage is shown for items without a usable image.
const DefaultFallbackImage = "https://imgix.cosmicjs.com/placeholder.png"

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// FallbackImage replaces missing item images in responses.
	FallbackImage string
	// SessionTTL is the lifetime of the cart session cookie.
	SessionTTL time.Duration
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// Handler serves the catalog, cart, checkout and contact endpoints.
type Handler struct {
	catalog  *catalog.Service
	carts    cart.Storage
	orders   *order.Service
	contacts *contact.Service
	cfg      Config
	metrics  *metrics
}

// NewHandler constructs a Handler. A new cart.Store is opened over carts for
// every request.
func NewHandler(
	cfg Config,
	catalogSvc *catalog.Service,
	carts cart.Storage,
	orders *order.Service,
	contacts *contact.Service,
	meter metric.MeterProvider,
) (*Handler, error) {
	if cfg.FallbackImage == "" {
		cfg.FallbackImage = DefaultFallbackImage
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	m, err := newMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &Handler{
		catalog:  catalogSvc,
		carts:    carts,
		orders:   orders,
		contacts: contacts,
		cfg:      cfg,
		metrics:  m,
	}, nil
}

// Register mounts the API routes on r under /api.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.listCatalog)
		r.Get("/catalog/{slug}", h.getItem)
		r.Get("/categories", h.listCategories)

		r.Get("/cart", h.getCart)
		r.Delete("/cart", h.clearCart)
		r.Post("/cart/items", h.addCartItem)
		r.Put("/cart/items/{id}", h.setCartQuantity)
		r.Delete("/cart/items/{id}", h.removeCartItem)

		r.Post("/checkout", h.checkout)
		r.Post("/checkout/{orderID}/payment-confirmed", h.paymentConfirmed)

		r.Post("/contact", h.submitContact)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}
