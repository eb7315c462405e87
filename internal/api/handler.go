// Package api exposes the HTTP surface: product catalog reads, coupon
// evaluation quotes, and order placement.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopverse/checkout/internal/domain/auth"
	"github.com/shopverse/checkout/internal/domain/checkout"
	"github.com/shopverse/checkout/internal/domain/product"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// APIKeyPepper is the server-side secret mixed into API key hashes.
	APIKeyPepper string
}

// Handler wires the HTTP routes to the domain services.
type Handler struct {
	products product.Repository
	checkout *checkout.Service
	orders   *checkout.Placement
	apikeys  auth.Repository
	pepper   string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	products product.Repository,
	co *checkout.Service,
	orders *checkout.Placement,
	apikeys auth.Repository,
) *Handler {
	return &Handler{
		products: products,
		checkout: co,
		orders:   orders,
		apikeys:  apikeys,
		pepper:   cfg.APIKeyPepper,
	}
}

// Routes returns the API router. Catalog reads are public; coupon evaluation
// and order placement require a valid API key.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAPIKey(ScopePlaceOrder))
		r.Post("/coupons/evaluate", h.EvaluateCoupon)
		r.Post("/orders", h.PlaceOrder)
	})

	return r
}
