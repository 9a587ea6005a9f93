// Package handler exposes the order, wallet, promo, and catalog operations
// as a JSON HTTP API. Handlers decode requests with encoding/json, delegate
// to the domain layer, and encode responses with go-faster/jx.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenbasket/grocer/internal/domain/catalog"
	"github.com/greenbasket/grocer/internal/domain/ledger"
	"github.com/greenbasket/grocer/internal/domain/order"
	"github.com/greenbasket/grocer/internal/domain/promo"
)

// AccountHeader identifies the requesting customer account. Authentication
// itself is an external collaborator; the surrounding deployment terminates
// sessions and injects this header.
const AccountHeader = "X-Account-ID"

// WalletProvisioner creates a zero-balance wallet on first credit.
type WalletProvisioner interface {
	EnsureWallet(ctx context.Context, accountID string) error
}

// Handler holds the domain dependencies for all HTTP routes.
type Handler struct {
	orders      *order.Service
	products    catalog.ProductRepository
	areas       catalog.AreaRepository
	promos      promo.Validator
	wallet      ledger.Store
	provisioner WalletProvisioner
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	orders *order.Service,
	products catalog.ProductRepository,
	areas catalog.AreaRepository,
	promos promo.Validator,
	wallet ledger.Store,
	provisioner WalletProvisioner,
) *Handler {
	return &Handler{
		orders:      orders,
		products:    products,
		areas:       areas,
		promos:      promos,
		wallet:      wallet,
		provisioner: provisioner,
	}
}

// Routes assembles the API router. Admin routes sit behind the supplied
// security middleware.
func (h *Handler) Routes(requireAPIKey func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/products", h.listProducts)
	r.Get("/areas", h.listAreas)

	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)

	r.Post("/promos/validate", h.validatePromo)

	r.Get("/wallet/balance", h.walletBalance)
	r.Get("/wallet/transactions", h.walletTransactions)

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAPIKey)
		r.Patch("/orders/{id}/status", h.updateOrderStatus)
		r.Post("/wallet/{accountID}/transactions", h.recordWalletTransaction)
	})

	return r
}

// accountID extracts the caller's account from the identity header.
func accountID(r *http.Request) string {
	return r.Header.Get(AccountHeader)
}
