// Package handler serves the admin and storefront JSON API over chi.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/deniyaya/teashop/internal/domain/auth"
	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/feedback"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
	"github.com/deniyaya/teashop/internal/report"
)

// Services are the domain services the API delegates to.
type Services struct {
	Auth      *auth.Service
	Products  *product.Service
	Orders    *order.Service
	Customers *customer.Service
	Feedback  *feedback.Service
	Reports   *report.Service
}

// Handler implements the HTTP API.
type Handler struct {
	auth      *auth.Service
	products  *product.Service
	orders    *order.Service
	customers *customer.Service
	feedback  *feedback.Service
	reports   *report.Service
}

// NewHandler creates a Handler backed by s.
func NewHandler(s Services) *Handler {
	return &Handler{
		auth:      s.Auth,
		products:  s.Products,
		orders:    s.Orders,
		customers: s.Customers,
		feedback:  s.Feedback,
		reports:   s.Reports,
	}
}

// Routes returns the API router, meant to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "not_found", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: "method not allowed"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/staff/signin", h.SignInStaff)
		r.Post("/customer/signin", h.SignInCustomer)
		r.With(h.authenticate).Post("/signout", h.SignOut)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.authenticate, requireStaff)

		r.Get("/dashboard", h.Dashboard)

		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/products/{id}/adjustments", h.ListAdjustments)

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/pending", h.PendingOrders)
		r.Get("/orders/{id}", h.GetOrder)

		r.Get("/customers", h.ListCustomers)
		r.Get("/customers/{id}", h.GetCustomer)
		r.Get("/customers/{id}/feedback", h.CustomerFeedback)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/overview", h.OverviewReport)
			r.Get("/inventory", h.InventoryReport)
			r.Get("/low-stock", h.LowStockReport)
			r.Get("/sales", h.SalesReport)
			r.Get("/customers", h.CustomersReport)
			r.Get("/{kind}/export", h.ExportReport)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireManager)

			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)
			r.Post("/products/{id}/adjustments", h.AdjustStock)

			r.Post("/orders", h.CreateOrder)
			r.Patch("/orders/{id}/status", h.UpdateOrderStatus)

			r.Post("/customers", h.CreateCustomer)
		})
	})

	r.Route("/store", func(r chi.Router) {
		r.Get("/products", h.StoreProducts)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate, requireCustomer)
			r.Get("/me", h.Me)
			r.Get("/catalogue", h.Catalogue)
			r.Get("/orders", h.MyOrders)
			r.Post("/orders", h.PlaceOrder)
			r.Get("/reviews", h.MyReviews)
			r.Post("/reviews", h.SubmitReview)
		})
	})

	return r
}

// invalidateReports drops cached reports after a write. A failure only
// leaves reports stale until their TTL, so it is logged, not returned.
func (h *Handler) invalidateReports(ctx context.Context) {
	if err := h.reports.Invalidate(ctx); err != nil {
		zctx.From(ctx).Warn("Report cache invalidation failed", zap.Error(err))
	}
}
