package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/validation"
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type orderRequest struct {
	// CustomerID is only read on the admin route; storefront orders always
	// belong to the signed-in customer.
	CustomerID string             `json:"customerId"`
	Items      []orderItemRequest `json:"items"`
	Notes      string             `json:"notes"`
}

func (req orderRequest) items() []order.ItemRequest {
	out := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		out[i] = order.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

// ListOrders handles GET /admin/orders?status=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := order.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, r, &validation.Error{Fields: map[string]string{
			"status": "must be one of Pending, Processing, Completed, Cancelled",
		}})
		return
	}
	orders, err := h.orders.List(r.Context(), order.Filter{Status: status})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrders(orders))
}

// GetOrder handles GET /admin/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(*o))
}

// PendingOrders handles GET /admin/orders/pending.
func (h *Handler) PendingOrders(w http.ResponseWriter, r *http.Request) {
	queue, err := h.reports.PendingOrders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPending(queue))
}

// CreateOrder handles POST /admin/orders, placed by staff on behalf of a
// customer or as a walk-in sale.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.placeOrder(w, r, order.PlaceOrderRequest{
		CustomerID: req.CustomerID,
		UserID:     session(r).Subject,
		Items:      req.items(),
		Notes:      req.Notes,
	})
}

// PlaceOrder handles POST /store/orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.placeOrder(w, r, order.PlaceOrderRequest{
		CustomerID: session(r).Subject,
		Items:      req.items(),
		Notes:      req.Notes,
	})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request, req order.PlaceOrderRequest) {
	o, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateReports(r.Context())
	writeJSON(w, http.StatusCreated, toOrder(*o))
}

type statusRequest struct {
	Status order.Status `json:"status"`
}

// UpdateOrderStatus handles PATCH /admin/orders/{id}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateReports(r.Context())
	writeJSON(w, http.StatusOK, toOrder(*o))
}

// MyOrders handles GET /store/orders.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), order.Filter{CustomerID: session(r).Subject})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrders(orders))
}
