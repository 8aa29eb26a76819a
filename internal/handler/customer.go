package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/feedback"
)

type customerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

// ListCustomers handles GET /admin/customers. Order totals are derived from
// the orders on every request.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := h.reports.CustomerTotals(r.Context(), "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]customerResponse, len(customers))
	for i, c := range customers {
		out[i] = toCustomer(c, totals)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeCustomer(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.customers.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals, err := h.reports.CustomerTotals(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomer(*c, totals))
}

// GetCustomer handles GET /admin/customers/{id}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	h.writeCustomer(w, r, chi.URLParam(r, "id"))
}

// Me handles GET /store/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	h.writeCustomer(w, r, session(r).Subject)
}

// CreateCustomer handles POST /admin/customers.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.customers.Create(r.Context(), customer.Input{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateReports(r.Context())
	writeJSON(w, http.StatusCreated, toCustomer(*c, nil))
}

func (h *Handler) writeFeedback(w http.ResponseWriter, r *http.Request, customerID string) {
	list, err := h.feedback.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]feedbackResponse, len(list))
	for i, f := range list {
		out[i] = toFeedback(f)
	}
	writeJSON(w, http.StatusOK, out)
}

// CustomerFeedback handles GET /admin/customers/{id}/feedback.
func (h *Handler) CustomerFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.customers.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeFeedback(w, r, id)
}

// MyReviews handles GET /store/reviews.
func (h *Handler) MyReviews(w http.ResponseWriter, r *http.Request) {
	h.writeFeedback(w, r, session(r).Subject)
}

type reviewRequest struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// SubmitReview handles POST /store/reviews.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.feedback.Submit(r.Context(), feedback.SubmitRequest{
		CustomerID: session(r).Subject,
		ProductID:  req.ProductID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeedback(*f))
}
