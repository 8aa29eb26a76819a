package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/deniyaya/teashop/internal/domain/product"
)

type productRequest struct {
	Name            string          `json:"name"`
	Type            product.TeaType `json:"type"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	QuantityInStock int             `json:"quantityInStock"`
	ReorderLevel    int             `json:"reorderLevel"`
	Unit            string          `json:"unit"`
	ImageURL        string          `json:"imageUrl"`
	// IsActive defaults to true when omitted.
	IsActive *bool `json:"isActive"`
}

func (req productRequest) input() product.Input {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return product.Input{
		Name:            req.Name,
		Type:            req.Type,
		Description:     req.Description,
		Price:           req.Price,
		QuantityInStock: req.QuantityInStock,
		ReorderLevel:    req.ReorderLevel,
		Unit:            req.Unit,
		ImageURL:        req.ImageURL,
		IsActive:        active,
	}
}

func toProducts(products []product.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProduct(p)
	}
	return out
}

// ListProducts handles GET /admin/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProducts(products))
}

// GetProduct handles GET /admin/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(*p))
}

// CreateProduct handles POST /admin/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateReports(r.Context())
	writeJSON(w, http.StatusCreated, toProduct(*p))
}

// UpdateProduct handles PUT /admin/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateReports(r.Context())
	writeJSON(w, http.StatusOK, toProduct(*p))
}

// DeleteProduct handles DELETE /admin/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateReports(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

type adjustRequest struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// AdjustStock handles POST /admin/products/{id}/adjustments.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.Adjust(r.Context(), chi.URLParam(r, "id"), product.AdjustInput{
		Delta:  req.Quantity,
		Reason: req.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateReports(r.Context())
	writeJSON(w, http.StatusOK, toProduct(*p))
}

// ListAdjustments handles GET /admin/products/{id}/adjustments.
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	adjustments, err := h.products.Adjustments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]adjustmentResponse, len(adjustments))
	for i, a := range adjustments {
		out[i] = toAdjustment(a)
	}
	writeJSON(w, http.StatusOK, out)
}

// StoreProducts handles GET /store/products: the public catalogue of active
// products.
func (h *Handler) StoreProducts(w http.ResponseWriter, r *http.Request) {
	active, err := h.activeProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProducts(active))
}

// Catalogue handles GET /store/catalogue: the active products, each flagged
// with whether the signed-in customer has reviewed it.
func (h *Handler) Catalogue(w http.ResponseWriter, r *http.Request) {
	active, err := h.activeProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviewed, err := h.feedback.ReviewedProducts(r.Context(), session(r).Subject)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]catalogueResponse, len(active))
	for i, p := range active {
		out[i] = catalogueResponse{productResponse: toProduct(p), HasReviewed: reviewed[p.ID]}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) activeProducts(ctx context.Context) ([]product.Product, error) {
	products, err := h.products.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]product.Product, 0, len(products))
	for _, p := range products {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}
