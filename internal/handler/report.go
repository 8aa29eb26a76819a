package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/deniyaya/teashop/internal/report"
)

// Dashboard handles GET /admin/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(d))
}

// OverviewReport handles GET /admin/reports/overview.
func (h *Handler) OverviewReport(w http.ResponseWriter, r *http.Request) {
	o, err := h.reports.Overview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOverview(o))
}

// InventoryReport handles GET /admin/reports/inventory?category=&sort=&window=.
func (h *Handler) InventoryReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	inv, err := h.reports.Inventory(r.Context(), report.InventoryQuery{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Window:   q.Get("window"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventory(inv))
}

// LowStockReport handles GET /admin/reports/low-stock?category=&urgency=.
func (h *Handler) LowStockReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.reports.LowStock(r.Context(), report.LowStockQuery{
		Category: q.Get("category"),
		Urgency:  q.Get("urgency"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRestock(entries))
}

// SalesReport handles GET /admin/reports/sales?window=.
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	s, err := h.reports.Sales(r.Context(), r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSales(s))
}

// CustomersReport handles GET /admin/reports/customers?window=&sort=.
func (h *Handler) CustomersReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := h.reports.Customers(r.Context(), report.CustomersQuery{
		Window: q.Get("window"),
		Sort:   q.Get("sort"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomersReport(c))
}

// ExportReport handles GET /admin/reports/{kind}/export, streaming the
// report as a CSV attachment. The query parameters are those of the
// matching JSON report.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := report.ExportKind(chi.URLParam(r, "kind"))
	req := report.ExportRequest{
		Kind:     kind,
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Urgency:  q.Get("urgency"),
		Window:   q.Get("window"),
	}

	// Buffer so that a failing report still gets a JSON error response.
	var buf bytes.Buffer
	if err := h.reports.Export(r.Context(), &buf, req); err != nil {
		writeError(w, r, err)
		return
	}
	name := string(kind) + "-" + time.Now().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
