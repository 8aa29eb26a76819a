package report

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/deniyaya/teashop/internal/analytics"
	"github.com/deniyaya/teashop/internal/domain/validation"
	"github.com/deniyaya/teashop/internal/format"
)

// ExportKind names a report that can be exported as CSV.
type ExportKind string

const (
	ExportInventory ExportKind = "inventory"
	ExportLowStock  ExportKind = "low-stock"
	ExportSales     ExportKind = "sales"
	ExportCustomers ExportKind = "customers"
)

// ExportRequest selects a report and its parameters. Fields that do not
// apply to Kind are ignored.
type ExportRequest struct {
	Kind     ExportKind
	Category string
	Sort     string
	Urgency  string
	Window   string
}

// Export writes the requested report to w as CSV with display-formatted
// amounts and dates.
func (s *Service) Export(ctx context.Context, w io.Writer, req ExportRequest) error {
	var rows [][]string
	switch req.Kind {
	case ExportInventory:
		r, err := s.Inventory(ctx, InventoryQuery{Category: req.Category, Sort: req.Sort, Window: req.Window})
		if err != nil {
			return err
		}
		rows = inventoryRows(r)
	case ExportLowStock:
		r, err := s.LowStock(ctx, LowStockQuery{Category: req.Category, Urgency: req.Urgency})
		if err != nil {
			return err
		}
		rows = lowStockRows(r)
	case ExportSales:
		r, err := s.Sales(ctx, req.Window)
		if err != nil {
			return err
		}
		rows = s.salesRows(r)
	case ExportCustomers:
		r, err := s.Customers(ctx, CustomersQuery{Window: req.Window, Sort: req.Sort})
		if err != nil {
			return err
		}
		rows = s.customerRows(r)
	default:
		return &validation.Error{Fields: map[string]string{"kind": "must be one of inventory, low-stock, sales, customers"}}
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return errors.Wrap(err, "write csv")
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func inventoryRows(r *analytics.Inventory) [][]string {
	rows := [][]string{{"Product", "Type", "Stock", "Reorder Level", "Units Sold", "Turnover", "Movement", "Status", "Stock Value"}}
	for _, t := range r.Items {
		rows = append(rows, []string{
			t.Product.Name,
			string(t.Product.Type),
			itoa(t.Product.QuantityInStock),
			itoa(t.Product.ReorderLevel),
			itoa(t.UnitsSold),
			ftoa(t.Rate),
			string(t.Movement),
			string(t.Status),
			format.LKR(t.StockValue, 2),
		})
	}
	return rows
}

func lowStockRows(entries []analytics.RestockEntry) [][]string {
	rows := [][]string{{"Product", "Type", "Stock", "Reorder Level", "Shortage", "Urgency", "Status"}}
	for _, e := range entries {
		rows = append(rows, []string{
			e.Product.Name,
			string(e.Product.Type),
			itoa(e.Product.QuantityInStock),
			itoa(e.Product.ReorderLevel),
			itoa(e.Shortage),
			string(e.Urgency),
			string(e.Status),
		})
	}
	return rows
}

func (s *Service) salesRows(r *analytics.Sales) [][]string {
	rows := [][]string{{"Date", "Orders", "Revenue"}}
	for _, d := range r.Daily {
		rows = append(rows, []string{format.Date(d.Date, s.loc), itoa(d.Orders), format.LKR(d.Revenue, 2)})
	}
	rows = append(rows,
		[]string{},
		[]string{"Product", "Type", "Quantity", "Revenue"},
	)
	for _, p := range r.Products {
		rows = append(rows, []string{p.Name, string(p.Type), itoa(p.Quantity), format.LKR(p.Revenue, 2)})
	}
	return rows
}

func (s *Service) customerRows(r *analytics.Customers) [][]string {
	rows := [][]string{{"Customer", "Email", "Orders", "Total Spent", "Average Order", "Last Order", "Segment", "Risk"}}
	for _, c := range r.Customers {
		last := ""
		if c.LastOrderDate != nil {
			last = format.Date(*c.LastOrderDate, s.loc)
		}
		rows = append(rows, []string{
			c.Customer.Name,
			c.Customer.Email,
			itoa(c.TotalOrders),
			format.LKR(c.TotalSpent, 2),
			format.LKR(c.AvgOrderValue, 2),
			last,
			string(c.Segment),
			string(c.Risk),
		})
	}
	return rows
}
