package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
)

const (
	topN      = 10
	dailyDays = 7
)

// UnknownCustomerName labels orders that carry no customer reference.
const UnknownCustomerName = "Unknown Customer"

// SalesMetrics are the headline sales figures.
type SalesMetrics struct {
	TotalRevenue      decimal.Decimal
	TotalOrders       int
	AverageOrderValue decimal.Decimal
	CompletedOrders   int
	PendingOrders     int
	CancelledOrders   int
}

// DailySales is the activity of one calendar day.
type DailySales struct {
	Date    time.Time
	Revenue decimal.Decimal
	Orders  int
}

// ProductPerformance is a product's contribution to sales.
type ProductPerformance struct {
	ProductID string
	Name      string
	Type      product.TeaType
	Quantity  int
	Revenue   decimal.Decimal
	// Orders counts order lines referencing the product.
	Orders int
}

// CustomerPerformance is a customer's contribution to sales.
type CustomerPerformance struct {
	CustomerID string
	Name       string
	Orders     int
	Revenue    decimal.Decimal
	LastOrder  time.Time
}

// Sales is the full sales report.
type Sales struct {
	Window    Window
	Metrics   SalesMetrics
	Daily     []DailySales
	Products  []ProductPerformance
	Customers []CustomerPerformance
}

// SummarizeSales computes headline figures over orders.
func SummarizeSales(orders []order.Order) SalesMetrics {
	m := SalesMetrics{TotalRevenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	for _, o := range orders {
		m.TotalRevenue = m.TotalRevenue.Add(o.TotalAmount)
		switch o.Status {
		case order.StatusCompleted:
			m.CompletedOrders++
		case order.StatusPending:
			m.PendingOrders++
		case order.StatusCancelled:
			m.CancelledOrders++
		}
	}
	m.TotalOrders = len(orders)
	if m.TotalOrders > 0 {
		m.AverageOrderValue = m.TotalRevenue.Div(decimal.NewFromInt(int64(m.TotalOrders)))
	}
	return m
}

// DailySeries buckets orders into the seven calendar days ending on now's
// day in loc, oldest first.
func DailySeries(orders []order.Order, now time.Time, loc *time.Location) []DailySales {
	today := startOfDay(now, loc)
	series := make([]DailySales, dailyDays)
	for i := range series {
		series[i] = DailySales{Date: today.AddDate(0, 0, i-(dailyDays-1)), Revenue: decimal.Zero}
	}
	for _, o := range orders {
		d := startOfDay(o.CreatedAt, loc)
		idx := dailyDays - 1 - daysBetween(d, today)
		if idx < 0 || idx >= dailyDays {
			continue
		}
		series[idx].Revenue = series[idx].Revenue.Add(o.TotalAmount)
		series[idx].Orders++
	}
	return series
}

// TopProducts ranks products by revenue from order lines, at most ten.
// Lines for products missing from the catalogue are skipped.
func TopProducts(orders []order.Order, products []product.Product) []ProductPerformance {
	catalogue := make(map[string]product.Product, len(products))
	for _, p := range products {
		catalogue[p.ID] = p
	}

	perf := make(map[string]*ProductPerformance)
	var ids []string
	for _, o := range orders {
		for _, it := range o.Items {
			p, ok := catalogue[it.ProductID]
			if !ok {
				continue
			}
			pp, ok := perf[p.ID]
			if !ok {
				pp = &ProductPerformance{ProductID: p.ID, Name: p.Name, Type: p.Type, Revenue: decimal.Zero}
				perf[p.ID] = pp
				ids = append(ids, p.ID)
			}
			pp.Quantity += it.Quantity
			pp.Revenue = pp.Revenue.Add(it.LineTotal())
			pp.Orders++
		}
	}

	out := make([]ProductPerformance, 0, len(perf))
	for _, id := range ids {
		out = append(out, *perf[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue.GreaterThan(out[j].Revenue) })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// TopCustomers ranks customers by revenue, at most ten. Orders without a
// customer are reported individually under UnknownCustomerName.
func TopCustomers(orders []order.Order, customers []customer.Customer) []CustomerPerformance {
	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}

	perf := make(map[string]*CustomerPerformance)
	var keys []string
	for _, o := range orders {
		key := o.CustomerID
		if key == "" {
			key = "order:" + o.ID
		}
		cp, ok := perf[key]
		if !ok {
			name, known := names[o.CustomerID]
			if !known {
				name = UnknownCustomerName
			}
			cp = &CustomerPerformance{CustomerID: o.CustomerID, Name: name, Revenue: decimal.Zero, LastOrder: o.CreatedAt}
			perf[key] = cp
			keys = append(keys, key)
		}
		cp.Orders++
		cp.Revenue = cp.Revenue.Add(o.TotalAmount)
		if o.CreatedAt.After(cp.LastOrder) {
			cp.LastOrder = o.CreatedAt
		}
	}

	out := make([]CustomerPerformance, 0, len(perf))
	for _, k := range keys {
		out = append(out, *perf[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue.GreaterThan(out[j].Revenue) })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// SalesReport filters orders to w and computes the full sales report.
func SalesReport(
	orders []order.Order,
	products []product.Product,
	customers []customer.Customer,
	w Window,
	now time.Time,
	loc *time.Location,
) Sales {
	filtered := FilterOrders(orders, w, now)
	return Sales{
		Window:    w,
		Metrics:   SummarizeSales(filtered),
		Daily:     DailySeries(filtered, now, loc),
		Products:  TopProducts(filtered, products),
		Customers: TopCustomers(filtered, customers),
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from a to b, both at midnight in the
// same location.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / day)
}
