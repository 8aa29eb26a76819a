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
	recentOrdersLimit = 5
	overviewLimit     = 5
)

// DashboardStats are the counters on the admin landing page.
type DashboardStats struct {
	TotalProducts  int
	LowStockItems  int
	TodayOrders    int
	TodayRevenue   decimal.Decimal
	TotalCustomers int
	PendingOrders  int
}

// RecentOrder is an order row on the dashboard.
type RecentOrder struct {
	Order        order.Order
	CustomerName string
}

// Dashboard is the admin landing page.
type Dashboard struct {
	Stats        DashboardStats
	RecentOrders []RecentOrder
	LowStock     []RestockEntry
}

// BuildDashboard computes the landing page. "Today" is the calendar day of
// now in loc. The low-stock count uses stock at or below the reorder level,
// so out-of-stock products are included.
func BuildDashboard(
	products []product.Product,
	orders []order.Order,
	customers []customer.Customer,
	now time.Time,
	loc *time.Location,
) Dashboard {
	d := Dashboard{
		Stats: DashboardStats{
			TotalProducts:  len(products),
			TotalCustomers: len(customers),
			TodayRevenue:   decimal.Zero,
		},
	}
	for _, p := range products {
		if p.QuantityInStock <= p.ReorderLevel {
			d.Stats.LowStockItems++
		}
	}

	today := startOfDay(now, loc)
	for _, o := range orders {
		if startOfDay(o.CreatedAt, loc).Equal(today) {
			d.Stats.TodayOrders++
			d.Stats.TodayRevenue = d.Stats.TodayRevenue.Add(o.TotalAmount)
		}
		if o.Status == order.StatusPending {
			d.Stats.PendingOrders++
		}
	}

	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	recent := make([]order.Order, len(orders))
	copy(recent, orders)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentOrdersLimit {
		recent = recent[:recentOrdersLimit]
	}
	d.RecentOrders = make([]RecentOrder, 0, len(recent))
	for _, o := range recent {
		name, ok := names[o.CustomerID]
		if !ok {
			name = UnknownCustomerName
		}
		d.RecentOrders = append(d.RecentOrders, RecentOrder{Order: o, CustomerName: name})
	}

	d.LowStock = RestockQueue(products, QueueFilter{})
	return d
}

// CustomerSpend is a customer ranked by lifetime spend.
type CustomerSpend struct {
	Customer customer.Customer
	CustomerTotals
}

// ProductValue is a product ranked by stock value.
type ProductValue struct {
	Product    product.Product
	StockValue decimal.Decimal
}

// Overview is the reports landing page.
type Overview struct {
	TotalRevenue      decimal.Decimal
	TotalOrders       int
	TotalProducts     int
	TotalCustomers    int
	AverageOrderValue decimal.Decimal
	TopCustomers      []CustomerSpend
	TopProducts       []ProductValue
}

// BuildOverview summarises all-time revenue and ranks customers by spend and
// products by stock value.
func BuildOverview(products []product.Product, orders []order.Order, customers []customer.Customer) Overview {
	sales := SummarizeSales(orders)
	ov := Overview{
		TotalRevenue:      sales.TotalRevenue,
		TotalOrders:       sales.TotalOrders,
		TotalProducts:     len(products),
		TotalCustomers:    len(customers),
		AverageOrderValue: sales.AverageOrderValue,
	}

	totals := TotalsByCustomer(orders)
	ov.TopCustomers = make([]CustomerSpend, 0, len(customers))
	for _, c := range customers {
		t, ok := totals[c.ID]
		if !ok {
			t = CustomerTotals{TotalSpent: decimal.Zero}
		}
		ov.TopCustomers = append(ov.TopCustomers, CustomerSpend{Customer: c, CustomerTotals: t})
	}
	sort.SliceStable(ov.TopCustomers, func(i, j int) bool {
		return ov.TopCustomers[i].TotalSpent.GreaterThan(ov.TopCustomers[j].TotalSpent)
	})
	if len(ov.TopCustomers) > overviewLimit {
		ov.TopCustomers = ov.TopCustomers[:overviewLimit]
	}

	ov.TopProducts = make([]ProductValue, 0, len(products))
	for _, p := range products {
		ov.TopProducts = append(ov.TopProducts, ProductValue{Product: p, StockValue: p.StockValue()})
	}
	sort.SliceStable(ov.TopProducts, func(i, j int) bool {
		return ov.TopProducts[i].StockValue.GreaterThan(ov.TopProducts[j].StockValue)
	})
	if len(ov.TopProducts) > overviewLimit {
		ov.TopProducts = ov.TopProducts[:overviewLimit]
	}
	return ov
}
