package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/order"
)

// Segment is a customer classification bucket.
type Segment string

const (
	SegmentVIP     Segment = "VIP"
	SegmentLoyal   Segment = "Loyal"
	SegmentRegular Segment = "Regular"
	SegmentActive  Segment = "Active"
	SegmentNew     Segment = "New"
)

// Segments lists every segment in rule order.
var Segments = []Segment{SegmentVIP, SegmentLoyal, SegmentRegular, SegmentActive, SegmentNew}

// Risk is the likelihood that a customer has lapsed.
type Risk string

const (
	RiskHigh   Risk = "High"
	RiskMedium Risk = "Medium"
	RiskLow    Risk = "Low"
)

var (
	vipThreshold   = decimal.NewFromInt(100_000)
	loyalThreshold = decimal.NewFromInt(50_000)
)

// ClassifySegment applies the segment rules in priority order; the first
// match wins, so a single large order still makes a customer VIP.
func ClassifySegment(totalSpent decimal.Decimal, totalOrders int) Segment {
	switch {
	case totalSpent.GreaterThan(vipThreshold):
		return SegmentVIP
	case totalSpent.GreaterThan(loyalThreshold):
		return SegmentLoyal
	case totalOrders > 5:
		return SegmentRegular
	case totalOrders > 0:
		return SegmentActive
	default:
		return SegmentNew
	}
}

// ClassifyRisk maps days since the last order to a risk level. Customers
// who never ordered are Low risk.
func ClassifyRisk(daysSinceLastOrder *int) Risk {
	switch {
	case daysSinceLastOrder == nil:
		return RiskLow
	case *daysSinceLastOrder > 90:
		return RiskHigh
	case *daysSinceLastOrder > 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CustomerStats are the figures derived for one customer.
type CustomerStats struct {
	Customer           customer.Customer
	TotalOrders        int
	TotalSpent         decimal.Decimal
	AvgOrderValue      decimal.Decimal
	LastOrderDate      *time.Time
	DaysSinceLastOrder *int
	Segment            Segment
	Risk               Risk
	IsActive           bool
	IsNew              bool
	IsReturning        bool
}

// AnalyzeCustomer derives stats for c from orders, which may include other
// customers' orders; only those whose CustomerID matches are counted.
func AnalyzeCustomer(c customer.Customer, orders []order.Order, now time.Time) CustomerStats {
	return AnalyzeCustomers([]customer.Customer{c}, orders, now)[0]
}

func finishStats(s CustomerStats, now time.Time) CustomerStats {
	if s.TotalOrders > 0 {
		s.AvgOrderValue = s.TotalSpent.Div(decimal.NewFromInt(int64(s.TotalOrders)))
	}
	if s.LastOrderDate != nil {
		days := int(math.Floor(float64(now.Sub(*s.LastOrderDate)) / float64(day)))
		s.DaysSinceLastOrder = &days
		s.IsActive = days <= 30
	}
	s.Segment = ClassifySegment(s.TotalSpent, s.TotalOrders)
	s.Risk = ClassifyRisk(s.DaysSinceLastOrder)
	s.IsNew = s.TotalOrders <= 1
	s.IsReturning = s.TotalOrders > 1
	return s
}

// AnalyzeCustomers derives stats for every customer in one pass over orders.
func AnalyzeCustomers(customers []customer.Customer, orders []order.Order, now time.Time) []CustomerStats {
	byID := make(map[string]*CustomerStats, len(customers))
	out := make([]CustomerStats, len(customers))
	for i, c := range customers {
		out[i] = CustomerStats{Customer: c, TotalSpent: decimal.Zero, AvgOrderValue: decimal.Zero}
		byID[c.ID] = &out[i]
	}
	for _, o := range orders {
		s, ok := byID[o.CustomerID]
		if !ok {
			continue
		}
		s.TotalOrders++
		s.TotalSpent = s.TotalSpent.Add(o.TotalAmount)
		if s.LastOrderDate == nil || o.CreatedAt.After(*s.LastOrderDate) {
			at := o.CreatedAt
			s.LastOrderDate = &at
		}
	}
	for i := range out {
		out[i] = finishStats(out[i], now)
	}
	return out
}

// CustomerMetrics aggregates a customer set over a window.
type CustomerMetrics struct {
	TotalCustomers        int
	ActiveCustomers       int
	NewCustomers          int
	ReturningCustomers    int
	TotalRevenue          decimal.Decimal
	TotalOrders           int
	AverageOrderValue     decimal.Decimal
	CustomerLifetimeValue decimal.Decimal
	RepeatCustomerRate    float64
	ChurnRate             float64
}

// AggregateCustomers summarises stats. Revenue and order count come from
// windowOrders so that orders without a known customer are still counted.
func AggregateCustomers(stats []CustomerStats, windowOrders []order.Order) CustomerMetrics {
	m := CustomerMetrics{
		TotalCustomers:        len(stats),
		TotalRevenue:          decimal.Zero,
		AverageOrderValue:     decimal.Zero,
		CustomerLifetimeValue: decimal.Zero,
	}
	withOrders := 0
	for _, s := range stats {
		if s.IsActive {
			m.ActiveCustomers++
		}
		if s.IsNew {
			m.NewCustomers++
		}
		if s.IsReturning {
			m.ReturningCustomers++
		}
		if s.TotalOrders > 0 {
			withOrders++
		}
	}
	for _, o := range windowOrders {
		m.TotalRevenue = m.TotalRevenue.Add(o.TotalAmount)
	}
	m.TotalOrders = len(windowOrders)
	if m.TotalOrders > 0 {
		m.AverageOrderValue = m.TotalRevenue.Div(decimal.NewFromInt(int64(m.TotalOrders)))
	}
	if withOrders > 0 {
		m.CustomerLifetimeValue = m.TotalRevenue.Div(decimal.NewFromInt(int64(withOrders)))
	}
	if m.TotalCustomers > 0 {
		total := float64(m.TotalCustomers)
		m.RepeatCustomerRate = float64(m.ReturningCustomers) / total * 100
		m.ChurnRate = float64(m.TotalCustomers-m.ActiveCustomers) / total * 100
	}
	return m
}

// SegmentSummary describes the customers in one segment.
type SegmentSummary struct {
	Segment       Segment
	Count         int
	Percentage    float64
	TotalRevenue  decimal.Decimal
	AvgOrderValue decimal.Decimal
}

// SummarizeSegments groups stats by segment in rule order, omitting empty
// segments.
func SummarizeSegments(stats []CustomerStats) []SegmentSummary {
	type acc struct {
		count   int
		revenue decimal.Decimal
		orders  int
	}
	groups := make(map[Segment]*acc)
	for _, s := range stats {
		a, ok := groups[s.Segment]
		if !ok {
			a = &acc{revenue: decimal.Zero}
			groups[s.Segment] = a
		}
		a.count++
		a.revenue = a.revenue.Add(s.TotalSpent)
		a.orders += s.TotalOrders
	}

	out := make([]SegmentSummary, 0, len(groups))
	for _, seg := range Segments {
		a, ok := groups[seg]
		if !ok {
			continue
		}
		sum := SegmentSummary{
			Segment:       seg,
			Count:         a.count,
			Percentage:    float64(a.count) / float64(len(stats)) * 100,
			TotalRevenue:  a.revenue,
			AvgOrderValue: decimal.Zero,
		}
		if a.orders > 0 {
			sum.AvgOrderValue = a.revenue.Div(decimal.NewFromInt(int64(a.orders)))
		}
		out = append(out, sum)
	}
	return out
}

// CustomerSort names the customer report orderings.
type CustomerSort string

const (
	SortCustomersByValue  CustomerSort = "value"
	SortCustomersByOrders CustomerSort = "orders"
	SortCustomersByRecent CustomerSort = "recent"
)

// Valid reports whether s is a known ordering; empty means by value.
func (s CustomerSort) Valid() bool {
	switch s {
	case "", SortCustomersByValue, SortCustomersByOrders, SortCustomersByRecent:
		return true
	}
	return false
}

// SortCustomers orders stats in place. Customers who never ordered sort last
// under SortCustomersByRecent.
func SortCustomers(stats []CustomerStats, by CustomerSort) {
	var less func(a, b CustomerStats) bool
	switch by {
	case SortCustomersByOrders:
		less = func(a, b CustomerStats) bool { return a.TotalOrders > b.TotalOrders }
	case SortCustomersByRecent:
		less = func(a, b CustomerStats) bool {
			switch {
			case a.LastOrderDate == nil:
				return false
			case b.LastOrderDate == nil:
				return true
			}
			return a.LastOrderDate.After(*b.LastOrderDate)
		}
	default:
		less = func(a, b CustomerStats) bool { return a.TotalSpent.GreaterThan(b.TotalSpent) }
	}
	sort.SliceStable(stats, func(i, j int) bool { return less(stats[i], stats[j]) })
}

// CustomerTotals are the lifetime figures shown on the customer list.
type CustomerTotals struct {
	TotalOrders   int
	TotalSpent    decimal.Decimal
	LastOrderDate *time.Time
}

// TotalsByCustomer computes lifetime totals for every customer that has
// orders, keyed by customer id.
func TotalsByCustomer(orders []order.Order) map[string]CustomerTotals {
	out := make(map[string]CustomerTotals)
	for _, o := range orders {
		if o.CustomerID == "" {
			continue
		}
		t, ok := out[o.CustomerID]
		if !ok {
			t.TotalSpent = decimal.Zero
		}
		t.TotalOrders++
		t.TotalSpent = t.TotalSpent.Add(o.TotalAmount)
		if t.LastOrderDate == nil || o.CreatedAt.After(*t.LastOrderDate) {
			at := o.CreatedAt
			t.LastOrderDate = &at
		}
		out[o.CustomerID] = t
	}
	return out
}

// Customers is the full customer report.
type Customers struct {
	Window    Window
	Metrics   CustomerMetrics
	Segments  []SegmentSummary
	Customers []CustomerStats
}

// CustomerReport filters orders to w, analyses every customer over the
// window, and sorts the rows by the requested ordering.
func CustomerReport(customers []customer.Customer, orders []order.Order, w Window, by CustomerSort, now time.Time) Customers {
	filtered := FilterOrders(orders, w, now)
	stats := AnalyzeCustomers(customers, filtered, now)
	r := Customers{
		Window:   w,
		Metrics:  AggregateCustomers(stats, filtered),
		Segments: SummarizeSegments(stats),
	}
	SortCustomers(stats, by)
	r.Customers = stats
	return r
}
