package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
)

// Movement classifies demand velocity.
type Movement string

const (
	FastMoving Movement = "FastMoving"
	SlowMoving Movement = "SlowMoving"
	Normal     Movement = "Normal"
)

// InventoryStatus is the single label shown per product on the inventory
// report. OutOfStock wins over LowStock, which wins over Overstock.
type InventoryStatus string

const (
	StatusOutOfStock InventoryStatus = "OutOfStock"
	StatusLowStock   InventoryStatus = "LowStock"
	StatusOverstock  InventoryStatus = "Overstock"
	StatusNormal     InventoryStatus = "Normal"
)

// Turnover is the per-product row of the inventory report.
type Turnover struct {
	Product      product.Product
	UnitsSold    int
	Rate         float64
	Movement     Movement
	Overstock    bool
	IsLowStock   bool
	StockValue   decimal.Decimal
	Status       InventoryStatus
	StockPercent float64
}

// TurnoverRate is units sold divided by units on hand, or 0 with no stock.
func TurnoverRate(unitsSold, currentStock int) float64 {
	if currentStock == 0 {
		return 0
	}
	return float64(unitsSold) / float64(currentStock)
}

// ClassifyMovement buckets a turnover rate.
func ClassifyMovement(rate float64) Movement {
	switch {
	case rate > 2:
		return FastMoving
	case rate < 0.5:
		return SlowMoving
	default:
		return Normal
	}
}

// IsOverstock reports stock above three times the reorder level.
func IsOverstock(currentStock, reorderLevel int) bool {
	return currentStock > reorderLevel*3
}

// UnitsSold totals ordered quantities per product id.
func UnitsSold(orders []order.Order) map[string]int {
	sold := make(map[string]int)
	for _, o := range orders {
		for _, it := range o.Items {
			sold[it.ProductID] += it.Quantity
		}
	}
	return sold
}

// ComputeTurnover derives the turnover row for p given its units sold.
func ComputeTurnover(p product.Product, unitsSold int) Turnover {
	rate := TurnoverRate(unitsSold, p.QuantityInStock)
	t := Turnover{
		Product:      p,
		UnitsSold:    unitsSold,
		Rate:         rate,
		Movement:     ClassifyMovement(rate),
		Overstock:    IsOverstock(p.QuantityInStock, p.ReorderLevel),
		IsLowStock:   p.QuantityInStock <= p.ReorderLevel,
		StockValue:   p.StockValue(),
		StockPercent: StockLevelPercent(p.QuantityInStock, p.ReorderLevel),
	}
	switch {
	case p.QuantityInStock == 0:
		t.Status = StatusOutOfStock
	case t.IsLowStock:
		t.Status = StatusLowStock
	case t.Overstock:
		t.Status = StatusOverstock
	default:
		t.Status = StatusNormal
	}
	return t
}

// InventorySort names the inventory report orderings.
type InventorySort string

const (
	SortByValue    InventorySort = "value"
	SortByTurnover InventorySort = "turnover"
	SortByStock    InventorySort = "stock"
)

// Valid reports whether s is a known ordering; empty means SortByValue.
func (s InventorySort) Valid() bool {
	switch s {
	case "", SortByValue, SortByTurnover, SortByStock:
		return true
	}
	return false
}

// InventoryOptions configures InventoryReport.
type InventoryOptions struct {
	Category product.TeaType
	Sort     InventorySort
}

// InventoryMetrics summarises the rows in the selected category.
type InventoryMetrics struct {
	TotalProducts     int
	TotalStockValue   decimal.Decimal
	AverageStockValue decimal.Decimal
	LowStockItems     int
	OutOfStockItems   int
	OverstockItems    int
	FastMovingItems   int
	SlowMovingItems   int
}

// CategoryBreakdown is the stock held in one tea type.
type CategoryBreakdown struct {
	Category   product.TeaType
	Count      int
	Value      decimal.Decimal
	Quantity   int
	Percentage float64
}

// Inventory is the full inventory report.
type Inventory struct {
	Metrics    InventoryMetrics
	Categories []CategoryBreakdown
	Items      []Turnover
}

// InventoryReport computes turnover for every product from the given orders
// and returns the rows filtered and sorted per opts. Metrics cover the
// filtered rows. The category breakdown always spans the whole catalogue so
// each share is a percentage of the total stock value.
func InventoryReport(products []product.Product, orders []order.Order, opts InventoryOptions) Inventory {
	sold := UnitsSold(orders)

	items := make([]Turnover, 0, len(products))
	catalogueValue := decimal.Zero
	byCategory := make(map[product.TeaType]*CategoryBreakdown)

	for _, p := range products {
		t := ComputeTurnover(p, sold[p.ID])
		catalogueValue = catalogueValue.Add(t.StockValue)

		cb, ok := byCategory[p.Type]
		if !ok {
			cb = &CategoryBreakdown{Category: p.Type, Value: decimal.Zero}
			byCategory[p.Type] = cb
		}
		cb.Count++
		cb.Value = cb.Value.Add(t.StockValue)
		cb.Quantity += p.QuantityInStock

		if opts.Category == "" || p.Type == opts.Category {
			items = append(items, t)
		}
	}

	categories := make([]CategoryBreakdown, 0, len(byCategory))
	for _, tt := range product.TeaTypes {
		cb, ok := byCategory[tt]
		if !ok {
			continue
		}
		if catalogueValue.IsPositive() {
			cb.Percentage = cb.Value.Div(catalogueValue).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		categories = append(categories, *cb)
	}

	sortTurnover(items, opts.Sort)
	return Inventory{Metrics: inventoryMetrics(items), Categories: categories, Items: items}
}

func inventoryMetrics(rows []Turnover) InventoryMetrics {
	m := InventoryMetrics{TotalStockValue: decimal.Zero, AverageStockValue: decimal.Zero}
	for _, t := range rows {
		m.TotalProducts++
		m.TotalStockValue = m.TotalStockValue.Add(t.StockValue)
		if t.Product.QuantityInStock == 0 {
			m.OutOfStockItems++
		} else if t.IsLowStock {
			m.LowStockItems++
		}
		if t.Overstock {
			m.OverstockItems++
		}
		switch t.Movement {
		case FastMoving:
			m.FastMovingItems++
		case SlowMoving:
			m.SlowMovingItems++
		}
	}
	if m.TotalProducts > 0 {
		m.AverageStockValue = m.TotalStockValue.Div(decimal.NewFromInt(int64(m.TotalProducts)))
	}
	return m
}

func sortTurnover(items []Turnover, by InventorySort) {
	var less func(a, b Turnover) bool
	switch by {
	case SortByTurnover:
		less = func(a, b Turnover) bool { return a.Rate > b.Rate }
	case SortByStock:
		less = func(a, b Turnover) bool { return a.Product.QuantityInStock > b.Product.QuantityInStock }
	default:
		less = func(a, b Turnover) bool { return a.StockValue.GreaterThan(b.StockValue) }
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
