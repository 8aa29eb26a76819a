// Package analytics derives stock, turnover, sales and customer figures from
// catalogue and order data. Every function is pure: callers pass the data and
// the reference time, and nothing is cached between calls.
package analytics

import (
	"math"
	"sort"

	"github.com/deniyaya/teashop/internal/domain/product"
)

// StockStatus classifies on-hand stock against the reorder level.
type StockStatus string

const (
	OutOfStock StockStatus = "OutOfStock"
	LowStock   StockStatus = "LowStock"
	InStock    StockStatus = "InStock"
)

// ClassifyStock returns exactly one status for any non-negative input.
func ClassifyStock(currentStock, reorderLevel int) StockStatus {
	switch {
	case currentStock == 0:
		return OutOfStock
	case currentStock <= reorderLevel:
		return LowStock
	default:
		return InStock
	}
}

// Urgency ranks how soon a product should be restocked.
type Urgency string

const (
	UrgencyCritical Urgency = "Critical"
	UrgencyHigh     Urgency = "High"
	UrgencyMedium   Urgency = "Medium"
	UrgencyLow      Urgency = "Low"
)

// Priority is the sort weight of u; higher is more urgent.
func (u Urgency) Priority() int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	}
	return 0
}

// Valid reports whether u is a known urgency.
func (u Urgency) Valid() bool {
	return u.Priority() > 0
}

// RankUrgency bands stock against 30% and 60% of the reorder level. The
// comparisons are done in integers (stock*10 against reorder*3 or *6) so
// fractional thresholds such as 4.5 are exact.
func RankUrgency(currentStock, reorderLevel int) Urgency {
	switch {
	case currentStock == 0:
		return UrgencyCritical
	case currentStock*10 <= reorderLevel*3:
		return UrgencyHigh
	case currentStock*10 <= reorderLevel*6:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// RestockEntry is one line of the restocking queue.
type RestockEntry struct {
	Product  product.Product
	Status   StockStatus
	Urgency  Urgency
	Priority int
	// Shortage is how many units bring the product back to its reorder level.
	Shortage int
}

// QueueFilter narrows the restocking queue. Zero values match everything.
type QueueFilter struct {
	Category product.TeaType
	Urgency  Urgency
}

// RestockQueue returns the products at or below their reorder level ordered
// by descending priority. Products of equal priority keep their input order.
func RestockQueue(products []product.Product, f QueueFilter) []RestockEntry {
	queue := make([]RestockEntry, 0)
	for _, p := range products {
		if p.QuantityInStock > p.ReorderLevel {
			continue
		}
		if f.Category != "" && p.Type != f.Category {
			continue
		}
		u := RankUrgency(p.QuantityInStock, p.ReorderLevel)
		if f.Urgency != "" && u != f.Urgency {
			continue
		}
		queue = append(queue, RestockEntry{
			Product:  p,
			Status:   ClassifyStock(p.QuantityInStock, p.ReorderLevel),
			Urgency:  u,
			Priority: u.Priority(),
			Shortage: max(0, p.ReorderLevel-p.QuantityInStock),
		})
	}
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Priority > queue[j].Priority
	})
	return queue
}

// StockLevelPercent is the gauge shown next to a product: stock relative to
// twice the reorder level, capped at 100.
func StockLevelPercent(currentStock, reorderLevel int) float64 {
	if reorderLevel <= 0 {
		if currentStock > 0 {
			return 100
		}
		return 0
	}
	return math.Min(float64(currentStock)/float64(reorderLevel*2)*100, 100)
}
