package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deniyaya/teashop/internal/domain/order"
)

// OrderPriority ranks how quickly a pending order needs attention.
type OrderPriority string

const (
	PriorityHigh   OrderPriority = "High"
	PriorityMedium OrderPriority = "Medium"
	PriorityNormal OrderPriority = "Normal"
)

var (
	highValueOrder   = decimal.NewFromInt(50_000)
	mediumValueOrder = decimal.NewFromInt(20_000)
)

func (p OrderPriority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	}
	return 1
}

// ClassifyOrderPriority is High for orders three or more days old or worth
// at least 50 000, Medium for orders a day old or worth at least 20 000.
func ClassifyOrderPriority(createdAt time.Time, total decimal.Decimal, now time.Time) OrderPriority {
	age := int(math.Floor(float64(now.Sub(createdAt)) / float64(day)))
	switch {
	case age >= 3 || total.GreaterThanOrEqual(highValueOrder):
		return PriorityHigh
	case age >= 1 || total.GreaterThanOrEqual(mediumValueOrder):
		return PriorityMedium
	default:
		return PriorityNormal
	}
}

// PendingOrder is a pending order with its priority.
type PendingOrder struct {
	Order    order.Order
	Priority OrderPriority
	AgeDays  int
}

// PendingQueue keeps Pending orders, most urgent first and oldest first
// within a priority.
func PendingQueue(orders []order.Order, now time.Time) []PendingOrder {
	out := make([]PendingOrder, 0)
	for _, o := range orders {
		if o.Status != order.StatusPending {
			continue
		}
		out = append(out, PendingOrder{
			Order:    o,
			Priority: ClassifyOrderPriority(o.CreatedAt, o.TotalAmount, now),
			AgeDays:  int(math.Floor(float64(now.Sub(o.CreatedAt)) / float64(day))),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.rank(), out[j].Priority.rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].Order.CreatedAt.Before(out[j].Order.CreatedAt)
	})
	return out
}
