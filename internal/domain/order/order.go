package order

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists every order status in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from s to next.
// Completed and Cancelled are terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCompleted || next == StatusCancelled
	case StatusProcessing:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Order is a customer order with its line items.
type Order struct {
	ID          string
	OrderNumber string
	CustomerID  string
	UserID      string
	Status      Status
	TotalAmount decimal.Decimal
	Notes       string
	Items       []Item
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Item is a single order line. Price is the unit price at the time of sale.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

// LineTotal is the quantity multiplied by the unit price.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// FormatNumber renders the human readable order number for the seq-th order
// placed on day, e.g. DTN-20240203-001.
func FormatNumber(day time.Time, seq int) string {
	return fmt.Sprintf("DTN-%s-%03d", day.Format("20060102"), seq)
}

// ParseNumber splits an order number produced by FormatNumber into its day
// (midnight UTC) and sequence.
func ParseNumber(number string) (day time.Time, seq int, ok bool) {
	rest, found := strings.CutPrefix(number, "DTN-")
	if !found {
		return time.Time{}, 0, false
	}
	date, tail, found := strings.Cut(rest, "-")
	if !found {
		return time.Time{}, 0, false
	}
	day, err := time.Parse("20060102", date)
	if err != nil {
		return time.Time{}, 0, false
	}
	seq, err = strconv.Atoi(tail)
	if err != nil || seq <= 0 {
		return time.Time{}, 0, false
	}
	return day, seq, true
}

// Filter narrows an order listing. Zero values match everything.
type Filter struct {
	Status     Status
	CustomerID string
}

// Repository defines persistence operations for orders.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	ListNumbers(ctx context.Context) ([]string, error)
	// NextSequence returns the next per-day order sequence for day.
	NextSequence(ctx context.Context, day time.Time) (int, error)
	// Create stores o and its items and takes the ordered quantities out of
	// stock in one step. It fails with *product.InsufficientStockError when a
	// product no longer has enough units.
	Create(ctx context.Context, o *Order) error
	// Import stores a historical order without touching stock.
	Import(ctx context.Context, o *Order) error
	// UpdateStatus sets the order status; when restock is true the ordered
	// quantities are returned to stock in the same step.
	UpdateStatus(ctx context.Context, id string, status Status, restock bool, at time.Time) (*Order, error)
}
