package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// TeaType is the catalogue category of a product.
type TeaType string

const (
	BlackTea    TeaType = "BlackTea"
	GreenTea    TeaType = "GreenTea"
	WhiteTea    TeaType = "WhiteTea"
	HerbalTea   TeaType = "HerbalTea"
	OolongTea   TeaType = "OolongTea"
	FlavoredTea TeaType = "FlavoredTea"
	Other       TeaType = "Other"
)

// TeaTypes lists every category in display order.
var TeaTypes = []TeaType{BlackTea, GreenTea, WhiteTea, HerbalTea, OolongTea, FlavoredTea, Other}

// Valid reports whether t is one of the known categories.
func (t TeaType) Valid() bool {
	for _, v := range TeaTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ParseTeaType converts s into a TeaType.
func ParseTeaType(s string) (TeaType, error) {
	t := TeaType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tea type %q", s)
	}
	return t, nil
}

// Product is a stocked catalogue item.
type Product struct {
	ID              string
	Name            string
	Type            TeaType
	Description     string
	Price           decimal.Decimal
	QuantityInStock int
	ReorderLevel    int
	Unit            string
	ImageURL        string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	// DeletedAt is set once the product is withdrawn from the catalogue.
	// Deleted rows stay so past order lines still resolve.
	DeletedAt *time.Time
}

// StockValue is the value of the units currently on hand.
func (p Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.QuantityInStock)))
}

// Adjustment is a manual stock correction recorded against a product.
// Delta is the requested change; the stored quantity never drops below zero.
type Adjustment struct {
	ID        string
	ProductID string
	Delta     int
	Reason    string
	CreatedAt time.Time
}

// InsufficientStockError indicates an order asked for more units than are on hand.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Repository defines persistence operations for the product catalogue.
// Every method except ListAll ignores deleted products.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	// ListAll returns the catalogue including deleted products.
	ListAll(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	// Delete marks the product deleted and inactive.
	Delete(ctx context.Context, id string) error
	// Adjust applies a.Delta to the product's stock, clamped at zero, records
	// the adjustment, and returns the updated product.
	Adjust(ctx context.Context, a *Adjustment) (*Product, error)
	ListAdjustments(ctx context.Context, productID string) ([]Adjustment, error)
}
