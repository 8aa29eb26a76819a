// Package memory implements the domain repositories in process memory. It
// backs local development and handler tests, seeded from the demo dataset.
package memory

import (
	"sync"
	"time"

	"github.com/deniyaya/teashop/internal/domain/auth"
	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/feedback"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
	"github.com/deniyaya/teashop/internal/storage/dataset"
)

// Store holds every record behind one lock so that order placement can check
// and take stock atomically.
type Store struct {
	mu sync.RWMutex

	products    []product.Product
	adjustments []product.Adjustment
	customers   []customer.Customer
	users       []auth.User
	orders      []order.Order
	feedback    []feedback.Feedback
	sequences   map[string]int
	revoked     map[string]time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		sequences: make(map[string]int),
		revoked:   make(map[string]time.Time),
	}
}

// NewFromDataset returns a Store holding a copy of ds.
func NewFromDataset(ds *dataset.Dataset) *Store {
	s := New()
	s.products = append(s.products, ds.Products...)
	s.customers = append(s.customers, ds.Customers...)
	s.users = append(s.users, ds.Users...)
	s.feedback = append(s.feedback, ds.Feedback...)
	for _, o := range ds.Orders {
		s.orders = append(s.orders, cloneOrder(o))
		s.bumpSequence(o.OrderNumber)
	}
	return s
}

func sequenceKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// bumpSequence keeps the per-day counter ahead of an imported order number.
func (s *Store) bumpSequence(number string) {
	day, seq, ok := order.ParseNumber(number)
	if !ok {
		return
	}
	if key := sequenceKey(day); s.sequences[key] < seq {
		s.sequences[key] = seq
	}
}

func cloneOrder(o order.Order) order.Order {
	o.Items = append([]order.Item(nil), o.Items...)
	return o
}

// productIndex finds a product that has not been deleted.
func (s *Store) productIndex(id string) int {
	for i := range s.products {
		if s.products[i].ID == id && s.products[i].DeletedAt == nil {
			return i
		}
	}
	return -1
}

func (s *Store) orderIndex(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	return -1
}
