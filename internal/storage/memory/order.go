package memory

import (
	"context"
	"sort"
	"time"

	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository on a Store.
type OrderRepository struct {
	s *Store
}

// NewOrderRepository returns an OrderRepository over s.
func NewOrderRepository(s *Store) *OrderRepository {
	return &OrderRepository{s: s}
}

// List returns matching orders, newest first.
func (r *OrderRepository) List(_ context.Context, f order.Filter) ([]order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]order.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.CustomerID != "" && o.CustomerID != f.CustomerID {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i := r.s.orderIndex(id)
	if i < 0 {
		return nil, order.ErrNotFound
	}
	o := cloneOrder(r.s.orders[i])
	return &o, nil
}

func (r *OrderRepository) GetByNumber(_ context.Context, number string) (*order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, o := range r.s.orders {
		if o.OrderNumber == number {
			o = cloneOrder(o)
			return &o, nil
		}
	}
	return nil, order.ErrNotFound
}

func (r *OrderRepository) ListNumbers(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]string, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		out = append(out, o.OrderNumber)
	}
	return out, nil
}

func (r *OrderRepository) NextSequence(_ context.Context, day time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := sequenceKey(day)
	r.s.sequences[key]++
	return r.s.sequences[key], nil
}

func (r *OrderRepository) hasNumber(number string) bool {
	for _, o := range r.s.orders {
		if o.OrderNumber == number {
			return true
		}
	}
	return false
}

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.hasNumber(o.OrderNumber) {
		return order.ErrNumberConflict
	}

	// Check every line before touching stock.
	idx := make([]int, len(o.Items))
	for n, it := range o.Items {
		i := r.s.productIndex(it.ProductID)
		if i < 0 {
			return &order.ProductNotFoundError{ProductID: it.ProductID}
		}
		if p := r.s.products[i]; p.QuantityInStock < it.Quantity {
			return &product.InsufficientStockError{ProductID: p.ID, Requested: it.Quantity, Available: p.QuantityInStock}
		}
		idx[n] = i
	}
	for n, it := range o.Items {
		p := &r.s.products[idx[n]]
		p.QuantityInStock -= it.Quantity
		p.UpdatedAt = o.CreatedAt
	}
	r.s.orders = append(r.s.orders, cloneOrder(*o))
	return nil
}

func (r *OrderRepository) Import(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.hasNumber(o.OrderNumber) {
		return order.ErrNumberConflict
	}
	r.s.orders = append(r.s.orders, cloneOrder(*o))
	r.s.bumpSequence(o.OrderNumber)
	return nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, status order.Status, restock bool, at time.Time) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.orderIndex(id)
	if i < 0 {
		return nil, order.ErrNotFound
	}
	o := &r.s.orders[i]
	o.Status = status
	o.UpdatedAt = at
	if restock {
		for _, it := range o.Items {
			if pi := r.s.productIndex(it.ProductID); pi >= 0 {
				r.s.products[pi].QuantityInStock += it.Quantity
				r.s.products[pi].UpdatedAt = at
			}
		}
	}
	out := cloneOrder(*o)
	return &out, nil
}
