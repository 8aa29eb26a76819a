package memory

import (
	"context"
	"slices"
	"time"

	"github.com/deniyaya/teashop/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository on a Store.
type ProductRepository struct {
	s *Store
}

// NewProductRepository returns a ProductRepository over s.
func NewProductRepository(s *Store) *ProductRepository {
	return &ProductRepository{s: s}
}

func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]product.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepository) ListAll(_ context.Context) ([]product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return slices.Clone(r.s.products), nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i := r.s.productIndex(id)
	if i < 0 {
		return nil, product.ErrNotFound
	}
	p := r.s.products[i]
	return &p, nil
}

func (r *ProductRepository) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]product.Product, 0, len(ids))
	for _, p := range r.s.products {
		if p.DeletedAt == nil && slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepository) Create(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products = append(r.s.products, *p)
	return nil
}

func (r *ProductRepository) Update(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.productIndex(p.ID)
	if i < 0 {
		return product.ErrNotFound
	}
	r.s.products[i] = *p
	return nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.productIndex(id)
	if i < 0 {
		return product.ErrNotFound
	}
	now := time.Now()
	p := &r.s.products[i]
	p.DeletedAt = &now
	p.IsActive = false
	p.UpdatedAt = now
	return nil
}

func (r *ProductRepository) Adjust(_ context.Context, a *product.Adjustment) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.productIndex(a.ProductID)
	if i < 0 {
		return nil, product.ErrNotFound
	}
	p := &r.s.products[i]
	p.QuantityInStock = max(p.QuantityInStock+a.Delta, 0)
	p.UpdatedAt = a.CreatedAt
	r.s.adjustments = append(r.s.adjustments, *a)
	out := *p
	return &out, nil
}

// ListAdjustments returns the product's adjustments, newest first.
func (r *ProductRepository) ListAdjustments(_ context.Context, productID string) ([]product.Adjustment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []product.Adjustment
	for i := len(r.s.adjustments) - 1; i >= 0; i-- {
		if a := r.s.adjustments[i]; a.ProductID == productID {
			out = append(out, a)
		}
	}
	return out, nil
}
