package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/deniyaya/teashop/internal/domain/customer"
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository on a Store.
type CustomerRepository struct {
	s *Store
}

// NewCustomerRepository returns a CustomerRepository over s.
func NewCustomerRepository(s *Store) *CustomerRepository {
	return &CustomerRepository{s: s}
}

func (r *CustomerRepository) List(_ context.Context) ([]customer.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return slices.Clone(r.s.customers), nil
}

func (r *CustomerRepository) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.customers {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, customer.ErrNotFound
}

func (r *CustomerRepository) GetByEmail(_ context.Context, email string) (*customer.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.customers {
		if strings.EqualFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, customer.ErrNotFound
}

func (r *CustomerRepository) Create(_ context.Context, c *customer.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.customers {
		if strings.EqualFold(existing.Email, c.Email) {
			return customer.ErrEmailTaken
		}
	}
	r.s.customers = append(r.s.customers, *c)
	return nil
}
