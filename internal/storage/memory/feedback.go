package memory

import (
	"context"

	"github.com/deniyaya/teashop/internal/domain/feedback"
)

var _ feedback.Repository = (*FeedbackRepository)(nil)

// FeedbackRepository implements feedback.Repository on a Store.
type FeedbackRepository struct {
	s *Store
}

// NewFeedbackRepository returns a FeedbackRepository over s.
func NewFeedbackRepository(s *Store) *FeedbackRepository {
	return &FeedbackRepository{s: s}
}

func (r *FeedbackRepository) Create(_ context.Context, f *feedback.Feedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.feedback {
		if existing.CustomerID == f.CustomerID && existing.ProductID == f.ProductID {
			return feedback.ErrAlreadyReviewed
		}
	}
	r.s.feedback = append(r.s.feedback, *f)
	return nil
}

// ListByCustomer returns the customer's reviews, newest first.
func (r *FeedbackRepository) ListByCustomer(_ context.Context, customerID string) ([]feedback.Feedback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []feedback.Feedback
	for i := len(r.s.feedback) - 1; i >= 0; i-- {
		if f := r.s.feedback[i]; f.CustomerID == customerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *FeedbackRepository) Exists(_ context.Context, customerID, productID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, f := range r.s.feedback {
		if f.CustomerID == customerID && f.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}
