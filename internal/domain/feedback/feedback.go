// Package feedback handles product reviews left by customers.
package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/deniyaya/teashop/internal/domain/product"
	"github.com/deniyaya/teashop/internal/domain/validation"
)

// ErrAlreadyReviewed is returned when a customer reviews the same product twice.
var ErrAlreadyReviewed = errors.New("product already reviewed")

// Feedback is a customer's rating of a product.
type Feedback struct {
	ID         string
	CustomerID string
	ProductID  string
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

// Repository defines persistence operations for feedback.
type Repository interface {
	Create(ctx context.Context, f *Feedback) error
	ListByCustomer(ctx context.Context, customerID string) ([]Feedback, error)
	// Exists reports whether customerID has already reviewed productID.
	Exists(ctx context.Context, customerID, productID string) (bool, error)
}

// SubmitRequest is a new review.
type SubmitRequest struct {
	CustomerID string
	ProductID  string
	Rating     int
	Comment    string
}

// Service encapsulates review submission.
type Service struct {
	repo     Repository
	products product.Repository
	now      func() time.Time
}

// NewService creates a feedback Service.
func NewService(repo Repository, products product.Repository) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

// Submit stores a review. A customer may review each product once.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Feedback, error) {
	var v validation.Error
	if req.Rating < 1 || req.Rating > 5 {
		v.Add("rating", "must be between 1 and 5")
	}
	if req.ProductID == "" {
		v.Add("productId", "is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := s.products.GetByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	reviewed, err := s.HasReviewed(ctx, req.CustomerID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, ErrAlreadyReviewed
	}

	f := &Feedback{
		ID:         uuid.New().String(),
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
		CreatedAt:  s.now(),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, errors.Wrap(err, "create feedback")
	}
	return f, nil
}

// HasReviewed reports whether the customer already left a review for the product.
func (s *Service) HasReviewed(ctx context.Context, customerID, productID string) (bool, error) {
	ok, err := s.repo.Exists(ctx, customerID, productID)
	if err != nil {
		return false, errors.Wrap(err, "check existing review")
	}
	return ok, nil
}

// ReviewedProducts returns the ids of every product the customer reviewed.
func (s *Service) ReviewedProducts(ctx context.Context, customerID string) (map[string]bool, error) {
	reviews, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	out := make(map[string]bool, len(reviews))
	for _, f := range reviews {
		out[f.ProductID] = true
	}
	return out, nil
}

// ListByCustomer returns a customer's reviews, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Feedback, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}
