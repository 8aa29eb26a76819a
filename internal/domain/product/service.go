package product

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/deniyaya/teashop/internal/domain/validation"
)

const defaultUnit = "g"

// Input holds the editable fields of a product.
type Input struct {
	Name            string
	Type            TeaType
	Description     string
	Price           decimal.Decimal
	QuantityInStock int
	ReorderLevel    int
	Unit            string
	ImageURL        string
	IsActive        bool
}

func (in *Input) validate() error {
	var v validation.Error
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	}
	if !in.Type.Valid() {
		v.Add("type", "must be a known tea type")
	}
	if !in.Price.IsPositive() {
		v.Add("price", "must be greater than 0")
	}
	if in.QuantityInStock < 0 {
		v.Add("quantityInStock", "must not be negative")
	}
	if in.ReorderLevel < 0 {
		v.Add("reorderLevel", "must not be negative")
	}
	return v.Err()
}

// AdjustInput is a manual stock correction request.
type AdjustInput struct {
	// Delta is positive for an increase and negative for a decrease.
	Delta  int
	Reason string
}

// Service encapsulates catalogue maintenance.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a product Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns every product.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in and stores a new product.
func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now()
	p := &Product{
		ID:        uuid.New().String(),
		CreatedAt: now,
	}
	apply(p, in, now)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// Update replaces the editable fields of an existing product.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(p, in, s.now())
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, errors.Wrapf(err, "update product %s", id)
	}
	return p, nil
}

// Delete withdraws a product from the catalogue. Its sales history is kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Adjust records a manual stock increase or decrease. Decreases larger than
// the stock on hand leave the product at zero.
func (s *Service) Adjust(ctx context.Context, id string, in AdjustInput) (*Product, error) {
	var v validation.Error
	if in.Delta == 0 {
		v.Add("quantity", "must not be zero")
	}
	if strings.TrimSpace(in.Reason) == "" {
		v.Add("reason", "is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	p, err := s.repo.Adjust(ctx, &Adjustment{
		ID:        uuid.New().String(),
		ProductID: id,
		Delta:     in.Delta,
		Reason:    strings.TrimSpace(in.Reason),
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "adjust product %s", id)
	}
	return p, nil
}

// Adjustments lists the stock corrections for a product, newest first.
func (s *Service) Adjustments(ctx context.Context, id string) ([]Adjustment, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListAdjustments(ctx, id)
}

func apply(p *Product, in Input, now time.Time) {
	p.Name = strings.TrimSpace(in.Name)
	p.Type = in.Type
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.QuantityInStock = in.QuantityInStock
	p.ReorderLevel = in.ReorderLevel
	p.Unit = in.Unit
	if p.Unit == "" {
		p.Unit = defaultUnit
	}
	p.ImageURL = in.ImageURL
	p.IsActive = in.IsActive
	p.UpdatedAt = now
}
