package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/product"
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems     = errors.New("items required")
	ErrUnknownStatus  = errors.New("unknown order status")
	ErrNumberConflict = errors.New("order number already exists")
)

// ProductNotFoundError indicates a requested product does not exist or is no
// longer offered.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidTransitionError indicates a status change the lifecycle forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// ItemRequest is one requested order line.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	CustomerID string
	UserID     string
	Items      []ItemRequest
	Notes      string
}

// Option configures a Service.
type Option func(*Service)

// WithMeter records order metrics on m.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.meter = m }
}

// WithLocation sets the time zone that decides which calendar day an order
// number belongs to.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// Service encapsulates order placement and fulfilment.
type Service struct {
	products  product.Repository
	customers customer.Repository
	orders    Repository
	now       func() time.Time
	loc       *time.Location
	meter     metric.Meter

	placed  metric.Int64Counter
	revenue metric.Float64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	customers customer.Repository,
	orders Repository,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		products:  products,
		customers: customers,
		orders:    orders,
		now:       time.Now,
		loc:       time.Local,
		meter:     noop.NewMeterProvider().Meter("order"),
	}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.placed, err = s.meter.Int64Counter("teashop.orders.placed",
		metric.WithDescription("Orders placed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders placed counter")
	}
	if s.revenue, err = s.meter.Float64Counter("teashop.orders.revenue",
		metric.WithDescription("Revenue of placed orders"),
		metric.WithUnit("LKR"),
	); err != nil {
		return nil, errors.Wrap(err, "order revenue counter")
	}
	return s, nil
}

// List returns the orders matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrUnknownStatus
	}
	return s.orders.List(ctx, f)
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// PlaceOrder validates items, prices them from the catalogue, reserves stock,
// and persists a Pending order.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// Merge repeated products into one line.
	var (
		ids    []string
		merged = make(map[string]int, len(req.Items))
	)
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		if _, ok := merged[item.ProductID]; !ok {
			ids = append(ids, item.ProductID)
		}
		merged[item.ProductID] += item.Quantity
	}

	if req.CustomerID != "" {
		if _, err := s.customers.GetByID(ctx, req.CustomerID); err != nil {
			return nil, errors.Wrap(err, "get customer")
		}
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	now := s.now()
	o := &Order{
		ID:         uuid.New().String(),
		CustomerID: req.CustomerID,
		UserID:     req.UserID,
		Status:     StatusPending,
		Notes:      strings.TrimSpace(req.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	total := decimal.Zero
	for _, id := range ids {
		p, ok := productMap[id]
		if !ok || !p.IsActive {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		qty := merged[id]
		if qty > p.QuantityInStock {
			return nil, &product.InsufficientStockError{ProductID: id, Requested: qty, Available: p.QuantityInStock}
		}
		item := Item{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: id,
			Quantity:  qty,
			Price:     p.Price,
		}
		o.Items = append(o.Items, item)
		total = total.Add(item.LineTotal())
	}
	o.TotalAmount = total.Round(2)

	day := now.In(s.loc)
	seq, err := s.orders.NextSequence(ctx, day)
	if err != nil {
		return nil, errors.Wrap(err, "next order sequence")
	}
	o.OrderNumber = FormatNumber(day, seq)

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	attrs := metric.WithAttributes(attribute.Bool("storefront", req.UserID == ""))
	s.placed.Add(ctx, 1, attrs)
	s.revenue.Add(ctx, o.TotalAmount.InexactFloat64(), attrs)

	return o, nil
}

// UpdateStatus moves an order through its lifecycle. Cancelling an order
// returns its quantities to stock.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, ErrUnknownStatus
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(next) {
		return nil, &InvalidTransitionError{From: o.Status, To: next}
	}

	updated, err := s.orders.UpdateStatus(ctx, id, next, next == StatusCancelled, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "update order %s", id)
	}
	return updated, nil
}
