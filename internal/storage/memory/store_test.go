package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deniyaya/teashop/internal/domain/auth"
	"github.com/deniyaya/teashop/internal/domain/customer"
	"github.com/deniyaya/teashop/internal/domain/feedback"
	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
	"github.com/deniyaya/teashop/internal/storage/dataset"
)

func newDemoStore(t *testing.T) *Store {
	t.Helper()
	ds, err := dataset.Demo(bcrypt.MinCost)
	require.NoError(t, err)
	return NewFromDataset(ds)
}

func newOrder(productID string, qty int) *order.Order {
	now := time.Now()
	id := uuid.New().String()
	return &order.Order{
		ID:          id,
		OrderNumber: "DTN-" + id,
		Status:      order.StatusPending,
		TotalAmount: decimal.NewFromInt(100),
		Items:       []order.Item{{ID: uuid.New().String(), OrderID: id, ProductID: productID, Quantity: qty, Price: decimal.NewFromInt(100)}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newDemoStore(t))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)

	p, err := repo.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Green Tea Supreme", p.Name)

	// Mutating a returned value must not leak into the store.
	p.QuantityInStock = 999
	again, err := repo.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 8, again.QuantityInStock)

	got, err := repo.GetByIDs(ctx, []string{"1", "6", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, product.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "missing"), product.ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, &product.Product{ID: "missing"}), product.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "6"))
	all, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestProductRepository_DeleteKeepsHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newDemoStore(t))

	_, err := repo.Adjust(ctx, &product.Adjustment{ID: "a1", ProductID: "1", Delta: 5, Reason: "Delivery", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "1"))
	require.ErrorIs(t, repo.Delete(ctx, "1"), product.ErrNotFound)

	_, err = repo.GetByID(ctx, "1")
	require.ErrorIs(t, err, product.ErrNotFound)
	got, err := repo.GetByIDs(ctx, []string{"1", "2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	_, err = repo.Adjust(ctx, &product.Adjustment{ProductID: "1", Delta: 1})
	require.ErrorIs(t, err, product.ErrNotFound)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "1", all[0].ID)
	assert.NotNil(t, all[0].DeletedAt)
	assert.False(t, all[0].IsActive)

	adjustments, err := repo.ListAdjustments(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, adjustments, 1)
}

func TestProductRepository_Adjust(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newDemoStore(t))
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	p, err := repo.Adjust(ctx, &product.Adjustment{ID: "a1", ProductID: "2", Delta: 20, Reason: "Delivery", CreatedAt: at})
	require.NoError(t, err)
	assert.Equal(t, 28, p.QuantityInStock)
	assert.Equal(t, at, p.UpdatedAt)

	p, err = repo.Adjust(ctx, &product.Adjustment{ID: "a2", ProductID: "2", Delta: -100, Reason: "Spoiled", CreatedAt: at.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 0, p.QuantityInStock)

	adjustments, err := repo.ListAdjustments(ctx, "2")
	require.NoError(t, err)
	require.Len(t, adjustments, 2)
	assert.Equal(t, "a2", adjustments[0].ID)

	_, err = repo.Adjust(ctx, &product.Adjustment{ProductID: "missing", Delta: 1})
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestCustomerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository(newDemoStore(t))

	c, err := repo.GetByEmail(ctx, "SAMAN.PERERA@email.com")
	require.NoError(t, err)
	assert.Equal(t, "1", c.ID)

	err = repo.Create(ctx, &customer.Customer{ID: "x", Name: "Dup", Email: "saman.perera@email.com"})
	require.ErrorIs(t, err, customer.ErrEmailTaken)

	require.NoError(t, repo.Create(ctx, &customer.Customer{ID: "x", Name: "Nadeesha", Email: "nadeesha@email.com"}))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, customer.ErrNotFound)
}

func TestOrderRepository_CreateTakesStock(t *testing.T) {
	ctx := context.Background()
	s := newDemoStore(t)
	orders := NewOrderRepository(s)
	products := NewProductRepository(s)

	o := newOrder("6", 3)
	require.NoError(t, orders.Create(ctx, o))

	p, err := products.GetByID(ctx, "6")
	require.NoError(t, err)
	assert.Equal(t, 1, p.QuantityInStock)

	err = orders.Create(ctx, newOrder("6", 2))
	var stockErr *product.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)

	p, err = products.GetByID(ctx, "6")
	require.NoError(t, err)
	assert.Equal(t, 1, p.QuantityInStock)

	dup := newOrder("1", 1)
	dup.OrderNumber = o.OrderNumber
	require.ErrorIs(t, orders.Create(ctx, dup), order.ErrNumberConflict)
}

func TestOrderRepository_CreateIsAtomicPerOrder(t *testing.T) {
	ctx := context.Background()
	s := newDemoStore(t)
	orders := NewOrderRepository(s)
	products := NewProductRepository(s)

	o := newOrder("1", 1)
	o.Items = append(o.Items, order.Item{ID: "second", OrderID: o.ID, ProductID: "6", Quantity: 50, Price: decimal.NewFromInt(1)})

	err := orders.Create(ctx, o)
	var stockErr *product.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	p, err := products.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 45, p.QuantityInStock)
}

func TestOrderRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := newDemoStore(t)
	orders := NewOrderRepository(s)

	var (
		wg      sync.WaitGroup
		placed  atomic.Int32
		refused atomic.Int32
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := orders.Create(ctx, newOrder("6", 1)); err != nil {
				refused.Add(1)
				return
			}
			placed.Add(1)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 4, placed.Load())
	assert.EqualValues(t, 6, refused.Load())
}

func TestOrderRepository_Sequence(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepository(newDemoStore(t))

	seq, err := orders.NextSequence(ctx, time.Date(2024, 2, 3, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 4, seq)

	seq, err = orders.NextSequence(ctx, time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	imported := newOrder("1", 1)
	imported.OrderNumber = "DTN-20240204-010"
	require.NoError(t, orders.Import(ctx, imported))

	seq, err = orders.NextSequence(ctx, time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 11, seq)

	require.ErrorIs(t, orders.Import(ctx, imported), order.ErrNumberConflict)
}

func TestOrderRepository_ListAndStatus(t *testing.T) {
	ctx := context.Background()
	s := newDemoStore(t)
	orders := NewOrderRepository(s)
	products := NewProductRepository(s)

	all, err := orders.List(ctx, order.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "DTN-20240203-003", all[0].OrderNumber)

	pending, err := orders.List(ctx, order.Filter{Status: order.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	mine, err := orders.List(ctx, order.Filter{CustomerID: "2"})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	at := time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC)
	updated, err := orders.UpdateStatus(ctx, "3", order.StatusCancelled, true, at)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, updated.Status)
	assert.Equal(t, at, updated.UpdatedAt)

	p, err := products.GetByID(ctx, "6")
	require.NoError(t, err)
	assert.Equal(t, 5, p.QuantityInStock)

	_, err = orders.UpdateStatus(ctx, "missing", order.StatusCompleted, false, at)
	require.ErrorIs(t, err, order.ErrNotFound)

	numbers, err := orders.ListNumbers(ctx)
	require.NoError(t, err)
	assert.Len(t, numbers, 3)

	byNumber, err := orders.GetByNumber(ctx, "DTN-20240203-002")
	require.NoError(t, err)
	assert.Equal(t, "2", byNumber.ID)
}

func TestFeedbackRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedbackRepository(newDemoStore(t))

	ok, err := repo.Exists(ctx, "1", "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, "1", "2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.ErrorIs(t, repo.Create(ctx, &feedback.Feedback{ID: "x", CustomerID: "1", ProductID: "1", Rating: 3}), feedback.ErrAlreadyReviewed)
	require.NoError(t, repo.Create(ctx, &feedback.Feedback{ID: "y", CustomerID: "1", ProductID: "2", Rating: 3}))

	list, err := repo.ListByCustomer(ctx, "1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "y", list[0].ID)
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(newDemoStore(t))

	u, err := repo.GetByEmail(context.Background(), "admin@deniyaya.com")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, u.Role)

	_, err = repo.GetByEmail(context.Background(), "nobody@deniyaya.com")
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestRevocationList(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	l := NewRevocationList(New())
	l.now = func() time.Time { return now }

	require.NoError(t, l.Revoke(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, l.Revoke(ctx, "stale", now.Add(-time.Hour)))

	revoked, err := l.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = l.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, err = l.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.False(t, revoked)
}
