package product

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deniyaya/teashop/internal/domain/validation"
)

// --- Mock implementations ---

type mockRepo struct {
	byID        map[string]*Product
	adjustments []Adjustment
	createErr   error
}

func newMockRepo(products ...Product) *mockRepo {
	m := &mockRepo{byID: make(map[string]*Product)}
	for i := range products {
		m.byID[products[i].ID] = &products[i]
	}
	return m
}

func (m *mockRepo) List(_ context.Context) ([]Product, error) {
	out := make([]Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockRepo) ListAll(ctx context.Context) ([]Product, error) { return m.List(ctx) }

func (m *mockRepo) GetByID(_ context.Context, id string) (*Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByIDs(_ context.Context, _ []string) ([]Product, error) {
	return nil, nil
}

func (m *mockRepo) Create(_ context.Context, p *Product) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[p.ID] = p
	return nil
}

func (m *mockRepo) Update(_ context.Context, p *Product) error {
	m.byID[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) Adjust(_ context.Context, a *Adjustment) (*Product, error) {
	p, ok := m.byID[a.ProductID]
	if !ok {
		return nil, ErrNotFound
	}
	p.QuantityInStock = max(0, p.QuantityInStock+a.Delta)
	m.adjustments = append(m.adjustments, *a)
	cp := *p
	return &cp, nil
}

func (m *mockRepo) ListAdjustments(_ context.Context, _ string) ([]Adjustment, error) {
	return m.adjustments, nil
}

func validInput() Input {
	return Input{
		Name:            "Ceylon Black Tea Premium",
		Type:            BlackTea,
		Price:           decimal.NewFromInt(1250),
		QuantityInStock: 50,
		ReorderLevel:    10,
		IsActive:        true,
	}
}

// --- Tests ---

func TestCreate_DefaultsUnit(t *testing.T) {
	fixed := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	svc := NewService(newMockRepo())
	svc.now = func() time.Time { return fixed }

	p, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "g", p.Unit)
	assert.Equal(t, fixed, p.CreatedAt)
	assert.Equal(t, fixed, p.UpdatedAt)
}

func TestCreate_Validation(t *testing.T) {
	in := validInput()
	in.Name = "  "
	in.Type = "Coffee"
	in.Price = decimal.Zero
	in.QuantityInStock = -1
	in.ReorderLevel = -5

	_, err := NewService(newMockRepo()).Create(context.Background(), in)

	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 5)
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "type")
	assert.Contains(t, ve.Fields, "price")
}

func TestCreate_RepoError(t *testing.T) {
	repo := newMockRepo()
	repo.createErr = errors.New("db down")

	_, err := NewService(repo).Create(context.Background(), validInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create product")
}

func TestUpdate_NotFound(t *testing.T) {
	_, err := NewService(newMockRepo()).Update(context.Background(), "nope", validInput())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name    string
		stock   int
		delta   int
		want    int
		wantErr bool
	}{
		{name: "increase", stock: 8, delta: 20, want: 28},
		{name: "decrease", stock: 8, delta: -3, want: 5},
		{name: "decrease clamps at zero", stock: 4, delta: -10, want: 0},
		{name: "zero delta rejected", stock: 4, delta: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo(Product{ID: "1", Name: "Green Tea Supreme", QuantityInStock: tt.stock, ReorderLevel: 15})
			svc := NewService(repo)

			p, err := svc.Adjust(context.Background(), "1", AdjustInput{Delta: tt.delta, Reason: "stock count"})
			if tt.wantErr {
				var ve *validation.Error
				require.ErrorAs(t, err, &ve)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.QuantityInStock)
			require.Len(t, repo.adjustments, 1)
			assert.Equal(t, tt.delta, repo.adjustments[0].Delta)
		})
	}
}

func TestAdjust_ReasonRequired(t *testing.T) {
	svc := NewService(newMockRepo(Product{ID: "1"}))

	_, err := svc.Adjust(context.Background(), "1", AdjustInput{Delta: 1})

	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "reason")
}

func TestAdjust_UnknownProduct(t *testing.T) {
	_, err := NewService(newMockRepo()).Adjust(context.Background(), "x", AdjustInput{Delta: 1, Reason: "found"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestParseTeaType(t *testing.T) {
	tt, err := ParseTeaType("OolongTea")
	require.NoError(t, err)
	assert.Equal(t, OolongTea, tt)

	_, err = ParseTeaType("Espresso")
	assert.Error(t, err)
}
