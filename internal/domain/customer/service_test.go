package customer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deniyaya/teashop/internal/domain/validation"
)

type mockRepo struct {
	byID map[string]*Customer
}

func newMockRepo(cs ...Customer) *mockRepo {
	m := &mockRepo{byID: make(map[string]*Customer)}
	for i := range cs {
		m.byID[cs[i].ID] = &cs[i]
	}
	return m
}

func (m *mockRepo) List(_ context.Context) ([]Customer, error) { return nil, nil }

func (m *mockRepo) GetByID(_ context.Context, id string) (*Customer, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Customer, error) {
	for _, c := range m.byID {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Create(_ context.Context, c *Customer) error {
	m.byID[c.ID] = c
	return nil
}

func TestCreate_NormalizesAndHashes(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	c, err := svc.Create(context.Background(), Input{
		Name:     " Saman Perera ",
		Email:    "Saman@Email.com",
		Phone:    "+94771234567",
		Password: "customer123",
	})
	require.NoError(t, err)

	assert.Equal(t, "Saman Perera", c.Name)
	assert.Equal(t, "saman@email.com", c.Email)
	require.NotEmpty(t, c.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte("customer123")))
	assert.Contains(t, repo.byID, c.ID)
}

func TestCreate_WithoutPassword(t *testing.T) {
	c, err := NewService(newMockRepo()).Create(context.Background(), Input{Name: "Kumari Silva", Email: "kumari@email.com"})
	require.NoError(t, err)
	assert.Empty(t, c.PasswordHash)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc := NewService(newMockRepo(Customer{ID: "1", Email: "saman@email.com"}))

	_, err := svc.Create(context.Background(), Input{Name: "Saman", Email: "saman@email.com"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{name: "missing name", in: Input{Email: "a@b.lk"}, field: "name"},
		{name: "missing email", in: Input{Name: "A"}, field: "email"},
		{name: "bad email", in: Input{Name: "A", Email: "not-an-email"}, field: "email"},
		{name: "short password", in: Input{Name: "A", Email: "a@b.lk", Password: "123"}, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(newMockRepo()).Create(context.Background(), tt.in)

			var ve *validation.Error
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}
