package feedback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deniyaya/teashop/internal/domain/product"
	"github.com/deniyaya/teashop/internal/domain/validation"
)

type mockRepo struct {
	items []Feedback
}

func (m *mockRepo) Create(_ context.Context, f *Feedback) error {
	m.items = append(m.items, *f)
	return nil
}

func (m *mockRepo) ListByCustomer(_ context.Context, customerID string) ([]Feedback, error) {
	var out []Feedback
	for _, f := range m.items {
		if f.CustomerID == customerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockRepo) Exists(_ context.Context, customerID, productID string) (bool, error) {
	for _, f := range m.items {
		if f.CustomerID == customerID && f.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

// productLookup satisfies product.Repository with only GetByID wired.
type productLookup struct {
	product.Repository
	ids map[string]bool
}

func (p productLookup) GetByID(_ context.Context, id string) (*product.Product, error) {
	if !p.ids[id] {
		return nil, product.ErrNotFound
	}
	return &product.Product{ID: id}, nil
}

func newTestService(existing ...Feedback) (*Service, *mockRepo) {
	repo := &mockRepo{items: existing}
	return NewService(repo, productLookup{ids: map[string]bool{"1": true, "2": true}}), repo
}

func TestSubmit(t *testing.T) {
	svc, repo := newTestService()

	f, err := svc.Submit(context.Background(), SubmitRequest{
		CustomerID: "c1",
		ProductID:  "1",
		Rating:     5,
		Comment:    " Excellent quality tea! ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Excellent quality tea!", f.Comment)
	assert.Len(t, repo.items, 1)
}

func TestSubmit_RatingBounds(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		svc, _ := newTestService()
		_, err := svc.Submit(context.Background(), SubmitRequest{CustomerID: "c1", ProductID: "1", Rating: rating})

		var ve *validation.Error
		require.ErrorAs(t, err, &ve, "rating %d", rating)
		assert.Contains(t, ve.Fields, "rating")
	}
}

func TestSubmit_UnknownProduct(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Submit(context.Background(), SubmitRequest{CustomerID: "c1", ProductID: "99", Rating: 4})
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestSubmit_OncePerProduct(t *testing.T) {
	svc, _ := newTestService(Feedback{ID: "1", CustomerID: "c1", ProductID: "2", Rating: 4})

	_, err := svc.Submit(context.Background(), SubmitRequest{CustomerID: "c1", ProductID: "2", Rating: 5})
	require.ErrorIs(t, err, ErrAlreadyReviewed)

	// Another customer may still review it.
	_, err = svc.Submit(context.Background(), SubmitRequest{CustomerID: "c2", ProductID: "2", Rating: 5})
	require.NoError(t, err)
}

func TestHasReviewed_MatchesProductNotReviewID(t *testing.T) {
	// Review "1" is for product "2"; product "1" has not been reviewed.
	svc, _ := newTestService(Feedback{ID: "1", CustomerID: "c1", ProductID: "2", Rating: 4})

	ok, err := svc.HasReviewed(context.Background(), "c1", "1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasReviewed(context.Background(), "c1", "2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReviewedProducts(t *testing.T) {
	svc, _ := newTestService(
		Feedback{ID: "1", CustomerID: "c1", ProductID: "2", Rating: 4},
		Feedback{ID: "2", CustomerID: "c2", ProductID: "1", Rating: 5},
	)

	reviewed, err := svc.ReviewedProducts(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"2": true}, reviewed)

	reviewed, err = svc.ReviewedProducts(context.Background(), "c3")
	require.NoError(t, err)
	assert.Empty(t, reviewed)
}
