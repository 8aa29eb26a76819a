package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deniyaya/teashop/internal/domain/feedback"
)

const (
	createFeedbackSQL = `INSERT INTO feedback (id, customer_id, product_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	listFeedbackByCustomerSQL = `SELECT id, customer_id, product_id, rating, comment, created_at
		FROM feedback WHERE customer_id = $1 ORDER BY created_at DESC, id`

	feedbackExistsSQL = `SELECT EXISTS (SELECT 1 FROM feedback WHERE customer_id = $1 AND product_id = $2)`
)

var _ feedback.Repository = (*FeedbackRepository)(nil)

// FeedbackRepository implements feedback.Repository backed by PostgreSQL.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository returns a FeedbackRepository that uses the given pool.
func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

func (r *FeedbackRepository) Create(ctx context.Context, f *feedback.Feedback) error {
	_, err := r.pool.Exec(ctx, createFeedbackSQL, f.ID, f.CustomerID, f.ProductID, f.Rating, f.Comment, f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return feedback.ErrAlreadyReviewed
		}
		return fmt.Errorf("creating feedback %q: %w", f.ID, err)
	}
	return nil
}

func (r *FeedbackRepository) ListByCustomer(ctx context.Context, customerID string) ([]feedback.Feedback, error) {
	rows, err := r.pool.Query(ctx, listFeedbackByCustomerSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (feedback.Feedback, error) {
		var f feedback.Feedback
		err := row.Scan(&f.ID, &f.CustomerID, &f.ProductID, &f.Rating, &f.Comment, &f.CreatedAt)
		return f, err
	})
}

func (r *FeedbackRepository) Exists(ctx context.Context, customerID, productID string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, feedbackExistsSQL, customerID, productID).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking feedback: %w", err)
	}
	return ok, nil
}
