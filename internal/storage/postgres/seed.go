package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/storage/dataset"
)

const (
	seedProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, tea_type = EXCLUDED.tea_type, description = EXCLUDED.description,
			price = EXCLUDED.price, quantity_in_stock = EXCLUDED.quantity_in_stock,
			reorder_level = EXCLUDED.reorder_level, unit = EXCLUDED.unit, image_url = EXCLUDED.image_url,
			is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`

	seedCustomerSQL = `INSERT INTO customers (` + customerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING`

	seedUserSQL = `INSERT INTO users (id, email, name, role, password_hash) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name,
			role = EXCLUDED.role, password_hash = EXCLUDED.password_hash`

	seedFeedbackSQL = `INSERT INTO feedback (id, customer_id, product_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`
)

// SeedStats counts the records written by Seed.
type SeedStats struct {
	Products  int
	Customers int
	Users     int
	Orders    int
	Feedback  int
}

// Seed writes ds in one transaction. Products and users are upserted; other
// records that already exist are left alone, so Seed can be re-run.
func Seed(ctx context.Context, pool *pgxpool.Pool, ds *dataset.Dataset) (SeedStats, error) {
	var stats SeedStats
	err := inTx(ctx, pool, func(tx pgx.Tx) error {
		for _, p := range ds.Products {
			if _, err := tx.Exec(ctx, seedProductSQL,
				p.ID, p.Name, p.Type, p.Description, p.Price, p.QuantityInStock, p.ReorderLevel,
				p.Unit, p.ImageURL, p.IsActive, p.CreatedAt, p.UpdatedAt,
			); err != nil {
				return fmt.Errorf("seeding product %q: %w", p.ID, err)
			}
			stats.Products++
		}
		for _, c := range ds.Customers {
			tag, err := tx.Exec(ctx, seedCustomerSQL, c.ID, c.Name, c.Email, c.Phone, c.Address, c.PasswordHash, c.CreatedAt)
			if err != nil {
				return fmt.Errorf("seeding customer %q: %w", c.ID, err)
			}
			stats.Customers += int(tag.RowsAffected())
		}
		for _, u := range ds.Users {
			if _, err := tx.Exec(ctx, seedUserSQL, u.ID, u.Email, u.Name, u.Role, u.PasswordHash); err != nil {
				return fmt.Errorf("seeding user %q: %w", u.ID, err)
			}
			stats.Users++
		}
		for i := range ds.Orders {
			o := &ds.Orders[i]
			var exists bool
			if err := tx.QueryRow(ctx, orderExistsSQL, o.OrderNumber).Scan(&exists); err != nil {
				return fmt.Errorf("checking order %q: %w", o.OrderNumber, err)
			}
			if exists {
				continue
			}
			if err := insertOrder(ctx, tx, o); err != nil {
				return err
			}
			if day, seq, ok := order.ParseNumber(o.OrderNumber); ok {
				if _, err := tx.Exec(ctx, bumpSequenceSQL, day, seq); err != nil {
					return fmt.Errorf("bumping order sequence: %w", err)
				}
			}
			stats.Orders++
		}
		for _, f := range ds.Feedback {
			tag, err := tx.Exec(ctx, seedFeedbackSQL, f.ID, f.CustomerID, f.ProductID, f.Rating, f.Comment, f.CreatedAt)
			if err != nil {
				return fmt.Errorf("seeding feedback %q: %w", f.ID, err)
			}
			stats.Feedback += int(tag.RowsAffected())
		}
		return nil
	})
	return stats, err
}
