package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deniyaya/teashop/internal/domain/product"
)

const (
	productColumns = `id, name, tea_type, description, price, quantity_in_stock, reorder_level,
		unit, image_url, is_active, created_at, updated_at`

	selectProductColumns = productColumns + `, deleted_at`

	listProductsSQL = `SELECT ` + selectProductColumns + ` FROM products WHERE deleted_at IS NULL ORDER BY created_at, id`

	listAllProductsSQL = `SELECT ` + selectProductColumns + ` FROM products ORDER BY created_at, id`

	getProductByIDSQL = `SELECT ` + selectProductColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL`

	getProductsByIDsSQL = `SELECT ` + selectProductColumns + ` FROM products
		WHERE id = ANY($1) AND deleted_at IS NULL ORDER BY created_at, id`

	createProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	updateProductSQL = `UPDATE products SET name = $2, tea_type = $3, description = $4, price = $5,
		quantity_in_stock = $6, reorder_level = $7, unit = $8, image_url = $9, is_active = $10, updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL`

	deleteProductSQL = `UPDATE products SET deleted_at = now(), is_active = FALSE, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	adjustStockSQL = `UPDATE products SET quantity_in_stock = GREATEST(quantity_in_stock + $2, 0), updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL RETURNING ` + selectProductColumns

	insertAdjustmentSQL = `INSERT INTO stock_adjustments (id, product_id, delta, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	listAdjustmentsSQL = `SELECT id, product_id, delta, reason, created_at
		FROM stock_adjustments WHERE product_id = $1 ORDER BY created_at DESC, id`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the catalogue in creation order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListAll returns every product, deleted ones included, in creation order.
func (r *ProductRepository) ListAll(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listAllProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing all products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL,
		p.ID, p.Name, p.Type, p.Description, p.Price, p.QuantityInStock, p.ReorderLevel,
		p.Unit, p.ImageURL, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Type, p.Description, p.Price, p.QuantityInStock, p.ReorderLevel,
		p.Unit, p.ImageURL, p.IsActive, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete soft-deletes the product so order lines keep pointing at it.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Adjust changes stock and records the adjustment in one transaction.
func (r *ProductRepository) Adjust(ctx context.Context, a *product.Adjustment) (*product.Product, error) {
	var out product.Product
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, adjustStockSQL, a.ProductID, a.Delta, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("adjusting stock: %w", err)
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanProduct)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return product.ErrNotFound
			}
			return fmt.Errorf("adjusting stock: %w", err)
		}
		if _, err := tx.Exec(ctx, insertAdjustmentSQL, a.ID, a.ProductID, a.Delta, a.Reason, a.CreatedAt); err != nil {
			return fmt.Errorf("recording adjustment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAdjustments returns the product's adjustments, newest first.
func (r *ProductRepository) ListAdjustments(ctx context.Context, productID string) ([]product.Adjustment, error) {
	rows, err := r.pool.Query(ctx, listAdjustmentsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing adjustments: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Adjustment, error) {
		var a product.Adjustment
		err := row.Scan(&a.ID, &a.ProductID, &a.Delta, &a.Reason, &a.CreatedAt)
		return a, err
	})
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Type, &p.Description, &p.Price, &p.QuantityInStock, &p.ReorderLevel,
		&p.Unit, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	return p, err
}
