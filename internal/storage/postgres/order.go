package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deniyaya/teashop/internal/domain/order"
	"github.com/deniyaya/teashop/internal/domain/product"
)

const (
	orderColumns = `id, order_number, COALESCE(customer_id, ''), COALESCE(user_id, ''), status,
		total_amount, notes, created_at, updated_at`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR customer_id = $2)
		ORDER BY created_at DESC, id`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	getOrderByNumberSQL = `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	listOrderNumbersSQL = `SELECT order_number FROM orders`

	listOrderItemsSQL = `SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`

	insertOrderSQL = `INSERT INTO orders (id, order_number, customer_id, user_id, status, total_amount, notes, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9)`

	takeStockSQL = `UPDATE products SET quantity_in_stock = quantity_in_stock - $2, updated_at = $3
		WHERE id = $1 AND quantity_in_stock >= $2 AND deleted_at IS NULL`

	stockOnHandSQL = `SELECT quantity_in_stock FROM products WHERE id = $1 AND deleted_at IS NULL`

	nextSequenceSQL = `INSERT INTO order_sequences (day, last) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last = order_sequences.last + 1
		RETURNING last`

	bumpSequenceSQL = `INSERT INTO order_sequences (day, last) VALUES ($1, $2)
		ON CONFLICT (day) DO UPDATE SET last = GREATEST(order_sequences.last, EXCLUDED.last)`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
		RETURNING ` + orderColumns

	restockSQL = `UPDATE products p SET quantity_in_stock = p.quantity_in_stock + i.quantity, updated_at = $2
		FROM order_items i WHERE i.order_id = $1 AND i.product_id = p.id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// List returns matching orders with their items, newest first.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, string(f.Status), f.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if err := r.attachItems(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByIDSQL, id)
}

func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByNumberSQL, number)
}

func (r *OrderRepository) getOne(ctx context.Context, query, arg string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", arg, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", arg, err)
	}
	orders := []order.Order{o}
	if err := r.attachItems(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepository) ListNumbers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listOrderNumbersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing order numbers: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *OrderRepository) NextSequence(ctx context.Context, day time.Time) (int, error) {
	var seq int
	if err := r.pool.QueryRow(ctx, nextSequenceSQL, dateOf(day)).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next order sequence: %w", err)
	}
	return seq, nil
}

// Create takes stock for every line and stores the order in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, it := range o.Items {
			tag, err := tx.Exec(ctx, takeStockSQL, it.ProductID, it.Quantity, o.CreatedAt)
			if err != nil {
				return fmt.Errorf("taking stock for %q: %w", it.ProductID, err)
			}
			if tag.RowsAffected() == 1 {
				continue
			}
			var available int
			if err := tx.QueryRow(ctx, stockOnHandSQL, it.ProductID).Scan(&available); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return &order.ProductNotFoundError{ProductID: it.ProductID}
				}
				return fmt.Errorf("reading stock for %q: %w", it.ProductID, err)
			}
			return &product.InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity, Available: available}
		}
		return insertOrder(ctx, tx, o)
	})
}

// Import stores a historical order and keeps the day's sequence ahead of its
// number.
func (r *OrderRepository) Import(ctx context.Context, o *order.Order) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertOrder(ctx, tx, o); err != nil {
			return err
		}
		if day, seq, ok := order.ParseNumber(o.OrderNumber); ok {
			if _, err := tx.Exec(ctx, bumpSequenceSQL, day, seq); err != nil {
				return fmt.Errorf("bumping order sequence: %w", err)
			}
		}
		return nil
	})
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status, restock bool, at time.Time) (*order.Order, error) {
	var out order.Order
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, updateOrderStatusSQL, id, status, at)
		if err != nil {
			return fmt.Errorf("updating order %q: %w", id, err)
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanOrder)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			return fmt.Errorf("updating order %q: %w", id, err)
		}
		if restock {
			if _, err := tx.Exec(ctx, restockSQL, id, at); err != nil {
				return fmt.Errorf("restocking order %q: %w", id, err)
			}
		}
		orders := []order.Order{out}
		if err := r.attachItems(ctx, tx, orders); err != nil {
			return err
		}
		out = orders[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *OrderRepository) attachItems(ctx context.Context, q querier, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = i
	}
	rows, err := q.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price)
		return it, err
	})
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	for _, it := range items {
		o := &orders[byID[it.OrderID]]
		o.Items = append(o.Items, it)
	}
	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	_, err := tx.Exec(ctx, insertOrderSQL,
		o.ID, o.OrderNumber, o.CustomerID, o.UserID, o.Status, o.TotalAmount, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrNumberConflict
		}
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"id", "order_id", "product_id", "quantity", "price"},
		pgx.CopyFromSlice(len(o.Items), func(i int) ([]any, error) {
			it := o.Items[i]
			return []any{it.ID, o.ID, it.ProductID, it.Quantity, it.Price}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("creating items for order %q: %w", o.ID, err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.UserID, &o.Status,
		&o.TotalAmount, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
