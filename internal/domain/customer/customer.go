// Package customer holds storefront customer records.
package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested customer does not exist.
	ErrNotFound = errors.New("customer not found")
	// ErrEmailTaken is returned when another customer already uses the email.
	ErrEmailTaken = errors.New("email already registered")
)

// Customer is a shop customer. Order totals are derived from orders and
// never stored on the record.
type Customer struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Address      string
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
}

// Repository defines persistence operations for customers.
type Repository interface {
	List(ctx context.Context) ([]Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
}
