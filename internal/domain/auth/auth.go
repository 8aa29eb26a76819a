// Package auth authenticates staff and storefront customers and carries the
// resulting session through request contexts.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrUserNotFound       = errors.New("user not found")
)

// Role is a staff permission level.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleStaff   Role = "Staff"
)

// CanManage reports whether the role may change catalogue, order and
// customer data.
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleManager
}

// Kind tells staff sessions apart from storefront customer sessions.
type Kind string

const (
	KindStaff    Kind = "staff"
	KindCustomer Kind = "customer"
)

// User is a back-office staff account.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
}

// UserRepository provides lookup of staff accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// RevocationStore remembers signed-out tokens until they would have expired.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Session is the authenticated identity attached to a request.
type Session struct {
	TokenID   string
	Subject   string
	Kind      Kind
	Role      Role
	Name      string
	ExpiresAt time.Time
}

// IsStaff reports whether the session belongs to a staff member.
func (s *Session) IsStaff() bool { return s.Kind == KindStaff }

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored in ctx, if any.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
