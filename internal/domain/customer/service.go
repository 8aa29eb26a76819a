package customer

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/deniyaya/teashop/internal/domain/validation"
)

const minPasswordLen = 6

// Input holds the fields accepted when registering a customer. Password is
// optional; customers without one cannot sign in to the storefront.
type Input struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
}

// Service encapsulates customer registration and lookup.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a customer Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns all customers.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	return s.repo.List(ctx)
}

// Get returns a single customer.
func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in and registers a new customer.
func (s *Service) Create(ctx context.Context, in Input) (*Customer, error) {
	var v validation.Error
	name := strings.TrimSpace(in.Name)
	if name == "" {
		v.Add("name", "is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		v.Add("email", "is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		v.Add("email", "is not a valid address")
	}
	if in.Password != "" && len(in.Password) < minPasswordLen {
		v.Add("password", "must be at least 6 characters")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check email")
	}

	c := &Customer{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: s.now(),
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
		c.PasswordHash = string(hash)
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create customer")
	}
	return c, nil
}
