package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/deniyaya/teashop/internal/domain/customer"
)

const issuer = "teashop"

// Claims is the JWT payload issued on sign-in.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind   `json:"kind"`
	Role Role   `json:"role,omitempty"`
	Name string `json:"name"`
}

// Config holds token settings.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Service signs users in and validates their tokens.
type Service struct {
	users     UserRepository
	customers customer.Repository
	revoked   RevocationStore
	cfg       Config
	now       func() time.Time
}

// NewService creates an auth Service.
func NewService(users UserRepository, customers customer.Repository, revoked RevocationStore, cfg Config) *Service {
	return &Service{
		users:     users,
		customers: customers,
		revoked:   revoked,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SignInStaff checks staff credentials and issues a token.
func (s *Service) SignInStaff(ctx context.Context, email, password string) (string, *Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Wrap(err, "get user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	return s.issue(Session{Subject: u.ID, Kind: KindStaff, Role: u.Role, Name: u.Name})
}

// SignInCustomer checks storefront credentials and issues a token.
func (s *Service) SignInCustomer(ctx context.Context, email, password string) (string, *Session, error) {
	c, err := s.customers.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Wrap(err, "get customer")
	}
	if c.PasswordHash == "" {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	return s.issue(Session{Subject: c.ID, Kind: KindCustomer, Name: c.Name})
}

func (s *Service) issue(sess Session) (string, *Session, error) {
	now := s.now()
	sess.TokenID = uuid.New().String()
	sess.ExpiresAt = now.Add(s.cfg.TTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.TokenID,
			Subject:   sess.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Kind: sess.Kind,
		Role: sess.Role,
		Name: sess.Name,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "sign token")
	}
	return token, &sess, nil
}

// Authenticate validates a bearer token and returns its session.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, errors.Wrap(err, "check revocation")
	}
	if revoked {
		return nil, ErrUnauthenticated
	}

	return &Session{
		TokenID:   claims.ID,
		Subject:   claims.Subject,
		Kind:      claims.Kind,
		Role:      claims.Role,
		Name:      claims.Name,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the session's token for the rest of its lifetime.
func (s *Service) SignOut(ctx context.Context, sess *Session) error {
	if err := s.revoked.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return errors.Wrap(err, "revoke token")
	}
	return nil
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
