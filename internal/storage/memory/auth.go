package memory

import (
	"context"
	"strings"
	"time"

	"github.com/deniyaya/teashop/internal/domain/auth"
)

var (
	_ auth.UserRepository  = (*UserRepository)(nil)
	_ auth.RevocationStore = (*RevocationList)(nil)
)

// UserRepository implements auth.UserRepository on a Store.
type UserRepository struct {
	s *Store
}

// NewUserRepository returns a UserRepository over s.
func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

// RevocationList keeps revoked token ids until they would have expired.
type RevocationList struct {
	s   *Store
	now func() time.Time
}

// NewRevocationList returns a RevocationList over s.
func NewRevocationList(s *Store) *RevocationList {
	return &RevocationList{s: s, now: time.Now}
}

func (l *RevocationList) Revoke(_ context.Context, tokenID string, until time.Time) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	now := l.now()
	for id, exp := range l.s.revoked {
		if !exp.After(now) {
			delete(l.s.revoked, id)
		}
	}
	if until.After(now) {
		l.s.revoked[tokenID] = until
	}
	return nil
}

func (l *RevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	exp, ok := l.s.revoked[tokenID]
	return ok && exp.After(l.now()), nil
}
