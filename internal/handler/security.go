package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/deniyaya/teashop/internal/domain/auth"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token     string    `json:"token"`
	Kind      auth.Kind `json:"kind"`
	Role      auth.Role `json:"role,omitempty"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, kind auth.Kind) {
	var req signInRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		token string
		sess  *auth.Session
		err   error
	)
	if kind == auth.KindStaff {
		token, sess, err = h.auth.SignInStaff(r.Context(), req.Email, req.Password)
	} else {
		token, sess, err = h.auth.SignInCustomer(r.Context(), req.Email, req.Password)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, signInResponse{
		Token:     token,
		Kind:      sess.Kind,
		Role:      sess.Role,
		Name:      sess.Name,
		ExpiresAt: sess.ExpiresAt,
	})
}

// SignInStaff handles POST /auth/staff/signin.
func (h *Handler) SignInStaff(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, auth.KindStaff)
}

// SignInCustomer handles POST /auth/customer/signin.
func (h *Handler) SignInCustomer(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, auth.KindCustomer)
}

// SignOut handles POST /auth/signout.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFrom(r.Context())
	if err := h.auth.SignOut(r.Context(), sess); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authenticate resolves the bearer token into a session.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, r, auth.ErrUnauthenticated)
			return
		}
		sess, err := h.auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

func requireSession(allow func(*auth.Session) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := auth.SessionFrom(r.Context())
			if !ok {
				writeError(w, r, auth.ErrUnauthenticated)
				return
			}
			if !allow(sess) {
				writeError(w, r, auth.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var (
	requireStaff    = requireSession(func(s *auth.Session) bool { return s.IsStaff() })
	requireManager  = requireSession(func(s *auth.Session) bool { return s.IsStaff() && s.Role.CanManage() })
	requireCustomer = requireSession(func(s *auth.Session) bool { return s.Kind == auth.KindCustomer })
)

// session returns the authenticated session; routes using it sit behind
// authenticate.
func session(r *http.Request) *auth.Session {
	sess, _ := auth.SessionFrom(r.Context())
	return sess
}
