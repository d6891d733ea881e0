package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/readify/models"
)

type contextKey string

const SessionKey contextKey = "session"

// CookieName is the session cookie set on login and refreshed on each
// authenticated request.
const CookieName = "readify_session"

type Claims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Sessions signs and verifies session tokens.
type Sessions struct {
	Secret []byte
	TTL    time.Duration
	Secure bool // set the Secure cookie attribute
	Now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{Secret: []byte(secret), TTL: ttl, Secure: secure, Now: time.Now}
}

// Issue creates a signed token for user, valid for TTL.
func (s *Sessions) Issue(user *models.User) (string, *models.Session, error) {
	now := s.Now()
	sess := &models.Session{
		UserID:    user.ID,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		ExpiresAt: now.Add(s.TTL),
	}
	claims := &Claims{
		UserID:  sess.UserID,
		Email:   sess.Email,
		IsAdmin: sess.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", nil, err
	}
	return token, sess, nil
}

// Parse verifies token and returns the session it carries.
func (s *Sessions) Parse(token string) (*models.Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, errors.New("invalid session token")
	}
	return &models.Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		IsAdmin:   claims.IsAdmin,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SetCookie issues a token for user and stores it in the session cookie.
func (s *Sessions) SetCookie(w http.ResponseWriter, user *models.User) (*models.Session, error) {
	token, sess, err := s.Issue(user)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(s.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	return sess, nil
}

func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Session attaches the request's session, if any, to the context and slides
// the cookie expiry forward. Requests without a valid session pass through
// anonymously; use RequireSession to reject them.
func (s *Sessions) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, fromCookie := requestToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := s.Parse(token)
		if err != nil {
			if fromCookie {
				s.ClearCookie(w)
			}
			next.ServeHTTP(w, r)
			return
		}
		if fromCookie {
			refreshed, err := s.SetCookie(w, &models.User{ID: sess.UserID, Email: sess.Email, IsAdmin: sess.IsAdmin})
			if err == nil {
				sess = refreshed
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), SessionKey, sess)))
	})
}

func requestToken(r *http.Request) (token string, fromCookie bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1]), false
	}
	return "", false
}

// RequireSession rejects requests without a valid session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests without an administrator session.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !sess.IsAdmin {
			writeJSONError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*models.Session)
	return sess, ok && sess != nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
