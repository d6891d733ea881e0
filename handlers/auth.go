package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/middleware"
	"github.com/kevinaaaquil/readify/models"
	"github.com/kevinaaaquil/readify/store"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type AuthHandler struct {
	DB       *store.DB
	Sessions *middleware.Sessions
	// AdminEmail is the one account that is created as administrator on its
	// first login instead of through signup.
	AdminEmail string
	Log        logging.Logger
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	User      *models.User `json:"user"`
	ExpiresAt string       `json:"expiresAt,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeErrorMsg(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := h.DB.UserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if user == nil && h.AdminEmail != "" && req.Email == h.AdminEmail {
		user, err = h.bootstrapAdmin(r, req.Password)
		if err != nil {
			writeError(w, r, h.Log, err)
			return
		}
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	h.startSession(w, r, http.StatusOK, user)
}

// bootstrapAdmin creates the administrator with the password of its first
// login. If a concurrent login created it first, that record is returned.
func (h *AuthHandler) bootstrapAdmin(r *http.Request, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := &models.User{Email: h.AdminEmail, Password: string(hash), IsAdmin: true}
	err = h.DB.CreateUser(r.Context(), admin)
	if errors.Is(err, store.ErrEmailTaken) {
		return h.DB.UserByEmail(r.Context(), h.AdminEmail)
	}
	if err != nil {
		return nil, err
	}
	h.Log.Info(r.Context(), "administrator account created", "email", admin.Email)
	return admin, nil
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeErrorMsg(w, http.StatusBadRequest, "valid email required")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeErrorMsg(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.Email == h.AdminEmail {
		writeErrorMsg(w, http.StatusForbidden, "this account is created by signing in")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	user := &models.User{Email: req.Email, Password: string(hash)}
	if err := h.DB.CreateUser(r.Context(), user); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.startSession(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the signed-in user, or 401.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, apperr.ErrAuth)
		return
	}
	user, err := h.DB.UserByID(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if user == nil {
		h.Sessions.ClearCookie(w)
		writeError(w, r, h.Log, apperr.ErrAuth)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: user, ExpiresAt: sess.ExpiresAt.UTC().Format(timeFormat)})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	sess, err := h.Sessions.SetCookie(w, user)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, status, SessionResponse{User: user, ExpiresAt: sess.ExpiresAt.UTC().Format(timeFormat)})
}
