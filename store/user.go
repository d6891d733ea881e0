package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/readify/apperr"
	"github.com/kevinaaaquil/readify/models"
)

var (
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", apperr.ErrValidation)
	ErrUsernameTaken = fmt.Errorf("%w: username already taken", apperr.ErrValidation)
	ErrUsernameSet   = fmt.Errorf("%w: username cannot be changed once set", apperr.ErrValidation)
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	key := userEmailKey(strings.ToLower(email))
	var u models.User
	ok, err := db.kv.Get(ctx, key, &u)
	if err != nil {
		return nil, apperr.Storage("get", key, err)
	}
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (db *DB) UserByID(ctx context.Context, id string) (*models.User, error) {
	key := userIDKey(id)
	var u models.User
	ok, err := db.kv.Get(ctx, key, &u)
	if err != nil {
		return nil, apperr.Storage("get", key, err)
	}
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// CreateUser stores a new user, assigning its ID and creation time. The email
// key is claimed first so two signups for one address cannot both succeed.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || user.Password == "" {
		return apperr.Validation("email and password required")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = db.now()
	}
	key := userEmailKey(user.Email)
	ok, err := db.kv.SetNX(ctx, key, user)
	if err != nil {
		return apperr.Storage("setnx", key, err)
	}
	if !ok {
		return ErrEmailTaken
	}
	if err := db.kv.Set(ctx, userIDKey(user.ID), user); err != nil {
		return apperr.Storage("set", userIDKey(user.ID), err)
	}
	if err := db.kv.LPush(ctx, usersKey, user.ID); err != nil {
		return apperr.Storage("lpush", usersKey, err)
	}
	return nil
}

func (db *DB) saveUser(ctx context.Context, user *models.User) error {
	if err := db.kv.Set(ctx, userEmailKey(user.Email), user); err != nil {
		return apperr.Storage("set", userEmailKey(user.Email), err)
	}
	if err := db.kv.Set(ctx, userIDKey(user.ID), user); err != nil {
		return apperr.Storage("set", userIDKey(user.ID), err)
	}
	return nil
}

func (db *DB) sessionUser(ctx context.Context, sess *models.Session) (*models.User, error) {
	if !sess.Valid(db.now()) {
		return nil, apperr.ErrAuth
	}
	user, err := db.UserByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user", sess.UserID)
	}
	return user, nil
}

// SetUsername sets the session user's username. Usernames are unique and can
// be set only once.
func (db *DB) SetUsername(ctx context.Context, sess *models.Session, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if !usernamePattern.MatchString(name) {
		return nil, apperr.Validation("username must be 3-32 letters, digits or underscores")
	}
	user, err := db.sessionUser(ctx, sess)
	if err != nil {
		return nil, err
	}
	if user.Username != "" {
		return nil, ErrUsernameSet
	}
	key := usernameKey(strings.ToLower(name))
	ok, err := db.kv.SetNX(ctx, key, struct {
		UserID string `bson:"userId"`
	}{user.ID})
	if err != nil {
		return nil, apperr.Storage("setnx", key, err)
	}
	if !ok {
		return nil, ErrUsernameTaken
	}
	user.Username = name
	if err := db.saveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPreferredVoice stores the voice used when a narration request names none.
func (db *DB) SetPreferredVoice(ctx context.Context, sess *models.Session, voice string) (*models.User, error) {
	user, err := db.sessionUser(ctx, sess)
	if err != nil {
		return nil, err
	}
	user.PreferredVoice = strings.TrimSpace(voice)
	if err := db.saveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all users, newest first. Admin only.
func (db *DB) ListUsers(ctx context.Context, sess *models.Session) ([]models.User, error) {
	if !sess.Valid(db.now()) {
		return nil, apperr.ErrAuth
	}
	if !sess.IsAdmin {
		return nil, apperr.ErrAccessDenied
	}
	ids, err := db.kv.LRange(ctx, usersKey)
	if err != nil {
		return nil, apperr.Storage("lrange", usersKey, err)
	}
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		u, err := db.UserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			users = append(users, *u)
		}
	}
	return users, nil
}

// DeleteUser removes a user and, in cascade, all of their documents. Admin
// only; admins cannot delete themselves. The deleted documents are returned so
// the caller can remove their blobs.
func (db *DB) DeleteUser(ctx context.Context, sess *models.Session, id string) ([]models.Document, error) {
	if !sess.Valid(db.now()) {
		return nil, apperr.ErrAuth
	}
	if !sess.IsAdmin {
		return nil, apperr.ErrAccessDenied
	}
	if sess.UserID == id {
		return nil, apperr.Validation("cannot delete your own account")
	}
	user, err := db.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user", id)
	}
	docs, err := db.userDocuments(ctx, id)
	if err != nil {
		return nil, err
	}
	keys := []string{userDocsKey(id), userEmailKey(user.Email), userIDKey(id)}
	for _, d := range docs {
		keys = append(keys, docKey(d.ID))
	}
	if user.Username != "" {
		keys = append(keys, usernameKey(strings.ToLower(user.Username)))
	}
	if err := db.kv.Del(ctx, keys...); err != nil {
		return nil, apperr.Storage("del", userIDKey(id), err)
	}
	if err := db.kv.LRem(ctx, usersKey, id); err != nil {
		return nil, apperr.Storage("lrem", usersKey, err)
	}
	return docs, nil
}
