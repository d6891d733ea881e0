package store

import (
	"errors"
	"time"
)

// DB holds the record accessors over a KV.
type DB struct {
	kv  KV
	now func() time.Time
}

func NewDB(kv KV) *DB {
	return &DB{kv: kv, now: time.Now}
}

const usersKey = "users"

var errIDCollision = errors.New("document id collision")

func userEmailKey(email string) string { return "user:" + email }
func userIDKey(id string) string       { return "user-by-id:" + id }
func usernameKey(name string) string   { return "username:" + name }
func docKey(id string) string          { return "doc:" + id }
func userDocsKey(userID string) string { return "user:" + userID + ":docs" }
