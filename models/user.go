package models

import "time"

type User struct {
	ID             string    `bson:"id" json:"id"`
	Email          string    `bson:"email" json:"email"`
	Username       string    `bson:"username,omitempty" json:"username,omitempty"` // immutable once set
	Password       string    `bson:"password" json:"-"`                             // bcrypt hash
	IsAdmin        bool      `bson:"isAdmin" json:"isAdmin"`
	PreferredVoice string    `bson:"preferredVoice,omitempty" json:"preferredVoice,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// Session is the identity carried by a signed session token.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether s is present and not expired at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.UserID != "" && now.Before(s.ExpiresAt)
}
