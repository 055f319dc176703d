// Package models defines the core data structures for flowers, users,
// sessions and settings.
package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Flower is one card of the selectable pool.
type Flower struct {
	// ID is the unique identifier for the flower.
	ID string `json:"id"`
	// Name is the common name shown on the card.
	Name string `json:"name"`
	// LatinName is the botanical name.
	LatinName string `json:"latinName"`
	// Description is the plain description of the flower.
	Description string `json:"description"`
	// Meaning holds the metaphorical text of the card.
	Meaning string `json:"meaning"`
	// ImageURL points at the card image.
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Batch is the result of one random selection.
type Batch struct {
	// Finished is true once every flower of the pool has been seen.
	Finished bool `json:"finished"`
	// Message is a closing message, set only when Finished.
	Message string `json:"message,omitempty"`
	// List holds the drawn flowers. Order is not significant.
	List []Flower `json:"list"`
}

// MarshalJSON writes a finished batch as {finished, message} and any other
// batch as {finished, list}, where list is never null.
func (b Batch) MarshalJSON() ([]byte, error) {
	if b.Finished {
		return json.Marshal(struct {
			Finished bool   `json:"finished"`
			Message  string `json:"message"`
		}{true, b.Message})
	}
	list := b.List
	if list == nil {
		list = []Flower{}
	}
	return json.Marshal(struct {
		Finished bool     `json:"finished"`
		List     []Flower `json:"list"`
	}{false, list})
}

// Role names a permission level of a back-office user.
type Role string

const (
	// RoleAdmin manages everything, including users and settings.
	RoleAdmin Role = "admin"
	// RoleEditor manages the flower catalogue only.
	RoleEditor Role = "editor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor
}

// User represents a back-office account.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Username is the login name chosen by the user.
	Username string `json:"username"`
	// PasswordHash is the password digest. It is never serialized.
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is a server-side login session. Only the hash of the
// session token is stored.
type Session struct {
	TokenHash string
	UserID    string
	Role      Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Setting is a key-value configuration entry.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	// Encrypted marks values stored as secret envelopes.
	Encrypted bool      `json:"encrypted"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by repositories on a unique key violation.
	ErrConflict = errors.New("already exists")
)
