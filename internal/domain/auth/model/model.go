package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Avatar references an asset stored at the media provider.
type Avatar struct {
	PublicID string `json:"public_id,omitempty" bson:"public_id,omitempty"`
	URL      string `json:"url,omitempty" bson:"url,omitempty"`
}

// User is the credential-store record. PasswordHash is json-omitted so
// session snapshots and response payloads cannot carry it.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Avatar       Avatar    `json:"avatar,omitempty"`
	Courses      []string  `json:"courses,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PendingUser is a registration that has not been activated yet. It exists
// only inside a signed activation token, never in a store, so Password here
// is the plaintext the user typed.
type PendingUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserID       uuid.UUID
}
