package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/learnora/learnora-server/internal/domain/auth/model"
)

// UserRepo is the credential store. Reads project the password hash out
// unless the method says otherwise; only credential checks need it.
type UserRepo interface {
	CreateUser(ctx context.Context, user model.User) (uuid.UUID, error)
	// GetUserByEmail returns the record with its password hash (login path).
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)
	// GetUserByIDWithPassword is the password-change path.
	GetUserByIDWithPassword(ctx context.Context, id uuid.UUID) (model.User, error)
	UpdateUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

// SessionRepo holds one snapshot per logged-in user id; a new login
// overwrites any previous entry (last-writer-wins).
type SessionRepo interface {
	Save(ctx context.Context, userID uuid.UUID, user model.User) error
	Get(ctx context.Context, userID uuid.UUID) (model.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	// Touch extends the entry's TTL without rewriting the snapshot.
	Touch(ctx context.Context, userID uuid.UUID) error
}

type NotificationRepo interface {
	// PurgeRead removes read notifications created before olderThan and
	// reports how many were deleted.
	PurgeRead(ctx context.Context, olderThan time.Time) (int64, error)
}
