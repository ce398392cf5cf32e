package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/learnora/learnora-server/internal/domain/auth/model"
)

// AccessClaims carry the user id in Subject, signed with the access secret.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// RefreshClaims carry the user id in Subject, signed with the refresh secret.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// ActivationClaims are a self-verifying capability: the pending registration
// and its one-time code travel inside the token, so no server-side record
// exists until activation succeeds.
type ActivationClaims struct {
	User           model.PendingUser `json:"user"`
	ActivationCode string            `json:"activation_code"`
	jwt.RegisteredClaims
}

type Issuer interface {
	IssueActivationToken(pending model.PendingUser) (token string, code string, err error)
	ParseActivationToken(raw string) (ActivationClaims, error)
	IssueAccessToken(userID uuid.UUID) (token string, exp time.Time, err error)
	IssueRefreshToken(userID uuid.UUID) (token string, exp time.Time, err error)
	ParseAccessToken(raw string) (AccessClaims, error)
	ParseRefreshToken(raw string) (RefreshClaims, error)
}
