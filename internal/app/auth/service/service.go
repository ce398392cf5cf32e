package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/learnora/learnora-server/internal/adapters/transport/http/dto"
	"github.com/learnora/learnora-server/internal/domain/auth/model"
)

type Service interface {
	// Register checks email uniqueness, issues an activation token and mails
	// its code. No user record is created until Activate succeeds.
	Register(ctx context.Context, in dto.RegisterDTO) (activationToken string, err error)
	Activate(ctx context.Context, in dto.ActivateDTO) error
	Login(ctx context.Context, in dto.LoginDTO) (model.User, model.TokenPair, error)
	SocialAuth(ctx context.Context, in dto.SocialAuthDTO) (model.User, model.TokenPair, error)
	// Refresh exchanges a live refresh token for a new pair. All failure
	// modes collapse into one generic error on purpose.
	Refresh(ctx context.Context, refreshToken string) (model.User, model.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error

	GetUserInfo(ctx context.Context, userID uuid.UUID) (model.User, error)
	UpdateUserInfo(ctx context.Context, userID uuid.UUID, in dto.UpdateUserInfoDTO) (model.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, in dto.UpdatePasswordDTO) (model.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, in dto.UpdateAvatarDTO) (model.User, error)

	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, in dto.UpdateRoleDTO) (model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Mailer delivers the activation code out-of-band.
type Mailer interface {
	SendActivationMail(ctx context.Context, to, name, code string) error
}

// MediaStore is the media-upload provider boundary.
type MediaStore interface {
	UploadAvatar(ctx context.Context, data string) (model.Avatar, error)
	Destroy(ctx context.Context, publicID string) error
}
