package service

import (
	"context"
	"errors"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/learnora/learnora-server/internal/adapters/transport/http/dto"
	customErrors "github.com/learnora/learnora-server/internal/domain/auth/errors"
	"github.com/learnora/learnora-server/internal/domain/auth/model"
	"github.com/learnora/learnora-server/internal/domain/auth/repo"
	"github.com/learnora/learnora-server/internal/domain/auth/token"
	"github.com/learnora/learnora-server/internal/infra/config"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type authService struct {
	userRepo    repo.UserRepo
	sessionRepo repo.SessionRepo
	issuer      token.Issuer
	mailer      Mailer
	media       MediaStore
	cfg         *config.Config
	v           *validator.Validate
}

func New(
	ur repo.UserRepo,
	sr repo.SessionRepo,
	iss token.Issuer,
	mailer Mailer,
	media MediaStore,
	cfg *config.Config,
	v *validator.Validate,
) Service {
	return &authService{
		userRepo: ur, sessionRepo: sr, issuer: iss,
		mailer: mailer, media: media, cfg: cfg, v: v,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (string, error) {
	if err := a.v.Struct(in); err != nil {
		return "", customErrors.NewInvalidArgument(err.Error())
	}

	if err := a.ensureEmailFree(ctx, in.Email); err != nil {
		return "", err
	}

	activationToken, code, err := a.issuer.IssueActivationToken(model.PendingUser{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		return "", err
	}

	if err := a.mailer.SendActivationMail(ctx, in.Email, in.Name, code); err != nil {
		return "", customErrors.WrapInternal(err, "SendActivationMail")
	}
	return activationToken, nil
}

func (a *authService) Activate(ctx context.Context, in dto.ActivateDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.issuer.ParseActivationToken(in.ActivationToken)
	if err != nil {
		return customErrors.ErrInvalidToken
	}

	// The code is compared against the one sealed inside this very token;
	// a code issued for any other token must not pass.
	if claims.ActivationCode != in.ActivationCode {
		return customErrors.ErrInvalidActivationCode
	}

	// A second registration for the same email may have been activated while
	// this token was in flight.
	if err := a.ensureEmailFree(ctx, claims.User.Email); err != nil {
		return err
	}

	hash, err := argon2id.CreateHash(claims.User.Password, argonParams)
	if err != nil {
		return customErrors.WrapInternal(err, "Activate")
	}

	now := time.Now()
	_, err = a.userRepo.CreateUser(ctx, model.User{
		ID:           uuid.New(),
		Name:         claims.User.Name,
		Email:        claims.User.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "CreateUser")
	}
	return nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.User, model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, model.TokenPair{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := argon2id.ComparePasswordAndHash(in.Password, user.PasswordHash)
	if err != nil {
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.User{}, model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	user.PasswordHash = ""
	pair, err := a.openSession(ctx, user)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}
	return user, pair, nil
}

func (a *authService) SocialAuth(ctx context.Context, in dto.SocialAuthDTO) (model.User, model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// First social login: create the record with an unguessable local
		// password so the credential path stays closed.
		hash, hashErr := argon2id.CreateHash(uuid.NewString(), argonParams)
		if hashErr != nil {
			return model.User{}, model.TokenPair{}, customErrors.WrapInternal(hashErr, "SocialAuth")
		}
		now := time.Now()
		user = model.User{
			ID:           uuid.New(),
			Name:         in.Name,
			Email:        in.Email,
			PasswordHash: hash,
			Role:         model.RoleUser,
			Avatar:       model.Avatar{URL: in.Avatar},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := a.userRepo.CreateUser(ctx, user); err != nil {
			return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "CreateUser")
		}
	case err != nil:
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "SocialAuth")
	}

	user.PasswordHash = ""
	pair, err := a.openSession(ctx, user)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}
	return user, pair, nil
}

func (a *authService) Refresh(ctx context.Context, refreshToken string) (model.User, model.TokenPair, error) {
	if refreshToken == "" {
		return model.User{}, model.TokenPair{}, customErrors.ErrCouldNotRefresh
	}

	claims, err := a.issuer.ParseRefreshToken(refreshToken)
	if err != nil {
		return model.User{}, model.TokenPair{}, customErrors.ErrCouldNotRefresh
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.User{}, model.TokenPair{}, customErrors.ErrCouldNotRefresh
	}

	// A signed, unexpired token is still worthless without a live session:
	// logout and account deletion invalidate refresh tokens this way.
	user, err := a.sessionRepo.Get(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, model.TokenPair{}, customErrors.ErrCouldNotRefresh
	case err != nil:
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	pair, err := a.issuePair(uid)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}

	// The snapshot is unchanged; only its lifetime follows the new token.
	if err := a.sessionRepo.Touch(ctx, uid); err != nil {
		return model.User{}, model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}
	return user, pair, nil
}

func (a *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := a.sessionRepo.Delete(ctx, userID); err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	return nil
}

func (a *authService) GetUserInfo(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.sessionRepo.Get(ctx, userID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrSessionExpired
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "GetUserInfo")
	}
	return user, nil
}

func (a *authService) UpdateUserInfo(ctx context.Context, userID uuid.UUID, in dto.UpdateUserInfoDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	if in.Email != "" && in.Email != user.Email {
		if err := a.ensureEmailFree(ctx, in.Email); err != nil {
			return model.User{}, err
		}
		user.Email = in.Email
	}
	if in.Name != "" {
		user.Name = in.Name
	}

	return a.saveAndRecache(ctx, user)
}

func (a *authService) UpdatePassword(ctx context.Context, userID uuid.UUID, in dto.UpdatePasswordDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByIDWithPassword(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	ok, err := argon2id.ComparePasswordAndHash(in.OldPassword, user.PasswordHash)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "UpdatePassword")
	}
	if !ok {
		return model.User{}, customErrors.ErrInvalidCredentials
	}

	hash, err := argon2id.CreateHash(in.NewPassword, argonParams)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "UpdatePassword")
	}
	user.PasswordHash = hash

	return a.saveAndRecache(ctx, user)
}

func (a *authService) UpdateAvatar(ctx context.Context, userID uuid.UUID, in dto.UpdateAvatarDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	if user.Avatar.PublicID != "" {
		if err := a.media.Destroy(ctx, user.Avatar.PublicID); err != nil {
			return model.User{}, customErrors.WrapInternal(err, "UpdateAvatar")
		}
	}

	avatar, err := a.media.UploadAvatar(ctx, in.Avatar)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "UpdateAvatar")
	}
	user.Avatar = avatar

	return a.saveAndRecache(ctx, user)
}

func (a *authService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := a.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "ListUsers")
	}
	return users, nil
}

func (a *authService) UpdateUserRole(ctx context.Context, in dto.UpdateRoleDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	uid, err := uuid.Parse(in.ID)
	if err != nil {
		return model.User{}, customErrors.NewInvalidArgument("malformed user id")
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	if err != nil {
		return model.User{}, err
	}
	user.Role = model.Role(in.Role)

	return a.saveAndRecache(ctx, user)
}

func (a *authService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := a.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if user.Avatar.PublicID != "" {
		// Orphaned media is acceptable; the account removal must not hinge
		// on the provider being reachable.
		_ = a.media.Destroy(ctx, user.Avatar.PublicID)
	}

	if err := a.userRepo.DeleteUser(ctx, id); err != nil {
		return err
	}

	// Kills every outstanding refresh token for this user.
	if err := a.sessionRepo.Delete(ctx, id); err != nil {
		return customErrors.WrapInternal(err, "DeleteUser")
	}
	return nil
}

// openSession issues a fresh token pair and overwrites the user's session
// entry; any previous login for the same id collapses into this one.
func (a *authService) openSession(ctx context.Context, user model.User) (model.TokenPair, error) {
	pair, err := a.issuePair(user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}
	if err := a.sessionRepo.Save(ctx, user.ID, user); err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "SaveSession")
	}
	return pair, nil
}

func (a *authService) issuePair(uid uuid.UUID) (model.TokenPair, error) {
	at, atExp, err := a.issuer.IssueAccessToken(uid)
	if err != nil {
		return model.TokenPair{}, err
	}
	rt, rtExp, err := a.issuer.IssueRefreshToken(uid)
	if err != nil {
		return model.TokenPair{}, err
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       uid,
	}, nil
}

// saveAndRecache persists the record and rewrites the session snapshot so
// the cache never serves a profile older than the primary store.
func (a *authService) saveAndRecache(ctx context.Context, user model.User) (model.User, error) {
	user.UpdatedAt = time.Now()
	if err := a.userRepo.UpdateUser(ctx, user); err != nil {
		return model.User{}, err
	}

	user.PasswordHash = ""
	_, err := a.sessionRepo.Get(ctx, user.ID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// Not logged in; nothing to recache.
		return user, nil
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "GetSession")
	}

	if err := a.sessionRepo.Save(ctx, user.ID, user); err != nil {
		return model.User{}, customErrors.WrapInternal(err, "SaveSession")
	}
	return user, nil
}

func (a *authService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := a.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return customErrors.ErrAlreadyExists
	case errors.Is(err, customErrors.ErrNotFound):
		return nil
	default:
		return customErrors.WrapInternal(err, "GetUserByEmail")
	}
}
