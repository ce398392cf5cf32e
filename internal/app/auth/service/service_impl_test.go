package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/learnora/learnora-server/internal/adapters/transport/http/dto"
	appsvc "github.com/learnora/learnora-server/internal/app/auth/service"
	apptoken "github.com/learnora/learnora-server/internal/app/auth/token"
	authErrors "github.com/learnora/learnora-server/internal/domain/auth/errors"
	"github.com/learnora/learnora-server/internal/domain/auth/model"
	"github.com/learnora/learnora-server/internal/infra/config"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type userRepoStub struct{ users map[uuid.UUID]model.User }

func (u *userRepoStub) CreateUser(_ context.Context, m model.User) (uuid.UUID, error) {
	for _, v := range u.users {
		if v.Email == m.Email {
			return uuid.Nil, authErrors.ErrAlreadyExists
		}
	}
	u.users[m.ID] = m
	return m.ID, nil
}

func (u *userRepoStub) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	for _, v := range u.users {
		if v.Email == email {
			return v, nil
		}
	}
	return model.User{}, authErrors.ErrNotFound
}

func (u *userRepoStub) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	v, ok := u.users[id]
	if !ok {
		return model.User{}, authErrors.ErrNotFound
	}
	v.PasswordHash = "" // projected out
	return v, nil
}

func (u *userRepoStub) GetUserByIDWithPassword(_ context.Context, id uuid.UUID) (model.User, error) {
	v, ok := u.users[id]
	if !ok {
		return model.User{}, authErrors.ErrNotFound
	}
	return v, nil
}

func (u *userRepoStub) UpdateUser(_ context.Context, m model.User) error {
	prev, ok := u.users[m.ID]
	if !ok {
		return authErrors.ErrNotFound
	}
	if m.PasswordHash == "" {
		m.PasswordHash = prev.PasswordHash
	}
	u.users[m.ID] = m
	return nil
}

func (u *userRepoStub) DeleteUser(_ context.Context, id uuid.UUID) error {
	if _, ok := u.users[id]; !ok {
		return authErrors.ErrNotFound
	}
	delete(u.users, id)
	return nil
}

func (u *userRepoStub) ListUsers(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, v := range u.users {
		v.PasswordHash = ""
		out = append(out, v)
	}
	return out, nil
}

type sessionRepoStub struct {
	sessions map[uuid.UUID]model.User
	getErr   error // injected cache failure
}

func (s *sessionRepoStub) Save(_ context.Context, id uuid.UUID, user model.User) error {
	s.sessions[id] = user
	return nil
}

func (s *sessionRepoStub) Get(_ context.Context, id uuid.UUID) (model.User, error) {
	if s.getErr != nil {
		return model.User{}, s.getErr
	}
	user, ok := s.sessions[id]
	if !ok {
		return model.User{}, authErrors.ErrNotFound
	}
	return user, nil
}

func (s *sessionRepoStub) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.sessions, id)
	return nil
}

func (s *sessionRepoStub) Touch(_ context.Context, id uuid.UUID) error { return nil }

type mailerStub struct {
	to, name, code string
	sent           int
}

func (m *mailerStub) SendActivationMail(_ context.Context, to, name, code string) error {
	m.to, m.name, m.code = to, name, code
	m.sent++
	return nil
}

type mediaStub struct{ destroyed []string }

func (m *mediaStub) UploadAvatar(_ context.Context, data string) (model.Avatar, error) {
	return model.Avatar{PublicID: "avatars/stub", URL: "https://cdn.example.com/stub.png"}, nil
}

func (m *mediaStub) Destroy(_ context.Context, publicID string) error {
	m.destroyed = append(m.destroyed, publicID)
	return nil
}

/* ───────────────────────────── helpers ───────────────────────────── */

type fixture struct {
	svc      appsvc.Service
	users    *userRepoStub
	sessions *sessionRepoStub
	mailer   *mailerStub
	media    *mediaStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		AccessTokenSecret:     "access-secret",
		RefreshTokenSecret:    "refresh-secret",
		ActivationTokenSecret: "activation-secret",
		AccessTokenTTL:        5 * time.Minute,
		RefreshTokenTTL:       72 * time.Hour,
		ActivationTokenTTL:    5 * time.Minute,
		JWTIssuer:             "test",
	}
	iss, err := apptoken.NewIssuer(cfg)
	require.NoError(t, err)

	ur := &userRepoStub{users: make(map[uuid.UUID]model.User)}
	sr := &sessionRepoStub{sessions: make(map[uuid.UUID]model.User)}
	mailer := &mailerStub{}
	media := &mediaStub{}

	return &fixture{
		svc:      appsvc.New(ur, sr, iss, mailer, media, cfg, validator.New()),
		users:    ur,
		sessions: sr,
		mailer:   mailer,
		media:    media,
	}
}

// registerAndActivate walks the full handshake and returns the new user.
func (f *fixture) registerAndActivate(t *testing.T, email, password string) model.User {
	t.Helper()
	ctx := context.Background()

	token, err := f.svc.Register(ctx, dto.RegisterDTO{Name: "Ada", Email: email, Password: password})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, email, f.mailer.to)

	err = f.svc.Activate(ctx, dto.ActivateDTO{ActivationToken: token, ActivationCode: f.mailer.code})
	require.NoError(t, err)

	user, err := f.users.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	return user
}

/* ───────────────────────────── tests ───────────────────────────── */

func TestAuthService_RegisterActivateLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.registerAndActivate(t, "ada@example.com", "secret123")
	require.Equal(t, model.RoleUser, created.Role)
	require.NotEqual(t, "secret123", created.PasswordHash)

	user, pair, err := f.svc.Login(ctx, dto.LoginDTO{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Empty(t, user.PasswordHash)

	// a session entry exists for the user id right after login
	snapshot, err := f.sessions.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, snapshot.PasswordHash)
	require.Equal(t, "ada@example.com", snapshot.Email)
}

func TestAuthService_RegisterExistingEmail(t *testing.T) {
	f := newFixture(t)
	f.registerAndActivate(t, "dup@example.com", "secret123")

	_, err := f.svc.Register(context.Background(), dto.RegisterDTO{
		Name: "Other", Email: "dup@example.com", Password: "secret456",
	})
	require.Error(t, err)
	require.True(t, authErrors.IsAlreadyExists(err))
}

func TestAuthService_RegisterInvalidInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), dto.RegisterDTO{Email: "not-an-email"})
	require.Error(t, err)
	require.True(t, authErrors.IsInvalidArgument(err))
	require.Zero(t, f.mailer.sent)
}

func TestAuthService_ActivateWrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.svc.Register(ctx, dto.RegisterDTO{Name: "Ada", Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)

	wrong := "0000"
	if f.mailer.code == wrong {
		wrong = "0001"
	}
	err = f.svc.Activate(ctx, dto.ActivateDTO{ActivationToken: token, ActivationCode: wrong})
	require.Error(t, err)
	require.True(t, authErrors.IsInvalidActivationCode(err))
}

func TestAuthService_ActivateCodeFromOtherToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tokenA, err := f.svc.Register(ctx, dto.RegisterDTO{Name: "A", Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)
	codeA := f.mailer.code

	_, err = f.svc.Register(ctx, dto.RegisterDTO{Name: "B", Email: "b@example.com", Password: "secret123"})
	require.NoError(t, err)
	codeB := f.mailer.code

	if codeA == codeB {
		t.Skip("codes collided; nothing to distinguish")
	}

	// a code valid for a different activation token must not pass
	err = f.svc.Activate(ctx, dto.ActivateDTO{ActivationToken: tokenA, ActivationCode: codeB})
	require.Error(t, err)
	require.True(t, authErrors.IsInvalidActivationCode(err))
}

func TestAuthService_ActivateRacedRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.svc.Register(ctx, dto.RegisterDTO{Name: "Ada", Email: "race@example.com", Password: "secret123"})
	require.NoError(t, err)
	code := f.mailer.code

	// the same email gets activated through a second token meanwhile
	f.registerAndActivate(t, "race@example.com", "other-pass")

	err = f.svc.Activate(ctx, dto.ActivateDTO{ActivationToken: token, ActivationCode: code})
	require.Error(t, err)
	require.True(t, authErrors.IsAlreadyExists(err))
}

func TestAuthService_ActivateGarbageToken(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Activate(context.Background(), dto.ActivateDTO{ActivationToken: "bad", ActivationCode: "1234"})
	require.Error(t, err)
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestAuthService_LoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerAndActivate(t, "u@example.com", "secret123")

	_, _, err := f.svc.Login(ctx, dto.LoginDTO{Email: "u@example.com", Password: "wrong-pass"})
	require.Error(t, err)
	require.True(t, authErrors.IsInvalidCredentials(err))

	_, _, err = f.svc.Login(ctx, dto.LoginDTO{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)
	require.True(t, authErrors.IsInvalidCredentials(err))
}

func TestAuthService_RefreshRotatesPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerAndActivate(t, "r@example.com", "secret123")

	_, pair, err := f.svc.Login(ctx, dto.LoginDTO{Email: "r@example.com", Password: "secret123"})
	require.NoError(t, err)

	user, next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, pair.UserID, user.ID)
	require.NotEqual(t, pair.AccessToken, next.AccessToken)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
}

func TestAuthService_ConcurrentRefreshBothSucceed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerAndActivate(t, "tabs@example.com", "secret123")

	_, pair, err := f.svc.Login(ctx, dto.LoginDTO{Email: "tabs@example.com", Password: "secret123"})
	require.NoError(t, err)

	// two tabs refreshing with the same token: no per-user lock, both win
	_, first, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, second, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.AccessToken, second.AccessToken)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestAuthService_RefreshRequiresLiveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerAndActivate(t, "gone@example.com", "secret123")

	_, pair, err := f.svc.Login(ctx, dto.LoginDTO{Email: "gone@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, pair.UserID))

	// signature and expiry are still fine; the session is not
	_, _, err = f.svc.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
	require.True(t, authErrors.IsCouldNotRefresh(err))
}

func TestAuthService_RefreshGarbage(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.Refresh(context.Background(), "bad")
	require.Error(t, err)
	require.True(t, authErrors.IsCouldNotRefresh(err))

	_, _, err = f.svc.Refresh(context.Background(), "")
	require.Error(t, err)
	require.True(t, authErrors.IsCouldNotRefresh(err))
}

func TestAuthService_LogoutEndsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerAndActivate(t, "out@example.com", "secret123")

	_, pair, err := f.svc.Login(ctx, dto.LoginDTO{Email: "out@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, pair.UserID))

	_, err = f.svc.GetUserInfo(ctx, pair.UserID)
	require.Error(t, err)
	require.True(t, authErrors.IsSessionExpired(err))
}

func TestAuthService_SocialAuthUpserts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user1, pair1, err := f.svc.SocialAuth(ctx, dto.SocialAuthDTO{
		Name: "Grace", Email: "grace@example.com", Avatar: "https://img.example.com/g.png",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair1.AccessToken)
	require.Empty(t, user1.PasswordHash)

	user2, _, err := f.svc.SocialAuth(ctx, dto.SocialAuthDTO{Name: "Grace", Email: "grace@example.com"})
	require.NoError(t, err)
	require.Equal(t, user1.ID, user2.ID)
}

func TestAuthService_UpdatePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.registerAndActivate(t, "pw@example.com", "oldpass123")

	_, _, err := f.svc.Login(ctx, dto.LoginDTO{Email: "pw@example.com", Password: "oldpass123"})
	require.NoError(t, err)

	_, err = f.svc.UpdatePassword(ctx, created.ID, dto.UpdatePasswordDTO{
		OldPassword: "nope", NewPassword: "newpass123",
	})
	require.Error(t, err)
	require.True(t, authErrors.IsInvalidCredentials(err))

	user, err := f.svc.UpdatePassword(ctx, created.ID, dto.UpdatePasswordDTO{
		OldPassword: "oldpass123", NewPassword: "newpass123",
	})
	require.NoError(t, err)
	require.Empty(t, user.PasswordHash)

	_, _, err = f.svc.Login(ctx, dto.LoginDTO{Email: "pw@example.com", Password: "newpass123"})
	require.NoError(t, err)
}

func TestAuthService_UpdateUserInfoRecaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.registerAndActivate(t, "info@example.com", "secret123")

	_, _, err := f.svc.Login(ctx, dto.LoginDTO{Email: "info@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = f.svc.UpdateUserInfo(ctx, created.ID, dto.UpdateUserInfoDTO{Name: "Renamed"})
	require.NoError(t, err)

	snapshot, err := f.sessions.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", snapshot.Name)
}

func TestAuthService_UpdateUserInfoEmailTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerAndActivate(t, "first@example.com", "secret123")
	second := f.registerAndActivate(t, "second@example.com", "secret123")

	_, err := f.svc.UpdateUserInfo(ctx, second.ID, dto.UpdateUserInfoDTO{Email: "first@example.com"})
	require.Error(t, err)
	require.True(t, authErrors.IsAlreadyExists(err))
}

func TestAuthService_UpdateUserRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.registerAndActivate(t, "role@example.com", "secret123")

	_, _, err := f.svc.Login(ctx, dto.LoginDTO{Email: "role@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = f.svc.UpdateUserRole(ctx, dto.UpdateRoleDTO{ID: created.ID.String(), Role: "owner"})
	require.Error(t, err)
	require.True(t, authErrors.IsInvalidArgument(err))

	user, err := f.svc.UpdateUserRole(ctx, dto.UpdateRoleDTO{ID: created.ID.String(), Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, user.Role)

	// a live session sees the new role immediately
	snapshot, err := f.sessions.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, snapshot.Role)
}

func TestAuthService_UpdateUserRoleFailsWhenCacheUnreadable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.registerAndActivate(t, "cache@example.com", "secret123")

	_, _, err := f.svc.Login(ctx, dto.LoginDTO{Email: "cache@example.com", Password: "secret123"})
	require.NoError(t, err)

	// A broken cache must surface as a failure, not as a silent success
	// that leaves the live session with the old role.
	f.sessions.getErr = errors.New("connection refused")
	_, err = f.svc.UpdateUserRole(ctx, dto.UpdateRoleDTO{ID: created.ID.String(), Role: "admin"})
	require.Error(t, err)
	require.True(t, authErrors.IsInternal(err))

	f.sessions.getErr = nil
	snapshot, err := f.sessions.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, snapshot.Role)
}

func TestAuthService_DeleteUserKillsRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.registerAndActivate(t, "del@example.com", "secret123")

	_, pair, err := f.svc.Login(ctx, dto.LoginDTO{Email: "del@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(ctx, created.ID))

	_, _, err = f.svc.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
	require.True(t, authErrors.IsCouldNotRefresh(err))

	err = f.svc.DeleteUser(ctx, created.ID)
	require.Error(t, err)
	require.True(t, authErrors.IsNotFound(err))
}
