package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/learnora/learnora-server/internal/adapters/transport/http/dto"
	"github.com/learnora/learnora-server/internal/adapters/transport/http/middleware"
	"github.com/learnora/learnora-server/internal/app/auth/service"
	customErrors "github.com/learnora/learnora-server/internal/domain/auth/errors"
	"github.com/learnora/learnora-server/internal/domain/auth/model"
	"github.com/learnora/learnora-server/internal/domain/auth/repo"
	"github.com/learnora/learnora-server/internal/domain/auth/token"
	"github.com/learnora/learnora-server/internal/infra/config"
)

const apiPath = "/api/v1"

type Handler struct {
	svc      service.Service
	issuer   token.Issuer
	sessions repo.SessionRepo
	cfg      *config.Config
	log      *zap.Logger
}

func NewHandler(svc service.Service, iss token.Issuer, sessions repo.SessionRepo, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{svc: svc, issuer: iss, sessions: sessions, cfg: cfg, log: log}
}

func (h *Handler) Routes(r *gin.Engine) {
	api := r.Group(apiPath)

	api.POST("/registration", h.register)
	api.POST("/activate-user", h.activate)
	api.POST("/login", h.login)
	api.POST("/social-auth", h.socialAuth)
	api.GET("/refresh", h.refresh)

	authed := api.Group("", middleware.Authenticate(h.issuer, h.sessions))
	authed.GET("/logout", h.logout)
	authed.GET("/me", h.me)
	authed.PUT("/update-user-info", h.updateUserInfo)
	authed.PUT("/update-user-password", h.updatePassword)
	authed.PUT("/update-user-avatar", h.updateAvatar)

	admin := authed.Group("", middleware.RequireRoles(model.RoleAdmin))
	admin.GET("/users", h.listUsers)
	admin.PUT("/update-user-role", h.updateUserRole)
	admin.DELETE("/users/:id", h.deleteUser)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	activationToken, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":          true,
		"message":          fmt.Sprintf("please check your email: %s to activate your account", body.Email),
		"activation_token": activationToken,
	})
}

func (h *Handler) activate(c *gin.Context) {
	var body dto.ActivateDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	if err := h.svc.Activate(c.Request.Context(), body); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.issueCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"user":         user,
		"access_token": pair.AccessToken,
	})
}

func (h *Handler) socialAuth(c *gin.Context) {
	var body dto.SocialAuthDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	user, pair, err := h.svc.SocialAuth(c.Request.Context(), body)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.issueCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"user":         user,
		"access_token": pair.AccessToken,
	})
}

func (h *Handler) refresh(c *gin.Context) {
	raw, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil {
		h.fail(c, customErrors.ErrCouldNotRefresh)
		return
	}

	_, pair, err := h.svc.Refresh(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.issueCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"access_token": pair.AccessToken,
	})
}

func (h *Handler) logout(c *gin.Context) {
	user, _ := middleware.Identity(c)

	if err := h.svc.Logout(c.Request.Context(), user.ID); err != nil {
		h.fail(c, err)
		return
	}

	h.clearCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out successfully"})
}

func (h *Handler) me(c *gin.Context) {
	user, _ := middleware.Identity(c)

	fresh, err := h.svc.GetUserInfo(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": fresh})
}

func (h *Handler) updateUserInfo(c *gin.Context) {
	var body dto.UpdateUserInfoDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	identity, _ := middleware.Identity(c)
	user, err := h.svc.UpdateUserInfo(c.Request.Context(), identity.ID, body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

func (h *Handler) updatePassword(c *gin.Context) {
	var body dto.UpdatePasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	identity, _ := middleware.Identity(c)
	user, err := h.svc.UpdatePassword(c.Request.Context(), identity.ID, body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

func (h *Handler) updateAvatar(c *gin.Context) {
	var body dto.UpdateAvatarDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	identity, _ := middleware.Identity(c)
	user, err := h.svc.UpdateAvatar(c.Request.Context(), identity.ID, body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

func (h *Handler) updateUserRole(c *gin.Context) {
	var body dto.UpdateRoleDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	user, err := h.svc.UpdateUserRole(c.Request.Context(), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.fail(c, customErrors.NewInvalidArgument("malformed user id"))
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user deleted successfully"})
}

// issueCookies writes both token cookies; it runs only after the full flow
// succeeded, so a failed request never leaves fresh cookies behind.
func (h *Handler) issueCookies(c *gin.Context, pair model.TokenPair) {
	secure := !h.cfg.Local()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.AccessTokenCookie,
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		apiPath,
		h.cfg.CookieDomain,
		secure,
		true, // httpOnly
	)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		middleware.RefreshTokenCookie,
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		apiPath,
		h.cfg.CookieDomain,
		secure,
		true,
	)
}

func (h *Handler) clearCookies(c *gin.Context) {
	secure := !h.cfg.Local()
	c.SetCookie(middleware.AccessTokenCookie, "", -1, apiPath, h.cfg.CookieDomain, secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, apiPath, h.cfg.CookieDomain, secure, true)
}

// fail is the single translator from domain failures to the uniform
// {"success": false, "message": ...} body.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case customErrors.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": err.Error()})
	case customErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "not found"})
	case customErrors.IsInvalidArgument(err),
		customErrors.IsInvalidCredentials(err),
		customErrors.IsInvalidToken(err),
		customErrors.IsSessionExpired(err),
		customErrors.IsInvalidActivationCode(err),
		customErrors.IsAlreadyExists(err),
		customErrors.IsCouldNotRefresh(err):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		h.log.Error("unexpected failure", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
	}
}
