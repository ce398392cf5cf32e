package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	customErrors "github.com/learnora/learnora-server/internal/domain/auth/errors"
	"github.com/learnora/learnora-server/internal/domain/auth/model"
	"github.com/learnora/learnora-server/internal/domain/auth/repo"
	"github.com/learnora/learnora-server/internal/domain/auth/token"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	identityKey = "identity"
)

// Authenticate gates a request on the access-token cookie and a live
// session entry. It never touches the credential store: the cached
// snapshot is trusted as current.
func Authenticate(iss token.Issuer, sessions repo.SessionRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(AccessTokenCookie)
		if err != nil || raw == "" {
			abort(c, http.StatusBadRequest, "please login to access this resource")
			return
		}

		claims, err := iss.ParseAccessToken(raw)
		if err != nil {
			// The client treats this as "try /refresh before re-login".
			abort(c, http.StatusBadRequest, customErrors.ErrInvalidToken.Error())
			return
		}

		uid, err := uuid.Parse(claims.Subject)
		if err != nil {
			abort(c, http.StatusBadRequest, customErrors.ErrInvalidToken.Error())
			return
		}

		user, err := sessions.Get(c.Request.Context(), uid)
		switch {
		case errors.Is(err, customErrors.ErrNotFound):
			abort(c, http.StatusBadRequest, customErrors.ErrSessionExpired.Error())
			return
		case err != nil:
			abort(c, http.StatusInternalServerError, "internal server error")
			return
		}

		c.Set(identityKey, user)
		c.Next()
	}
}

// RequireRoles allows the request through only when the authenticated
// identity's role is in the allow-list. Must run after Authenticate.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := Identity(c)
		if !ok {
			abort(c, http.StatusBadRequest, "please login to access this resource")
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden,
			fmt.Sprintf("role %s is not allowed to access this resource", user.Role))
	}
}

// Identity returns the authenticated user attached by Authenticate.
func Identity(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
