package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"backoffice/api/internal/apperror"
	"backoffice/api/internal/models"
	"backoffice/api/internal/security"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	currentAdminKey   = "current_admin"
	accessClaimsKey   = "access_claims"
	refreshSubjectKey = "refresh_subject"
	refreshTokenKey   = "refresh_token"
)

var (
	errUnauthorized   = apperror.Unauthorized("Unauthorized")
	errInvalidRefresh = apperror.Unauthorized("Invalid refresh token")
)

// Authenticator resolves an access token to the admin as currently stored.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (models.Admin, *security.TokenClaims, error)
}

type RefreshVerifier interface {
	VerifyRefreshToken(refreshToken string) (*security.TokenClaims, error)
}

// Auth guards routes that need a logged-in admin. Role and active state are
// taken from the store, never from the token.
func Auth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AccessCookie)
		if err != nil || token == "" {
			abortWithError(c, errUnauthorized)
			return
		}

		admin, claims, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(currentAdminKey, admin)
		c.Set(accessClaimsKey, claims)

		c.Next()
	}
}

// RefreshAuth guards the refresh endpoint. It only proves the cookie carries
// a valid signed token; matching it against the stored hash is the session
// manager's job.
func RefreshAuth(verifier RefreshVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(RefreshCookie)
		if err != nil || token == "" {
			abortWithError(c, errInvalidRefresh)
			return
		}

		claims, err := verifier.VerifyRefreshToken(token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(refreshSubjectKey, claims.SubjectID())
		c.Set(refreshTokenKey, token)

		c.Next()
	}
}

func CurrentAdmin(c *gin.Context) (models.Admin, bool) {
	value, ok := c.Get(currentAdminKey)
	if !ok {
		return models.Admin{}, false
	}
	admin, ok := value.(models.Admin)
	return admin, ok
}

func AccessClaims(c *gin.Context) *security.TokenClaims {
	value, ok := c.Get(accessClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*security.TokenClaims)
	return claims
}

// RefreshSubject returns the subject id and raw token set by RefreshAuth.
func RefreshSubject(c *gin.Context) (string, string, bool) {
	subject := c.GetString(refreshSubjectKey)
	token := c.GetString(refreshTokenKey)
	return subject, token, subject != "" && token != ""
}

// abortWithError writes the uniform error body and records err for the
// request logger.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperror.StatusOf(err), apperror.BodyOf(err))
}
