package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"backoffice/api/internal/ids"
	"backoffice/api/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	errWrongUse     = errors.New("token issued for another use")
)

// TokenUse separates access from refresh tokens; both share one secret.
type TokenUse string

const (
	UseAccess  TokenUse = "access"
	UseRefresh TokenUse = "refresh"
)

type TokenClaims struct {
	Email string           `json:"email"`
	Name  *string          `json:"name"`
	Role  models.AdminRole `json:"role"`
	Use   TokenUse         `json:"use"`
	jwt.RegisteredClaims
}

// SubjectID is the admin id the token was issued to.
func (c *TokenClaims) SubjectID() string {
	return c.Subject
}

// TokenIssuer signs access and refresh tokens with one HS256 secret.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of the issuer reading time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	clone := *i
	clone.now = now
	return &clone
}

func (i *TokenIssuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *TokenIssuer) IssueAccess(admin models.Admin) (string, error) {
	return i.issue(admin, UseAccess, i.accessTTL)
}

func (i *TokenIssuer) IssueRefresh(admin models.Admin) (string, error) {
	return i.issue(admin, UseRefresh, i.refreshTTL)
}

func (i *TokenIssuer) issue(admin models.Admin, use TokenUse, ttl time.Duration) (string, error) {
	now := i.now()
	claims := TokenClaims{
		Email: admin.Email,
		Name:  admin.Name,
		Role:  admin.Role,
		Use:   use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			ID:        ids.New(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. Every failure wraps
// ErrInvalidToken; the cause is for logs only.
func (i *TokenIssuer) Verify(tokenStr string) (*TokenClaims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) VerifyAccess(tokenStr string) (*TokenClaims, error) {
	return i.verifyUse(tokenStr, UseAccess)
}

func (i *TokenIssuer) VerifyRefresh(tokenStr string) (*TokenClaims, error) {
	return i.verifyUse(tokenStr, UseRefresh)
}

func (i *TokenIssuer) verifyUse(tokenStr string, use TokenUse) (*TokenClaims, error) {
	claims, err := i.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Use != use {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, errWrongUse)
	}
	return claims, nil
}
