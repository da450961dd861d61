package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"backoffice/api/internal/apperror"
	"backoffice/api/internal/models"
	"backoffice/api/internal/repository"
	"backoffice/api/internal/security"
)

var (
	ErrInvalidCredentials = apperror.Unauthorized("Invalid email or password")
	ErrInvalidRefresh     = apperror.Unauthorized("Invalid refresh token")
	ErrUnauthorized       = apperror.Unauthorized("Unauthorized")
	ErrEmailExists        = apperror.Conflict("User with this email already exists")
)

type AuthService struct {
	admins      AdminStore
	hasher      *security.Hasher
	tokens      *security.TokenIssuer
	revocations TokenRevocations
	log         zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires the session manager. revocations may be nil, in which
// case logged-out access tokens stay usable until they expire.
func NewAuthService(
	admins AdminStore,
	hasher *security.Hasher,
	tokens *security.TokenIssuer,
	revocations TokenRevocations,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		admins:      admins,
		hasher:      hasher,
		tokens:      tokens,
		revocations: revocations,
		log:         log,
	}
}

// Session is the outcome of login, register and refresh. The HTTP layer turns
// the two tokens into cookies.
type Session struct {
	Admin        models.Admin
	AccessToken  string
	RefreshToken string
}

func (s Session) View() models.AuthenticatedSession {
	return s.Admin.ToPublicView()
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (Session, error) {
	email := models.NormalizeEmail(input.Email)

	if _, err := s.admins.FindByEmail(ctx, email); err == nil {
		return Session{}, ErrEmailExists
	} else if !errors.Is(err, repository.ErrAdminNotFound) {
		return Session{}, fmt.Errorf("lookup admin: %w", err)
	}

	passwordHash, err := s.hasher.HashPassword(input.Password)
	if err != nil {
		return Session{}, err
	}

	admin, err := s.admins.Create(ctx, models.Admin{
		Email:        email,
		Name:         optionalString(input.Name),
		PasswordHash: passwordHash,
		Role:         models.RoleEditor,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return Session{}, ErrEmailExists
		}
		return Session{}, err
	}

	s.log.Info().Str("admin_id", admin.ID).Msg("admin registered")
	return s.setSession(ctx, admin, nil)
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (Session, error) {
	admin, err := s.admins.FindActiveByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			// keep the response time close to a real password check
			s.hasher.VerifyPassword(input.Password, s.dummyPasswordHash())
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("lookup admin: %w", err)
	}

	if !s.hasher.VerifyPassword(input.Password, admin.PasswordHash) {
		s.log.Debug().Str("admin_id", admin.ID).Msg("login rejected: password mismatch")
		return Session{}, ErrInvalidCredentials
	}

	return s.setSession(ctx, admin, nil)
}

// Refresh redeems a refresh token for a new token pair. The stored hash is
// swapped atomically, so each refresh token can be redeemed at most once.
func (s *AuthService) Refresh(ctx context.Context, subjectID string, refreshToken string) (Session, error) {
	if refreshToken == "" {
		return Session{}, ErrInvalidRefresh
	}

	admin, err := s.admins.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return Session{}, ErrInvalidRefresh
		}
		return Session{}, fmt.Errorf("lookup admin: %w", err)
	}

	if !admin.IsActive || admin.RefreshTokenHash == nil {
		return Session{}, ErrInvalidRefresh
	}

	if !s.hasher.VerifyRefreshToken(refreshToken, *admin.RefreshTokenHash) {
		s.log.Warn().Str("admin_id", admin.ID).Msg("refresh rejected: token does not match stored hash")
		return Session{}, ErrInvalidRefresh
	}

	return s.setSession(ctx, admin, admin.RefreshTokenHash)
}

// Logout revokes the stored refresh token and, when a revocation list is
// configured, the access token that made the request.
func (s *AuthService) Logout(ctx context.Context, subjectID string, access *security.TokenClaims) error {
	if err := s.admins.SetRefreshTokenHash(ctx, subjectID, nil); err != nil &&
		!errors.Is(err, repository.ErrAdminNotFound) {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	if s.revocations != nil && access != nil && access.ExpiresAt != nil {
		if err := s.revocations.Revoke(ctx, access.ID, access.ExpiresAt.Time); err != nil {
			s.log.Warn().Err(err).Str("admin_id", subjectID).Msg("access token revocation failed")
		}
	}

	s.log.Info().Str("admin_id", subjectID).Msg("admin logged out")
	return nil
}

// Authenticate resolves an access token to the admin as currently stored.
// Claims only prove the subject authenticated recently; role and active
// state always come from the store.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (models.Admin, *security.TokenClaims, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return models.Admin{}, nil, ErrUnauthorized.Wrap(err)
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		switch {
		case err != nil:
			// the store below still decides; only logout revocation is lost
			s.log.Warn().Err(err).Str("admin_id", claims.SubjectID()).Msg("revocation check failed")
		case revoked:
			return models.Admin{}, nil, ErrUnauthorized
		}
	}

	admin, err := s.admins.GetByID(ctx, claims.SubjectID())
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return models.Admin{}, nil, ErrUnauthorized.Wrap(err)
		}
		return models.Admin{}, nil, fmt.Errorf("lookup admin: %w", err)
	}
	if !admin.IsActive {
		return models.Admin{}, nil, ErrUnauthorized
	}

	return admin, claims, nil
}

// VerifyRefreshToken proves the token is well formed, signed and unexpired.
// Matching it against the stored hash is left to Refresh.
func (s *AuthService) VerifyRefreshToken(refreshToken string) (*security.TokenClaims, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh.Wrap(err)
	}
	return claims, nil
}

func (s *AuthService) ToPublicView(admin models.Admin) models.AuthenticatedSession {
	return admin.ToPublicView()
}

// SweepStaleSessions revokes refresh tokens that outlived the refresh TTL or
// belong to deactivated admins.
func (s *AuthService) SweepStaleSessions(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.tokens.RefreshTTL())
	return s.admins.ClearStaleRefreshTokens(ctx, cutoff)
}

// setSession mints a token pair from the admin's current state and stores
// the refresh token's hash. With previousHash nil the hash is overwritten
// unconditionally; otherwise it is only replaced if it still equals
// previousHash.
func (s *AuthService) setSession(ctx context.Context, admin models.Admin, previousHash *string) (Session, error) {
	accessToken, err := s.tokens.IssueAccess(admin)
	if err != nil {
		return Session{}, err
	}
	refreshToken, err := s.tokens.IssueRefresh(admin)
	if err != nil {
		return Session{}, err
	}
	refreshHash, err := s.hasher.HashRefreshToken(refreshToken)
	if err != nil {
		return Session{}, err
	}

	if previousHash == nil {
		err = s.admins.SetRefreshTokenHash(ctx, admin.ID, &refreshHash)
	} else {
		err = s.admins.SwapRefreshTokenHash(ctx, admin.ID, *previousHash, refreshHash)
	}
	if err != nil {
		rotating := previousHash != nil
		if errors.Is(err, repository.ErrRefreshTokenStale) ||
			(rotating && errors.Is(err, repository.ErrAdminNotFound)) {
			s.log.Warn().Str("admin_id", admin.ID).Msg("refresh lost rotation race")
			return Session{}, ErrInvalidRefresh
		}
		return Session{}, fmt.Errorf("store refresh token: %w", err)
	}

	admin.RefreshTokenHash = &refreshHash
	s.log.Debug().Str("admin_id", admin.ID).Msg("session issued")

	return Session{
		Admin:        admin,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.HashPassword("not-a-real-password")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
