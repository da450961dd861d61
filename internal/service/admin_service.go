package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"backoffice/api/internal/apperror"
	"backoffice/api/internal/models"
	"backoffice/api/internal/repository"
	"backoffice/api/internal/security"
)

// AdminService backs the admin management endpoints. Refresh-token state is
// only ever touched through the store's narrow refresh operations.
type AdminService struct {
	admins AdminStore
	hasher *security.Hasher
	log    zerolog.Logger
}

func NewAdminService(admins AdminStore, hasher *security.Hasher, log zerolog.Logger) *AdminService {
	return &AdminService{admins: admins, hasher: hasher, log: log}
}

func (s *AdminService) List(ctx context.Context) ([]models.Admin, error) {
	return s.admins.List(ctx)
}

func (s *AdminService) GetByID(ctx context.Context, id string) (models.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if errors.Is(err, repository.ErrAdminNotFound) {
		return models.Admin{}, apperror.NotFound(fmt.Sprintf("Admin with id %s not found", id))
	}
	return admin, err
}

func (s *AdminService) GetByEmail(ctx context.Context, email string) (models.Admin, error) {
	admin, err := s.admins.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrAdminNotFound) {
		return models.Admin{}, apperror.NotFound(fmt.Sprintf("Admin with email %s not found", email))
	}
	return admin, err
}

type CreateAdminInput struct {
	Email    string
	Name     *string
	Password string
	Role     models.AdminRole
	IsActive *bool
}

// assignableRole reports whether the API may hand out role; super_admin only
// comes from seeding.
func assignableRole(role models.AdminRole) bool {
	return role == models.RoleAdmin || role == models.RoleEditor
}

func (s *AdminService) Create(ctx context.Context, input CreateAdminInput) (models.Admin, error) {
	if !assignableRole(input.Role) {
		return models.Admin{}, apperror.Validation("role must be one of: admin, editor")
	}

	passwordHash, err := s.hasher.HashPassword(input.Password)
	if err != nil {
		return models.Admin{}, err
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	admin, err := s.admins.Create(ctx, models.Admin{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: passwordHash,
		Role:         input.Role,
		IsActive:     active,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return models.Admin{}, ErrEmailExists
		}
		return models.Admin{}, err
	}

	s.log.Info().Str("admin_id", admin.ID).Str("role", string(admin.Role)).Msg("admin created")
	return admin, nil
}

type UpdateAdminInput struct {
	Email    *string
	Name     *string
	Password *string
	Role     *models.AdminRole
	IsActive *bool
}

func (s *AdminService) Update(ctx context.Context, id string, input UpdateAdminInput) (models.Admin, error) {
	if input.Role != nil && !assignableRole(*input.Role) {
		return models.Admin{}, apperror.Validation("role must be one of: admin, editor")
	}

	update := repository.AdminUpdate{
		Email:    input.Email,
		Name:     input.Name,
		Role:     input.Role,
		IsActive: input.IsActive,
	}
	if input.Password != nil {
		hash, err := s.hasher.HashPassword(*input.Password)
		if err != nil {
			return models.Admin{}, err
		}
		update.PasswordHash = &hash
	}

	admin, err := s.admins.Update(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAdminNotFound):
			return models.Admin{}, apperror.NotFound(fmt.Sprintf("Admin with id %s not found", id))
		case errors.Is(err, repository.ErrEmailTaken):
			return models.Admin{}, ErrEmailExists
		}
		return models.Admin{}, err
	}

	// a deactivated admin must not be able to mint new tokens
	if !admin.IsActive && admin.RefreshTokenHash != nil {
		if err := s.admins.SetRefreshTokenHash(ctx, admin.ID, nil); err != nil {
			return models.Admin{}, fmt.Errorf("revoke refresh token: %w", err)
		}
		admin.RefreshTokenHash = nil
	}

	return admin, nil
}

func (s *AdminService) Delete(ctx context.Context, id string) (models.Admin, error) {
	admin, err := s.admins.Delete(ctx, id)
	if errors.Is(err, repository.ErrAdminNotFound) {
		return models.Admin{}, apperror.NotFound(fmt.Sprintf("Admin with id %s not found", id))
	}
	if err == nil {
		s.log.Info().Str("admin_id", admin.ID).Msg("admin deleted")
	}
	return admin, err
}

// SeedSuperAdmin creates the super admin if no admin owns email yet. It
// reports whether a row was created.
func (s *AdminService) SeedSuperAdmin(ctx context.Context, email, password, name string) (models.Admin, bool, error) {
	existing, err := s.admins.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrAdminNotFound) {
		return models.Admin{}, false, err
	}

	if len(password) < 8 {
		return models.Admin{}, false, apperror.Validation("super admin password must be at least 8 characters")
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return models.Admin{}, false, err
	}

	admin, err := s.admins.Create(ctx, models.Admin{
		Email:        email,
		Name:         optionalString(name),
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
	})
	if err != nil {
		return models.Admin{}, false, err
	}
	return admin, true, nil
}
