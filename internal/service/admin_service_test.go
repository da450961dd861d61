package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/api/internal/apperror"
	"backoffice/api/internal/models"
	"backoffice/api/internal/repository"
	"backoffice/api/internal/testutil"
)

func updateRole(role models.AdminRole) repository.AdminUpdate {
	return repository.AdminUpdate{Role: &role}
}

func updateActive(active bool) repository.AdminUpdate {
	return repository.AdminUpdate{IsActive: &active}
}

func ptr[T any](v T) *T {
	return &v
}

func TestAdminCreateRestrictsRoles(t *testing.T) {
	svc := NewAdminService(testutil.NewAdminStore(), testutil.NewHasher(), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateAdminInput{Email: "boss@example.com", Password: "secret1", Role: models.RoleSuperAdmin})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.StatusOf(err))

	created, err := svc.Create(ctx, CreateAdminInput{Email: "Ed@Example.com", Password: "secret1", Role: models.RoleEditor})
	require.NoError(t, err)
	assert.Equal(t, "ed@example.com", created.Email)
	assert.True(t, created.IsActive)
	assert.NotEqual(t, "secret1", created.PasswordHash)

	_, err = svc.Create(ctx, CreateAdminInput{Email: "ed@example.com", Password: "secret1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrEmailExists)

	inactive, err := svc.Create(ctx, CreateAdminInput{Email: "off@example.com", Password: "secret1", Role: models.RoleAdmin, IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, inactive.IsActive)
}

func TestAdminUpdate(t *testing.T) {
	store := testutil.NewAdminStore()
	hasher := testutil.NewHasher()
	svc := NewAdminService(store, hasher, zerolog.Nop())
	ctx := context.Background()
	admin := testutil.MustCreateAdmin(t, store, hasher, "u@example.com", "Password1!", models.RoleEditor, true)

	updated, err := svc.Update(ctx, admin.ID, UpdateAdminInput{Role: ptr(models.RoleAdmin), Password: ptr("changed1")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.True(t, hasher.VerifyPassword("changed1", updated.PasswordHash))

	_, err = svc.Update(ctx, admin.ID, UpdateAdminInput{Role: ptr(models.RoleSuperAdmin)})
	assert.Equal(t, 400, apperror.StatusOf(err))

	_, err = svc.Update(ctx, "missing", UpdateAdminInput{Name: ptr("x")})
	assert.Equal(t, 404, apperror.StatusOf(err))
	assert.Equal(t, "Admin with id missing not found", apperror.BodyOf(err).Message)
}

func TestAdminDeactivationRevokesRefreshToken(t *testing.T) {
	store := testutil.NewAdminStore()
	hasher := testutil.NewHasher()
	ctx := context.Background()
	admin := testutil.MustCreateAdmin(t, store, hasher, "deact@example.com", "Password1!", models.RoleEditor, true)

	auth := NewAuthService(store, hasher, testutil.NewIssuer(), nil, zerolog.Nop())
	session, err := auth.Login(ctx, LoginInput{Email: admin.Email, Password: "Password1!"})
	require.NoError(t, err)

	svc := NewAdminService(store, hasher, zerolog.Nop())
	updated, err := svc.Update(ctx, admin.ID, UpdateAdminInput{IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Nil(t, updated.RefreshTokenHash)

	_, err = auth.Refresh(ctx, admin.ID, session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	_, _, err = auth.Authenticate(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAdminDeleteAndLookup(t *testing.T) {
	store := testutil.NewAdminStore()
	hasher := testutil.NewHasher()
	svc := NewAdminService(store, hasher, zerolog.Nop())
	ctx := context.Background()
	admin := testutil.MustCreateAdmin(t, store, hasher, "del@example.com", "Password1!", models.RoleEditor, true)

	found, err := svc.GetByEmail(ctx, "DEL@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, found.ID)

	deleted, err := svc.Delete(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, deleted.ID)

	_, err = svc.GetByID(ctx, admin.ID)
	assert.Equal(t, 404, apperror.StatusOf(err))
	_, err = svc.Delete(ctx, admin.ID)
	assert.Equal(t, 404, apperror.StatusOf(err))
}

func TestSeedSuperAdminIsIdempotent(t *testing.T) {
	store := testutil.NewAdminStore()
	svc := NewAdminService(store, testutil.NewHasher(), zerolog.Nop())
	ctx := context.Background()

	_, _, err := svc.SeedSuperAdmin(ctx, "root@example.com", "short", "Root")
	assert.Equal(t, 400, apperror.StatusOf(err))

	admin, created, err := svc.SeedSuperAdmin(ctx, "root@example.com", "Password1!", "Root")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleSuperAdmin, admin.Role)

	again, created, err := svc.SeedSuperAdmin(ctx, "root@example.com", "Password1!", "Root")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)
}
