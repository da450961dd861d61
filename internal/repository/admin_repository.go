package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"backoffice/api/internal/models"
)

const adminColumns = `id::text, email, name, password_hash, role::text, is_active, refresh_token_hash, created_at, updated_at`

// AdminUpdate carries a partial update; nil fields are left unchanged.
type AdminUpdate struct {
	Email        *string
	Name         *string
	PasswordHash *string
	Role         *models.AdminRole
	IsActive     *bool
}

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) Create(ctx context.Context, admin models.Admin) (models.Admin, error) {
	const query = `
		INSERT INTO admins (email, name, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4::admin_role, $5, NOW(), NOW())
		RETURNING ` + adminColumns

	row := r.pool.QueryRow(ctx, query,
		models.NormalizeEmail(admin.Email),
		admin.Name,
		admin.PasswordHash,
		string(admin.Role),
		admin.IsActive,
	)
	created, err := scanAdmin(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Admin{}, ErrEmailTaken
		}
		return models.Admin{}, fmt.Errorf("insert admin: %w", err)
	}
	return created, nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (models.Admin, error) {
	if !validID(id) {
		return models.Admin{}, ErrAdminNotFound
	}
	const query = `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (models.Admin, error) {
	const query = `SELECT ` + adminColumns + ` FROM admins WHERE LOWER(email) = $1`
	return r.queryOne(ctx, query, models.NormalizeEmail(email))
}

// FindActiveByEmail is the login lookup; inactive admins are invisible to it.
func (r *AdminRepository) FindActiveByEmail(ctx context.Context, email string) (models.Admin, error) {
	const query = `SELECT ` + adminColumns + ` FROM admins WHERE LOWER(email) = $1 AND is_active = TRUE`
	return r.queryOne(ctx, query, models.NormalizeEmail(email))
}

func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	const query = `SELECT ` + adminColumns + ` FROM admins ORDER BY email ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := make([]models.Admin, 0)
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

func (r *AdminRepository) Update(ctx context.Context, id string, update AdminUpdate) (models.Admin, error) {
	if !validID(id) {
		return models.Admin{}, ErrAdminNotFound
	}

	var email, role *string
	if update.Email != nil {
		normalized := models.NormalizeEmail(*update.Email)
		email = &normalized
	}
	if update.Role != nil {
		value := string(*update.Role)
		role = &value
	}

	const query = `
		UPDATE admins
		SET email = COALESCE($2::text, email),
		    name = COALESCE($3::text, name),
		    password_hash = COALESCE($4::text, password_hash),
		    role = COALESCE($5::admin_role, role),
		    is_active = COALESCE($6::boolean, is_active),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + adminColumns

	row := r.pool.QueryRow(ctx, query, id, email, update.Name, update.PasswordHash, role, update.IsActive)
	admin, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Admin{}, ErrAdminNotFound
		}
		if isUniqueViolation(err) {
			return models.Admin{}, ErrEmailTaken
		}
		return models.Admin{}, fmt.Errorf("update admin: %w", err)
	}
	return admin, nil
}

func (r *AdminRepository) Delete(ctx context.Context, id string) (models.Admin, error) {
	if !validID(id) {
		return models.Admin{}, ErrAdminNotFound
	}
	const query = `DELETE FROM admins WHERE id = $1 RETURNING ` + adminColumns
	return r.queryOne(ctx, query, id)
}

// SetRefreshTokenHash overwrites the stored hash unconditionally. A nil hash
// revokes the admin's refresh token.
func (r *AdminRepository) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	if !validID(id) {
		return ErrAdminNotFound
	}
	const query = `
		UPDATE admins
		SET refresh_token_hash = $2::text,
		    refresh_issued_at = CASE WHEN $2::text IS NULL THEN NULL ELSE NOW() END
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// SwapRefreshTokenHash replaces expected with next in one statement. When
// another writer got there first no row matches and ErrRefreshTokenStale is
// returned.
func (r *AdminRepository) SwapRefreshTokenHash(ctx context.Context, id string, expected string, next string) error {
	if !validID(id) {
		return ErrAdminNotFound
	}
	const query = `
		UPDATE admins
		SET refresh_token_hash = $3, refresh_issued_at = NOW()
		WHERE id = $1 AND refresh_token_hash = $2
	`
	cmd, err := r.pool.Exec(ctx, query, id, expected, next)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRefreshTokenStale
	}
	return nil
}

// ClearStaleRefreshTokens revokes refresh tokens of inactive admins and of
// sessions issued before cutoff. It returns the number of revoked sessions.
func (r *AdminRepository) ClearStaleRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
		UPDATE admins
		SET refresh_token_hash = NULL, refresh_issued_at = NULL
		WHERE refresh_token_hash IS NOT NULL
		  AND (is_active = FALSE OR refresh_issued_at IS NULL OR refresh_issued_at < $1)
	`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *AdminRepository) queryOne(ctx context.Context, query string, args ...any) (models.Admin, error) {
	admin, err := scanAdmin(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Admin{}, ErrAdminNotFound
		}
		return models.Admin{}, err
	}
	return admin, nil
}

func scanAdmin(row pgx.Row) (models.Admin, error) {
	var admin models.Admin
	err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&admin.PasswordHash,
		&admin.Role,
		&admin.IsActive,
		&admin.RefreshTokenHash,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	return admin, err
}
