package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"backoffice/api/internal/models"
)

const categoryColumns = `id::text, name, slug, description, sort_order, created_at, updated_at`

type CategoryUpdate struct {
	Name        *string
	Slug        *string
	Description *string
}

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create appends the category after the current last sort position.
func (r *CategoryRepository) Create(ctx context.Context, category models.Category) (models.Category, error) {
	const query = `
		INSERT INTO categories (name, slug, description, sort_order, created_at, updated_at)
		SELECT $1, $2, $3, COALESCE(MAX(sort_order), -1) + 1, NOW(), NOW()
		FROM categories
		RETURNING ` + categoryColumns

	created, err := scanCategory(r.pool.QueryRow(ctx, query, category.Name, category.Slug, category.Description))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Category{}, ErrCategorySlugTaken
		}
		return models.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return created, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (models.Category, error) {
	if !validID(id) {
		return models.Category{}, ErrCategoryNotFound
	}
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *CategoryRepository) Update(ctx context.Context, id string, update CategoryUpdate) (models.Category, error) {
	if !validID(id) {
		return models.Category{}, ErrCategoryNotFound
	}
	const query = `
		UPDATE categories
		SET name = COALESCE($2::text, name),
		    slug = COALESCE($3::text, slug),
		    description = COALESCE($4::text, description),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + categoryColumns

	category, err := scanCategory(r.pool.QueryRow(ctx, query, id, update.Name, update.Slug, update.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Category{}, ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return models.Category{}, ErrCategorySlugTaken
		}
		return models.Category{}, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) (models.Category, error) {
	if !validID(id) {
		return models.Category{}, ErrCategoryNotFound
	}
	const query = `DELETE FROM categories WHERE id = $1 RETURNING ` + categoryColumns
	return r.queryOne(ctx, query, id)
}

func (r *CategoryRepository) queryOne(ctx context.Context, query string, args ...any) (models.Category, error) {
	category, err := scanCategory(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Category{}, ErrCategoryNotFound
		}
		return models.Category{}, err
	}
	return category, nil
}

func scanCategory(row pgx.Row) (models.Category, error) {
	var category models.Category
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.SortOrder,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	return category, err
}
