package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"backoffice/api/internal/apperror"
	"backoffice/api/internal/models"
	"backoffice/api/internal/repository"
	"backoffice/api/internal/slug"
)

var ErrCategoryExists = apperror.Conflict("Category with this name already exists")

// descriptionPolicy keeps basic formatting in descriptions and strips
// scripts, handlers and unsafe URLs.
var descriptionPolicy = bluemonday.UGCPolicy()

type CategoryService struct {
	categories CategoryStore
}

func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

type CreateCategoryInput struct {
	Name        string
	Description *string
}

func (s *CategoryService) Create(ctx context.Context, input CreateCategoryInput) (models.Category, error) {
	categorySlug := slug.Make(input.Name)
	if categorySlug == "" {
		return models.Category{}, apperror.Validation("name must contain letters or digits")
	}

	category, err := s.categories.Create(ctx, models.Category{
		Name:        input.Name,
		Slug:        categorySlug,
		Description: sanitizeDescription(input.Description),
	})
	if errors.Is(err, repository.ErrCategorySlugTaken) {
		return models.Category{}, ErrCategoryExists
	}
	return category, err
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

func (s *CategoryService) GetByID(ctx context.Context, id string) (models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return models.Category{}, categoryNotFound(id)
	}
	return category, err
}

type UpdateCategoryInput struct {
	Name        *string
	Description *string
}

// Update leaves the slug alone so existing links keep working.
func (s *CategoryService) Update(ctx context.Context, id string, input UpdateCategoryInput) (models.Category, error) {
	category, err := s.categories.Update(ctx, id, repository.CategoryUpdate{
		Name:        input.Name,
		Description: sanitizeDescription(input.Description),
	})
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return models.Category{}, categoryNotFound(id)
	}
	return category, err
}

func (s *CategoryService) Delete(ctx context.Context, id string) (models.Category, error) {
	category, err := s.categories.Delete(ctx, id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return models.Category{}, categoryNotFound(id)
	}
	return category, err
}

func categoryNotFound(id string) error {
	return apperror.NotFound(fmt.Sprintf("Category with ID %s not found", id))
}

func sanitizeDescription(description *string) *string {
	if description == nil {
		return nil
	}
	clean := strings.TrimSpace(descriptionPolicy.Sanitize(*description))
	return &clean
}
