// Package testutil provides in-memory stand-ins for the Postgres and Redis
// backed stores, for use in tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"backoffice/api/internal/models"
	"backoffice/api/internal/repository"
)

type AdminStore struct {
	mu       sync.Mutex
	admins   map[string]models.Admin
	issuedAt map[string]time.Time

	// RefreshWrites counts calls that changed a refresh-token hash.
	RefreshWrites int
}

func NewAdminStore() *AdminStore {
	return &AdminStore{
		admins:   make(map[string]models.Admin),
		issuedAt: make(map[string]time.Time),
	}
}

func (s *AdminStore) Create(_ context.Context, admin models.Admin) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin.Email = models.NormalizeEmail(admin.Email)
	for _, existing := range s.admins {
		if existing.Email == admin.Email {
			return models.Admin{}, repository.ErrEmailTaken
		}
	}

	now := time.Now()
	admin.ID = uuid.NewString()
	admin.RefreshTokenHash = nil
	admin.CreatedAt = now
	admin.UpdatedAt = now
	s.admins[admin.ID] = admin
	return admin, nil
}

func (s *AdminStore) GetByID(_ context.Context, id string) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.admins[id]
	if !ok {
		return models.Admin{}, repository.ErrAdminNotFound
	}
	return admin, nil
}

func (s *AdminStore) FindByEmail(_ context.Context, email string) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByEmail(email, false)
}

func (s *AdminStore) FindActiveByEmail(_ context.Context, email string) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByEmail(email, true)
}

func (s *AdminStore) findByEmail(email string, activeOnly bool) (models.Admin, error) {
	email = models.NormalizeEmail(email)
	for _, admin := range s.admins {
		if admin.Email == email && (!activeOnly || admin.IsActive) {
			return admin, nil
		}
	}
	return models.Admin{}, repository.ErrAdminNotFound
}

func (s *AdminStore) List(_ context.Context) ([]models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admins := make([]models.Admin, 0, len(s.admins))
	for _, admin := range s.admins {
		admins = append(admins, admin)
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].Email < admins[j].Email })
	return admins, nil
}

func (s *AdminStore) Update(_ context.Context, id string, update repository.AdminUpdate) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.admins[id]
	if !ok {
		return models.Admin{}, repository.ErrAdminNotFound
	}
	if update.Email != nil {
		email := models.NormalizeEmail(*update.Email)
		for otherID, other := range s.admins {
			if otherID != id && other.Email == email {
				return models.Admin{}, repository.ErrEmailTaken
			}
		}
		admin.Email = email
	}
	if update.Name != nil {
		name := *update.Name
		admin.Name = &name
	}
	if update.PasswordHash != nil {
		admin.PasswordHash = *update.PasswordHash
	}
	if update.Role != nil {
		admin.Role = *update.Role
	}
	if update.IsActive != nil {
		admin.IsActive = *update.IsActive
	}
	admin.UpdatedAt = time.Now()
	s.admins[id] = admin
	return admin, nil
}

func (s *AdminStore) Delete(_ context.Context, id string) (models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.admins[id]
	if !ok {
		return models.Admin{}, repository.ErrAdminNotFound
	}
	delete(s.admins, id)
	delete(s.issuedAt, id)
	return admin, nil
}

func (s *AdminStore) SetRefreshTokenHash(_ context.Context, id string, hash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.admins[id]
	if !ok {
		return repository.ErrAdminNotFound
	}
	s.setHash(&admin, hash)
	return nil
}

func (s *AdminStore) SwapRefreshTokenHash(_ context.Context, id string, expected string, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.admins[id]
	if !ok {
		return repository.ErrAdminNotFound
	}
	if admin.RefreshTokenHash == nil || *admin.RefreshTokenHash != expected {
		return repository.ErrRefreshTokenStale
	}
	s.setHash(&admin, &next)
	return nil
}

func (s *AdminStore) setHash(admin *models.Admin, hash *string) {
	if hash == nil {
		admin.RefreshTokenHash = nil
		delete(s.issuedAt, admin.ID)
	} else {
		value := *hash
		admin.RefreshTokenHash = &value
		s.issuedAt[admin.ID] = time.Now()
	}
	s.admins[admin.ID] = *admin
	s.RefreshWrites++
}

func (s *AdminStore) ClearStaleRefreshTokens(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cleared int64
	for id, admin := range s.admins {
		if admin.RefreshTokenHash == nil {
			continue
		}
		issued, ok := s.issuedAt[id]
		if !admin.IsActive || !ok || issued.Before(cutoff) {
			admin.RefreshTokenHash = nil
			delete(s.issuedAt, id)
			s.admins[id] = admin
			cleared++
		}
	}
	return cleared, nil
}

// Put stores admin as-is, bypassing normalization. Handy for fixtures.
func (s *AdminStore) Put(admin models.Admin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[admin.ID] = admin
}

type CategoryStore struct {
	mu         sync.Mutex
	categories map[string]models.Category
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{categories: make(map[string]models.Category)}
}

func (s *CategoryStore) Create(_ context.Context, category models.Category) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxOrder := -1
	for _, existing := range s.categories {
		if existing.Slug == category.Slug {
			return models.Category{}, repository.ErrCategorySlugTaken
		}
		if existing.SortOrder > maxOrder {
			maxOrder = existing.SortOrder
		}
	}

	now := time.Now()
	category.ID = uuid.NewString()
	category.SortOrder = maxOrder + 1
	category.CreatedAt = now
	category.UpdatedAt = now
	s.categories[category.ID] = category
	return category, nil
}

func (s *CategoryStore) List(_ context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, category := range s.categories {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *CategoryStore) GetByID(_ context.Context, id string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[id]
	if !ok {
		return models.Category{}, repository.ErrCategoryNotFound
	}
	return category, nil
}

func (s *CategoryStore) Update(_ context.Context, id string, update repository.CategoryUpdate) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[id]
	if !ok {
		return models.Category{}, repository.ErrCategoryNotFound
	}
	if update.Name != nil {
		category.Name = *update.Name
	}
	if update.Slug != nil {
		category.Slug = *update.Slug
	}
	if update.Description != nil {
		description := *update.Description
		category.Description = &description
	}
	category.UpdatedAt = time.Now()
	s.categories[id] = category
	return category, nil
}

func (s *CategoryStore) Delete(_ context.Context, id string) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[id]
	if !ok {
		return models.Category{}, repository.ErrCategoryNotFound
	}
	delete(s.categories, id)
	return category, nil
}

// Revocations is an in-memory TokenRevocations.
type Revocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	Err     error
}

func NewRevocations() *Revocations {
	return &Revocations{revoked: make(map[string]time.Time)}
}

func (r *Revocations) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *Revocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	expiresAt, ok := r.revoked[tokenID]
	return ok && time.Now().Before(expiresAt), nil
}
