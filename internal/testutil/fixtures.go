package testutil

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"backoffice/api/internal/models"
	"backoffice/api/internal/security"
)

const TestSecret = "test-signing-secret"

// NewHasher returns a hasher at bcrypt's minimum cost to keep tests fast.
func NewHasher() *security.Hasher {
	return security.NewHasher(bcrypt.MinCost)
}

func NewIssuer() *security.TokenIssuer {
	return security.NewTokenIssuer(TestSecret, 15*time.Minute, 7*24*time.Hour)
}

// MustCreateAdmin stores an admin with a hashed password.
func MustCreateAdmin(t testing.TB, store *AdminStore, hasher *security.Hasher, email, password string, role models.AdminRole, active bool) models.Admin {
	t.Helper()

	hash, err := hasher.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	name := "Test " + string(role)
	admin, err := store.Create(context.Background(), models.Admin{
		Email:        email,
		Name:         &name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return admin
}
