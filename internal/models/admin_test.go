package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPublicViewExcludesPrivateFields(t *testing.T) {
	name := "Jane"
	refresh := "$2a$10$refreshhash"
	admins := []Admin{
		{
			ID:               "0b6c7f0e-6f35-4d8e-9a57-8f2f1c1c0c01",
			Email:            "jane@example.com",
			Name:             &name,
			PasswordHash:     "$2a$10$passwordhash",
			Role:             RoleSuperAdmin,
			IsActive:         true,
			RefreshTokenHash: &refresh,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		},
		{ID: "x", Email: "nobody@example.com", Role: RoleEditor},
	}

	for _, admin := range admins {
		raw, err := json.Marshal(admin.ToPublicView())
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(raw, &fields))
		assert.ElementsMatch(t, []string{"email", "name", "role"}, keys(fields))
		assert.NotContains(t, string(raw), "hash")
		assert.NotContains(t, string(raw), admin.ID)
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleEditor.Valid())
	assert.True(t, RoleSuperAdmin.Valid())
	assert.False(t, AdminRole("owner").Valid())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
