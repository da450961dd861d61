package models

import (
	"strings"
	"time"
)

type AdminRole string

const (
	RoleSuperAdmin AdminRole = "super_admin"
	RoleAdmin      AdminRole = "admin"
	RoleEditor     AdminRole = "editor"
)

func (r AdminRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleEditor:
		return true
	}
	return false
}

type Admin struct {
	ID               string
	Email            string
	Name             *string
	PasswordHash     string
	Role             AdminRole
	IsActive         bool
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AuthenticatedSession is the "who am I" view returned by login, register,
// refresh and me.
type AuthenticatedSession struct {
	Email string    `json:"email"`
	Name  *string   `json:"name"`
	Role  AdminRole `json:"role"`
}

// ToPublicView drops id, secrets, timestamps and the active flag.
func (a Admin) ToPublicView() AuthenticatedSession {
	return AuthenticatedSession{
		Email: a.Email,
		Name:  a.Name,
		Role:  a.Role,
	}
}

// AdminView is what the admin management endpoints expose.
type AdminView struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Name     *string   `json:"name"`
	Role     AdminRole `json:"role"`
	IsActive bool      `json:"isActive"`
}

func (a Admin) ToView() AdminView {
	return AdminView{
		ID:       a.ID,
		Email:    a.Email,
		Name:     a.Name,
		Role:     a.Role,
		IsActive: a.IsActive,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
