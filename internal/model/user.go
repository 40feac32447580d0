package model

import (
	"slices"
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
)

// Role is a coarse-grained capability attached to a user.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleParent  Role = "PARENT"
	RoleTutor   Role = "TUTOR"
	RoleAdmin   Role = "ADMIN"
)

// PlannerRoles may author test plans for other users.
var PlannerRoles = []Role{RoleParent, RoleTutor, RoleAdmin}

// AuthorRoles may edit the question bank.
var AuthorRoles = []Role{RoleTutor, RoleAdmin}

// User represents any account: students, parents, tutors and admins.
type User struct {
	ID           identity.ID `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"-"`
	Roles        []Role      `json:"roles"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Identity implements identity.Identifiable.
func (u User) Identity() identity.ID { return u.ID }

// HasRole reports whether the user holds any of roles.
func (u User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if slices.Contains(u.Roles, r) {
			return true
		}
	}
	return false
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// CreateUserRequest is the payload for creating an account.
type CreateUserRequest struct {
	Email    string   `json:"email" binding:"required,email,max=255"`
	Name     string   `json:"name" binding:"required,min=2,max=100"`
	Password string   `json:"password" binding:"required,min=8,max=128"`
	Roles    []string `json:"roles" binding:"required,min=1,max=4,dive,oneof=STUDENT PARENT TUTOR ADMIN"`
}

// UserListQuery is the query string of the admin user list.
type UserListQuery struct {
	Role    string `form:"role" binding:"omitempty,oneof=STUDENT PARENT TUTOR ADMIN"`
	Search  string `form:"search" binding:"omitempty,max=100"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}
