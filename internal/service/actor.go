package service

import (
	"slices"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
)

// Actor is the authenticated user a service call runs on behalf of. The
// zero Actor is the system itself (scheduled commands).
type Actor struct {
	ID    identity.ID
	Roles []model.Role
}

// HasRole reports whether the actor holds any of roles.
func (a Actor) HasRole(roles ...model.Role) bool {
	for _, r := range roles {
		if slices.Contains(a.Roles, r) {
			return true
		}
	}
	return false
}

// System reports whether the call was made by a scheduled command.
func (a Actor) System() bool { return a.ID == 0 }
