package services

import (
	"buildtrack/models"
)

// Caller is the authenticated principal of a request.
type Caller struct {
	UserID           string
	Name             string
	Email            string
	Role             models.Role
	AssignedProjects map[string]bool
	IPAddress        string
}

// NewCaller builds a Caller from a loaded user.
func NewCaller(u *models.User) Caller {
	assigned := make(map[string]bool, len(u.AssignedProjects))
	for _, id := range u.AssignedProjects {
		assigned[id] = true
	}
	return Caller{
		UserID:           u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		AssignedProjects: assigned,
	}
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// ProjectScope returns the ids the caller may see, or nil for unrestricted.
func (c Caller) ProjectScope() []string {
	if c.IsAdmin() {
		return nil
	}
	ids := make([]string, 0, len(c.AssignedProjects))
	for id := range c.AssignedProjects {
		ids = append(ids, id)
	}
	return ids
}

// Role sets used by the operations below.
var (
	AdminOnly = []models.Role{models.RoleAdmin}
	Managers  = []models.Role{models.RoleAdmin, models.RoleManager}
	SiteStaff = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleSupervisor}
)

// Authorize fails with ErrInsufficientRole unless the caller's role is in allowed.
func Authorize(c Caller, allowed ...models.Role) error {
	for _, r := range allowed {
		if c.Role == r {
			return nil
		}
	}
	return ErrInsufficientRole
}

// CheckProjectAccess fails with ErrNotAssigned unless the caller is an admin or
// is assigned to projectID. Both errors match ErrForbidden.
func CheckProjectAccess(c Caller, projectID string) error {
	if c.IsAdmin() || c.AssignedProjects[projectID] {
		return nil
	}
	return ErrNotAssigned
}

