// Package rbac implements the role hierarchy checks (user < employee < admin).
package rbac

import (
	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/models"
)

const (
	User     = models.RoleUser
	Employee = models.RoleEmployee
	Admin    = models.RoleAdmin
)

// Level returns the hierarchy level of role; unknown roles are 0.
func Level(role models.Role) int { return role.Level() }

// Authorize reports whether actor satisfies required. Unknown actor roles
// are never authorized, whatever the requirement.
func Authorize(required, actor models.Role) bool {
	a := Level(actor)
	return a > 0 && a >= Level(required)
}

// Require is Authorize returning apperr.Forbidden on failure.
func Require(required, actor models.Role) error {
	if !Authorize(required, actor) {
		return apperr.Forbidden
	}
	return nil
}

// Permission names a capability granted to a role.
type Permission string

const (
	ViewShipments     Permission = "view_shipments"
	TrackPackages     Permission = "track_packages"
	UpdateProfile     Permission = "update_profile"
	ManageShipments   Permission = "manage_shipments"
	TrackDeliveries   Permission = "track_deliveries"
	CustomerSupport   Permission = "customer_support"
	RouteOptimization Permission = "route_optimization"
	AllPermissions    Permission = "all_permissions"
	UserManagement    Permission = "user_management"
	SystemSettings    Permission = "system_settings"
	Analytics         Permission = "analytics"
)

var permissions = map[models.Role][]Permission{
	User:     {ViewShipments, TrackPackages, UpdateProfile},
	Employee: {ManageShipments, TrackDeliveries, CustomerSupport, RouteOptimization},
	Admin:    {AllPermissions, UserManagement, SystemSettings, Analytics},
}

var displayNames = map[models.Role]string{
	User:     "User",
	Employee: "Employee",
	Admin:    "Admin",
}

// Permissions returns the permissions granted directly to role.
func Permissions(role models.Role) []Permission {
	p := permissions[role]
	out := make([]Permission, len(p))
	copy(out, p)
	return out
}

// Can reports whether role holds perm, directly or through a lower role.
// Admins hold every permission.
func Can(role models.Role, perm Permission) bool {
	if role == Admin {
		return true
	}
	for _, r := range models.AllRoles() {
		if !Authorize(r, role) {
			continue
		}
		for _, p := range permissions[r] {
			if p == perm {
				return true
			}
		}
	}
	return false
}

// RoleInfo describes a role for admin dashboards.
type RoleInfo struct {
	Key         models.Role  `json:"key"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// Roles lists every role in ascending order.
func Roles() []RoleInfo {
	all := models.AllRoles()
	out := make([]RoleInfo, 0, len(all))
	for _, r := range all {
		out = append(out, RoleInfo{Key: r, Name: displayNames[r], Permissions: Permissions(r)})
	}
	return out
}
