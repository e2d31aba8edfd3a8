package rbac

import "strings"

type Role string
type Action string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Role-only actions. Ownership-aware decisions live in the policy package.
const (
	ActionCreateProject  Action = "project:create"
	ActionApproveBooking Action = "booking:approve"
	ActionModerateForum  Action = "forum:moderate"
	ActionPublishNews    Action = "news:publish"
	ActionManageUsers    Action = "users:manage"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleManager:
		return action == ActionCreateProject || action == ActionApproveBooking || action == ActionModerateForum || action == ActionPublishNews
	case RoleEmployee:
		return false
	default:
		return false
	}
}

// Normalize maps a raw role string onto a known role, ignoring case and
// surrounding whitespace. Unknown roles collapse to the least privileged one.
func Normalize(role string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(role))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	default:
		return RoleEmployee
	}
}

func IsAdmin(role Role) bool {
	return role == RoleAdmin
}

// IsPrivileged reports whether the role is admin or manager.
func IsPrivileged(role Role) bool {
	return role == RoleAdmin || role == RoleManager
}
