// Package rbac provides role-based access control checks.
package rbac

import "github.com/NicolasHaas/roomchat/pkg/model"

// permissionMatrix maps roles to their allowed permissions.
var permissionMatrix = map[model.Role]map[model.Permission]bool{
	model.RoleAdmin: {
		model.PermListAllSessions: true,
		model.PermKickUser:        true,
		model.PermDeleteRoom:      true,
	},
	model.RoleUser: {
		// No special permissions: chat, create and join rooms only
	},
}

// DeniedMessage is the user-facing text for a missing permission.
const DeniedMessage = "You do not have permission to use this command."

// HasPermission checks if a role has a specific permission.
func HasPermission(role model.Role, perm model.Permission) bool {
	perms, ok := permissionMatrix[role]
	if !ok {
		return false
	}
	return perms[perm]
}

// RequirePermission returns an error message if the role lacks the permission, or empty string if allowed.
func RequirePermission(role model.Role, perm model.Permission) string {
	if HasPermission(role, perm) {
		return ""
	}
	return DeniedMessage
}

// PermName returns the stable name of a permission, used in logs.
func PermName(p model.Permission) string {
	switch p {
	case model.PermListAllSessions:
		return "list_all_sessions"
	case model.PermKickUser:
		return "kick_user"
	case model.PermDeleteRoom:
		return "delete_room"
	default:
		return "unknown"
	}
}
