package model

// Role represents a user's permission level.
type Role int

const (
	RoleUser  Role = iota // Default role, can chat, create and join rooms
	RoleAdmin             // Can list every session, kick users and delete rooms
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// RoleFor maps the isAdmin flag of a user record to a Role.
func RoleFor(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// ParseRole converts a string to a Role.
func ParseRole(s string) Role {
	if s == "admin" {
		return RoleAdmin
	}
	return RoleUser
}

// Valid returns true if the role is a recognised value.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}
