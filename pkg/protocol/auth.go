package protocol

import (
	"errors"
	"strings"
)

// AuthKind distinguishes the two pre-authentication requests.
type AuthKind int

const (
	AuthLogin AuthKind = iota
	AuthSignup
)

// Pre-authentication verbs.
const (
	VerbLogin  = "LOGIN"
	VerbSignup = "SIGNUP"
)

// ErrInvalidAuthCommand is returned for any pre-auth line that is not LOGIN or SIGNUP.
var ErrInvalidAuthCommand = errors.New("protocol: invalid auth command")

// AuthRequest is a decoded LOGIN or SIGNUP line. Missing fields are left empty
// and rejected by the server when validated.
type AuthRequest struct {
	Kind     AuthKind
	Username string
	Password string
	Nickname string
}

// ParseAuth decodes a pre-authentication line.
func ParseAuth(line string) (AuthRequest, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return AuthRequest{}, ErrInvalidAuthCommand
	}
	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch fields[0] {
	case VerbLogin:
		return AuthRequest{Kind: AuthLogin, Username: field(1), Password: field(2)}, nil
	case VerbSignup:
		return AuthRequest{Kind: AuthSignup, Username: field(1), Password: field(2), Nickname: field(3)}, nil
	default:
		return AuthRequest{}, ErrInvalidAuthCommand
	}
}

// LoginLine formats a LOGIN request.
func LoginLine(username, password string) string {
	return VerbLogin + " " + username + " " + password
}

// SignupLine formats a SIGNUP request.
func SignupLine(username, password, nickname string) string {
	return VerbSignup + " " + username + " " + password + " " + nickname
}
