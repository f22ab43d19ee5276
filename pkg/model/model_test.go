package model

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid simple", "alice", nil},
		{"valid with numbers", "user123", nil},
		{"valid with underscore", "my_user", nil},
		{"valid with hyphen", "my-user", nil},
		{"valid mixed", "A-b_3", nil},
		{"valid max length", strings.Repeat("a", MaxUsernameLength), nil},
		{"empty", "", ErrUsernameEmpty},
		{"too long", strings.Repeat("a", MaxUsernameLength+1), ErrUsernameTooLong},
		{"contains space", "has space", ErrUsernameInvalidChars},
		{"contains comma", "a,b", ErrUsernameInvalidChars},
		{"contains dot", "user.name", ErrUsernameInvalidChars},
		{"unicode letter", "ñoño", ErrUsernameInvalidChars},
		{"tab character", "user\tname", ErrUsernameInvalidChars},
		{"newline", "user\nname", ErrUsernameInvalidChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			if err != tt.wantErr {
				t.Errorf("ValidateUsername(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		input   string
		wantErr error
	}{
		{"secret", nil},
		{"p@ss-w0rd!", nil},
		{"", ErrPasswordEmpty},
		{"two words", ErrPasswordInvalidChars},
		{"comma,pass", ErrPasswordInvalidChars},
	}

	for _, tt := range tests {
		if err := ValidatePassword(tt.input); err != tt.wantErr {
			t.Errorf("ValidatePassword(%q) = %v, want %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateNickname(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid", "Admin", nil},
		{"unicode", "Zoë", nil},
		{"empty", "", ErrNicknameEmpty},
		{"placeholder", NicknamePlaceholder, ErrNicknameEmpty},
		{"too long", strings.Repeat("n", MaxNicknameLength+1), ErrNicknameTooLong},
		{"space", "two words", ErrNicknameInvalidChars},
		{"escape", "bad\x1b[31m", ErrNicknameInvalidChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateNickname(tt.input); err != tt.wantErr {
				t.Errorf("ValidateNickname(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRoomName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid", "general", nil},
		{"valid max length", strings.Repeat("r", MaxRoomNameLength), nil},
		{"empty", "", ErrRoomNameEmpty},
		{"lobby", LobbyName, ErrRoomNameReserved},
		{"too long", strings.Repeat("r", MaxRoomNameLength+1), ErrRoomNameTooLong},
		{"space", "my room", ErrRoomNameInvalidChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateRoomName(tt.input); err != tt.wantErr {
				t.Errorf("ValidateRoomName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestRoleFor(t *testing.T) {
	if got := RoleFor(true); got != RoleAdmin {
		t.Errorf("RoleFor(true) = %v, want admin", got)
	}
	if got := RoleFor(false); got != RoleUser {
		t.Errorf("RoleFor(false) = %v, want user", got)
	}
	u := User{Username: "root", IsAdmin: true}
	if u.Role() != RoleAdmin {
		t.Errorf("User.Role() = %v, want admin", u.Role())
	}
}

func TestRoleValid(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{"RoleUser", RoleUser, true},
		{"RoleAdmin", RoleAdmin, true},
		{"negative", Role(-1), false},
		{"large", Role(99), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Role(%d).Valid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestRoleString(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "user"},
		{RoleAdmin, "admin"},
		{Role(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.role.String(); got != tt.want {
				t.Errorf("Role(%d).String() = %q, want %q", tt.role, got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
	}{
		{"admin", RoleAdmin},
		{"user", RoleUser},
		{"", RoleUser},
		{"moderator", RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseRole(tt.input); got != tt.want {
				t.Errorf("ParseRole(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
