package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 32
	MaxNicknameLength = 32

	// NicknamePlaceholder is what clients send when no nickname was entered.
	NicknamePlaceholder = "N/A"
)

var ErrUsernameEmpty = errors.New("username must not be empty")
var ErrUsernameTooLong = fmt.Errorf("username must not exceed %d characters", MaxUsernameLength)
var ErrUsernameInvalidChars = errors.New("username must contain only alphanumeric characters, underscores, or hyphens")
var ErrPasswordEmpty = errors.New("password must not be empty")
var ErrPasswordInvalidChars = errors.New("password must not contain whitespace or commas")
var ErrNicknameEmpty = errors.New("nickname cannot be empty")
var ErrNicknameTooLong = fmt.Errorf("nickname must not exceed %d characters", MaxNicknameLength)
var ErrNicknameInvalidChars = errors.New("nickname must not contain whitespace, commas, or control characters")

// User is a record of the credential store.
type User struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"-" yaml:"-"`
	IsAdmin  bool   `json:"is_admin" yaml:"is_admin"`
	Nickname string `json:"nickname" yaml:"nickname"`
}

// Role returns the role the user's admin flag grants.
func (u *User) Role() Role {
	return RoleFor(u.IsAdmin)
}

// Validate checks every field of a record before it is stored.
func (u *User) Validate() error {
	if err := ValidateUsername(u.Username); err != nil {
		return err
	}
	if err := ValidatePassword(u.Password); err != nil {
		return err
	}
	return ValidateNickname(u.Nickname)
}

// ValidateUsername checks that a username is 1-32 ASCII alphanumeric, underscore,
// or hyphen characters. Returns nil on success or a descriptive error.
func ValidateUsername(name string) error {
	if len(name) == 0 {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return ErrUsernameInvalidChars
		}
	}
	return nil
}

// ValidatePassword rejects passwords the line protocol or the flat-file store cannot carry.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	if strings.ContainsFunc(password, func(r rune) bool { return unicode.IsSpace(r) || r == ',' }) {
		return ErrPasswordInvalidChars
	}
	return nil
}

// ValidateNickname checks a display name. Nicknames may collide between users.
func ValidateNickname(nick string) error {
	if nick == "" || nick == NicknamePlaceholder {
		return ErrNicknameEmpty
	}
	if utf8.RuneCountInString(nick) > MaxNicknameLength {
		return ErrNicknameTooLong
	}
	if strings.ContainsFunc(nick, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) || r == ',' }) {
		return ErrNicknameInvalidChars
	}
	return nil
}
