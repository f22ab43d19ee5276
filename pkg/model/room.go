package model

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// LobbyName is the permanent default room every session starts in.
	LobbyName = "Lobby"

	MaxRoomNameLength = 64
)

var ErrRoomNameEmpty = errors.New("room name must not be empty")
var ErrRoomNameTooLong = errors.New("room name too long")
var ErrRoomNameInvalidChars = errors.New("room name must not contain whitespace or control characters")
var ErrRoomNameReserved = errors.New("room name is reserved")

// ValidateRoomName checks a name for a user-created room.
func ValidateRoomName(name string) error {
	if name == "" {
		return ErrRoomNameEmpty
	}
	if name == LobbyName {
		return ErrRoomNameReserved
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	if strings.ContainsFunc(name, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) {
		return ErrRoomNameInvalidChars
	}
	return nil
}
