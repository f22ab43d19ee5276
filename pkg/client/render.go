package client

import (
	"fmt"
	"strings"

	"github.com/NicolasHaas/roomchat/pkg/protocol"
)

// Render formats a server message for a plain-text terminal.
func Render(msg protocol.ServerMessage) string {
	switch msg.Kind {
	case protocol.KindChat:
		if msg.Chat == nil {
			return msg.Body
		}
		return fmt.Sprintf("[%s] %s: %s", msg.Chat.Room, msg.Chat.Nickname, msg.Chat.Text)
	case protocol.KindSystem:
		return "*** " + msg.Body
	case protocol.KindPrivate:
		return "[PM] " + msg.Body
	case protocol.KindCmdResp:
		return strings.Join(msg.Lines(), "\n")
	case protocol.KindJoinSuccess:
		return "*** You are now in [" + msg.Body + "]"
	case protocol.KindAuthSuccess, protocol.KindAuthFail:
		return msg.Kind.String() + " " + msg.Body
	default:
		return msg.Body
	}
}

// LocalHelp is shown for /help without a round trip to the server.
func LocalHelp(isAdmin bool) string {
	lines := []string{
		"--- Available Commands ---",
		"/help                      Show this help message",
		"/who                       List users in your current room",
		"/list                      List all available rooms",
		"/create <roomname>         Create a new room",
		"/join <roomname>           Join an existing room",
		"/leave                     Return to the Lobby",
		"/msg <username> <message>  Send a private message",
		"/exit                      Disconnect from the server",
	}
	if isAdmin {
		lines = append(lines,
			"--- Admin Commands ---",
			"/whoall                    List all online users and their rooms",
			"/kick <username>           Move a user back to the Lobby",
			"/deleteroom <roomname>     Delete a room and move its users to the Lobby",
		)
	}
	return strings.Join(lines, "\n")
}
