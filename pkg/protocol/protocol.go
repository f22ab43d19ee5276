// Package protocol defines the line-oriented wire format spoken between
// roomchat clients and the server, and the transports that carry it.
//
// Every message is one newline-terminated UTF-8 line. Server lines start with
// a tag (MSG, SYS_MSG, P_MSG, CMD_RESP, JOIN_SUCCESS, AUTH_SUCCESS, AUTH_FAIL)
// followed by a single space and the body.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxLineLength is the largest line either side accepts, in bytes.
	MaxLineLength = 4096

	// ResponseSeparator separates the lines of a multi-line CMD_RESP body.
	ResponseSeparator = "|"
)

// Server line tags.
const (
	TagChat        = "MSG"
	TagSystem      = "SYS_MSG"
	TagPrivate     = "P_MSG"
	TagCmdResp     = "CMD_RESP"
	TagJoinSuccess = "JOIN_SUCCESS"
	TagAuthSuccess = "AUTH_SUCCESS"
	TagAuthFail    = "AUTH_FAIL"
)

// Chat formats a room chat line: MSG <id> <nickname> [<room>] <text>.
func Chat(senderID uint64, nickname, room, text string) string {
	return fmt.Sprintf("%s %d %s [%s] %s", TagChat, senderID, nickname, room, text)
}

// System formats a server notice.
func System(text string) string {
	return TagSystem + " " + text
}

// Private formats a direct message line.
func Private(text string) string {
	return TagPrivate + " " + text
}

// CmdResp formats a command response; lines are joined with ResponseSeparator.
func CmdResp(lines ...string) string {
	return TagCmdResp + " " + strings.Join(lines, ResponseSeparator)
}

// CmdError formats a failed command response.
func CmdError(text string) string {
	return CmdResp("[Error] " + text)
}

// JoinSuccess tells a client it is now in room.
func JoinSuccess(room string) string {
	return TagJoinSuccess + " " + room
}

// AuthSuccess formats a successful LOGIN/SIGNUP reply.
func AuthSuccess(isAdmin bool, nickname string) string {
	return TagAuthSuccess + " " + strconv.FormatBool(isAdmin) + " " + nickname
}

// AuthFail formats a rejected LOGIN/SIGNUP reply.
func AuthFail(reason string) string {
	return TagAuthFail + " " + reason
}

// Kind classifies a server line.
type Kind int

const (
	KindUnknown Kind = iota
	KindChat
	KindSystem
	KindPrivate
	KindCmdResp
	KindJoinSuccess
	KindAuthSuccess
	KindAuthFail
)

func (k Kind) String() string {
	switch k {
	case KindChat:
		return TagChat
	case KindSystem:
		return TagSystem
	case KindPrivate:
		return TagPrivate
	case KindCmdResp:
		return TagCmdResp
	case KindJoinSuccess:
		return TagJoinSuccess
	case KindAuthSuccess:
		return TagAuthSuccess
	case KindAuthFail:
		return TagAuthFail
	default:
		return "UNKNOWN"
	}
}

var kindsByTag = map[string]Kind{
	TagChat:        KindChat,
	TagSystem:      KindSystem,
	TagPrivate:     KindPrivate,
	TagCmdResp:     KindCmdResp,
	TagJoinSuccess: KindJoinSuccess,
	TagAuthSuccess: KindAuthSuccess,
	TagAuthFail:    KindAuthFail,
}

// ChatLine is the decoded body of a MSG line.
type ChatLine struct {
	SenderID uint64
	Nickname string
	Room     string
	Text     string
}

// ServerMessage is one decoded server line.
type ServerMessage struct {
	Kind Kind
	Body string
	Chat *ChatLine // set for KindChat when the body is well formed
}

// Lines splits a CMD_RESP body into its display lines.
func (m ServerMessage) Lines() []string {
	return strings.Split(m.Body, ResponseSeparator)
}

// ParseServerLine decodes a line sent by the server. Unknown tags yield KindUnknown
// with the whole line as body.
func ParseServerLine(line string) ServerMessage {
	tag, body, _ := strings.Cut(line, " ")
	kind, ok := kindsByTag[tag]
	if !ok {
		return ServerMessage{Kind: KindUnknown, Body: line}
	}
	msg := ServerMessage{Kind: kind, Body: body}
	if kind == KindChat {
		msg.Chat = parseChatBody(body)
	}
	return msg
}

func parseChatBody(body string) *ChatLine {
	parts := strings.SplitN(body, " ", 4)
	if len(parts) < 3 {
		return nil
	}
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil
	}
	room := strings.TrimSuffix(strings.TrimPrefix(parts[2], "["), "]")
	cl := &ChatLine{SenderID: id, Nickname: parts[1], Room: room}
	if len(parts) == 4 {
		cl.Text = parts[3]
	}
	return cl
}

// ParseAuthSuccess decodes the body of an AUTH_SUCCESS line.
func ParseAuthSuccess(body string) (isAdmin bool, nickname string, err error) {
	flag, nick, ok := strings.Cut(body, " ")
	if !ok || nick == "" {
		return false, "", fmt.Errorf("protocol: malformed auth success %q", body)
	}
	isAdmin, err = strconv.ParseBool(flag)
	if err != nil {
		return false, "", fmt.Errorf("protocol: malformed auth success %q: %w", body, err)
	}
	return isAdmin, nick, nil
}
