package protocol

import (
	"errors"
	"strings"
)

// Command is one decoded post-authentication input line. The set of variants
// is closed: only the types in this file implement it.
type Command interface {
	// Name is the slash command as typed, or "chat" for plain messages.
	Name() string
	isCommand()
}

type (
	Help   struct{}
	Who    struct{}
	WhoAll struct{}
	List   struct{}
	Leave  struct{}
	Exit   struct{}

	Create struct{ Room string }
	Join   struct{ Room string }
	Kick   struct{ Username string }

	DeleteRoom struct{ Room string }

	// Msg is a private message to an online user.
	Msg struct {
		To   string
		Text string
	}

	// ChatText is any line without a leading slash.
	ChatText struct{ Text string }
)

func (Help) Name() string       { return "/help" }
func (Who) Name() string        { return "/who" }
func (WhoAll) Name() string     { return "/whoall" }
func (List) Name() string       { return "/list" }
func (Leave) Name() string      { return "/leave" }
func (Exit) Name() string       { return "/exit" }
func (Create) Name() string     { return "/create" }
func (Join) Name() string       { return "/join" }
func (Kick) Name() string       { return "/kick" }
func (DeleteRoom) Name() string { return "/deleteroom" }
func (Msg) Name() string        { return "/msg" }
func (ChatText) Name() string   { return "chat" }

func (Help) isCommand()       {}
func (Who) isCommand()        {}
func (WhoAll) isCommand()     {}
func (List) isCommand()       {}
func (Leave) isCommand()      {}
func (Exit) isCommand()       {}
func (Create) isCommand()     {}
func (Join) isCommand()       {}
func (Kick) isCommand()       {}
func (DeleteRoom) isCommand() {}
func (Msg) isCommand()        {}
func (ChatText) isCommand()   {}

// ParseError reports a malformed or unknown command. Its message is shown to
// the user verbatim.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return e.Msg }

// IsParseError reports whether err is a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func usage(text string) error {
	return &ParseError{Msg: "Usage: " + text}
}

// ParseCommand decodes one input line. Lines without a leading '/' are chat.
// Extra arguments to commands that take none are ignored.
func ParseCommand(line string) (Command, error) {
	if !strings.HasPrefix(line, "/") {
		return ChatText{Text: line}, nil
	}

	name, rest, _ := strings.Cut(line, " ")
	args := strings.Fields(rest)
	first := ""
	if len(args) > 0 {
		first = args[0]
	}

	switch name {
	case "/help":
		return Help{}, nil
	case "/who":
		return Who{}, nil
	case "/whoall":
		return WhoAll{}, nil
	case "/list":
		return List{}, nil
	case "/leave":
		return Leave{}, nil
	case "/exit":
		return Exit{}, nil
	case "/create":
		if first == "" {
			return nil, usage("/create <roomname>")
		}
		return Create{Room: first}, nil
	case "/join":
		if first == "" {
			return nil, usage("/join <roomname>")
		}
		return Join{Room: first}, nil
	case "/kick":
		if first == "" {
			return nil, usage("/kick <username>")
		}
		return Kick{Username: first}, nil
	case "/deleteroom":
		if first == "" {
			return nil, usage("/deleteroom <roomname>")
		}
		return DeleteRoom{Room: first}, nil
	case "/msg":
		to, text, _ := strings.Cut(strings.TrimLeft(rest, " \t"), " ")
		text = strings.TrimSpace(text)
		if to == "" || text == "" {
			return nil, usage("/msg <username> <message>")
		}
		return Msg{To: to, Text: text}, nil
	default:
		return nil, &ParseError{Msg: "Unknown command '" + name + "'. Type /help for a list of commands."}
	}
}
