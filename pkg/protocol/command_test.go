package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr string
	}{
		{line: "hello everyone", want: ChatText{Text: "hello everyone"}},
		{line: "", want: ChatText{Text: ""}},
		{line: " /who", want: ChatText{Text: " /who"}},
		{line: "/help", want: Help{}},
		{line: "/who", want: Who{}},
		{line: "/whoall", want: WhoAll{}},
		{line: "/list extra", want: List{}},
		{line: "/leave", want: Leave{}},
		{line: "/exit", want: Exit{}},
		{line: "/create games", want: Create{Room: "games"}},
		{line: "/create  games  more", want: Create{Room: "games"}},
		{line: "/create", wantErr: "Usage: /create <roomname>"},
		{line: "/join games", want: Join{Room: "games"}},
		{line: "/join", wantErr: "Usage: /join <roomname>"},
		{line: "/kick bob", want: Kick{Username: "bob"}},
		{line: "/kick", wantErr: "Usage: /kick <username>"},
		{line: "/deleteroom games", want: DeleteRoom{Room: "games"}},
		{line: "/deleteroom ", wantErr: "Usage: /deleteroom <roomname>"},
		{line: "/msg bob hello  there ", want: Msg{To: "bob", Text: "hello  there"}},
		{line: "/msg  bob hi", want: Msg{To: "bob", Text: "hi"}},
		{line: "/msg bob", wantErr: "Usage: /msg <username> <message>"},
		{line: "/msg bob    ", wantErr: "Usage: /msg <username> <message>"},
		{line: "/msg", wantErr: "Usage: /msg <username> <message>"},
		{line: "/dance", wantErr: "Unknown command '/dance'. Type /help for a list of commands."},
		{line: "/WHO", wantErr: "Unknown command '/WHO'. Type /help for a list of commands."},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseCommand(%q): expected error, got %#v", tt.line, got)
				}
				if !IsParseError(err) {
					t.Fatalf("ParseCommand(%q): error %T is not a ParseError", tt.line, err)
				}
				if err.Error() != tt.wantErr {
					t.Fatalf("ParseCommand(%q) err = %q, want %q", tt.line, err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommand(%q): unexpected error: %v", tt.line, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseCommand(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestCommandNames(t *testing.T) {
	cmds := map[string]Command{
		"/help":       Help{},
		"/who":        Who{},
		"/whoall":     WhoAll{},
		"/list":       List{},
		"/leave":      Leave{},
		"/exit":       Exit{},
		"/create":     Create{},
		"/join":       Join{},
		"/kick":       Kick{},
		"/deleteroom": DeleteRoom{},
		"/msg":        Msg{},
		"chat":        ChatText{},
	}
	for want, cmd := range cmds {
		if got := cmd.Name(); got != want {
			t.Errorf("%T.Name() = %q, want %q", cmd, got, want)
		}
	}
}
