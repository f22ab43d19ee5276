package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"chat", Chat(7, "Bob", "general", "hi there"), "MSG 7 Bob [general] hi there"},
		{"system", System("[Lobby] Bob has joined!"), "SYS_MSG [Lobby] Bob has joined!"},
		{"private", Private("(to Bob): hey"), "P_MSG (to Bob): hey"},
		{"cmd resp", CmdResp("--- Active Rooms ---", " - a", " - b"), "CMD_RESP --- Active Rooms ---| - a| - b"},
		{"cmd error", CmdError("Invalid room name."), "CMD_RESP [Error] Invalid room name."},
		{"join", JoinSuccess("Lobby"), "JOIN_SUCCESS Lobby"},
		{"auth ok", AuthSuccess(true, "Admin"), "AUTH_SUCCESS true Admin"},
		{"auth fail", AuthFail("Invalid credentials"), "AUTH_FAIL Invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseServerLine(t *testing.T) {
	tests := []struct {
		line string
		want ServerMessage
	}{
		{
			line: "MSG 3 Alice [general] hello  world",
			want: ServerMessage{
				Kind: KindChat,
				Body: "3 Alice [general] hello  world",
				Chat: &ChatLine{SenderID: 3, Nickname: "Alice", Room: "general", Text: "hello  world"},
			},
		},
		{
			line: "MSG garbage",
			want: ServerMessage{Kind: KindChat, Body: "garbage"},
		},
		{
			line: "SYS_MSG [Lobby] Bob has left.",
			want: ServerMessage{Kind: KindSystem, Body: "[Lobby] Bob has left."},
		},
		{
			line: "JOIN_SUCCESS Lobby",
			want: ServerMessage{Kind: KindJoinSuccess, Body: "Lobby"},
		},
		{
			line: "AUTH_FAIL User already exists",
			want: ServerMessage{Kind: KindAuthFail, Body: "User already exists"},
		},
		{
			line: "HELLO world",
			want: ServerMessage{Kind: KindUnknown, Body: "HELLO world"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseServerLine(tt.line)); diff != "" {
				t.Errorf("ParseServerLine mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestServerMessageLines(t *testing.T) {
	msg := ParseServerLine(CmdResp("--- Users in [Lobby] ---", " - Admin", " - Bob"))
	want := []string{"--- Users in [Lobby] ---", " - Admin", " - Bob"}
	if diff := cmp.Diff(want, msg.Lines()); diff != "" {
		t.Errorf("Lines mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAuthSuccess(t *testing.T) {
	isAdmin, nick, err := ParseAuthSuccess("true Admin")
	if err != nil {
		t.Fatalf("ParseAuthSuccess: unexpected error: %v", err)
	}
	if !isAdmin || nick != "Admin" {
		t.Fatalf("ParseAuthSuccess = (%v, %q), want (true, Admin)", isAdmin, nick)
	}

	for _, body := range []string{"", "true", "maybe Bob"} {
		if _, _, err := ParseAuthSuccess(body); err == nil {
			t.Errorf("ParseAuthSuccess(%q): expected error", body)
		}
	}
}

func TestParseAuth(t *testing.T) {
	tests := []struct {
		line    string
		want    AuthRequest
		wantErr bool
	}{
		{line: "LOGIN alice secret", want: AuthRequest{Kind: AuthLogin, Username: "alice", Password: "secret"}},
		{line: "LOGIN alice", want: AuthRequest{Kind: AuthLogin, Username: "alice"}},
		{line: "SIGNUP bob pw Bobby", want: AuthRequest{Kind: AuthSignup, Username: "bob", Password: "pw", Nickname: "Bobby"}},
		{line: "SIGNUP bob pw", want: AuthRequest{Kind: AuthSignup, Username: "bob", Password: "pw"}},
		{line: "/who", wantErr: true},
		{line: "", wantErr: true},
		{line: "login alice secret", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseAuth(tt.line)
			if tt.wantErr {
				if err != ErrInvalidAuthCommand {
					t.Fatalf("ParseAuth(%q) err = %v, want ErrInvalidAuthCommand", tt.line, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAuth(%q): unexpected error: %v", tt.line, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseAuth mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAuthLines(t *testing.T) {
	if got := LoginLine("alice", "pw"); got != "LOGIN alice pw" {
		t.Errorf("LoginLine = %q", got)
	}
	if got := SignupLine("bob", "pw", "Bobby"); got != "SIGNUP bob pw Bobby" {
		t.Errorf("SignupLine = %q", got)
	}
}
