package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/NicolasHaas/roomchat/pkg/model"
	"github.com/NicolasHaas/roomchat/pkg/protocol"
	"github.com/NicolasHaas/roomchat/pkg/rbac"
)

// Dispatcher executes decoded commands on behalf of authenticated sessions.
type Dispatcher struct {
	hub     *Hub
	metrics *Metrics
}

// NewDispatcher creates a dispatcher over hub.
func NewDispatcher(hub *Hub, metrics *Metrics) *Dispatcher {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Dispatcher{hub: hub, metrics: metrics}
}

// HandleLine decodes and executes one input line from session id. It returns
// false when the session should end.
func (d *Dispatcher) HandleLine(id uint64, line string) bool {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		self, ok := d.hub.Sessions.Find(id)
		if !ok {
			return false
		}
		d.replyError(self, err.Error())
		return true
	}
	return d.Dispatch(id, cmd)
}

// Dispatch executes cmd for session id. It returns false when the session
// should end, either on /exit or because the session is gone.
func (d *Dispatcher) Dispatch(id uint64, cmd protocol.Command) bool {
	self, ok := d.hub.Sessions.Find(id)
	if !ok {
		return false
	}

	switch c := cmd.(type) {
	case protocol.Help:
		d.handleHelp(self)
	case protocol.Who:
		d.handleWho(self)
	case protocol.WhoAll:
		d.handleWhoAll(self)
	case protocol.List:
		d.handleList(self)
	case protocol.Create:
		d.handleCreate(self, c.Room)
	case protocol.Join:
		d.handleJoin(self, c.Room)
	case protocol.Leave:
		d.handleLeave(self)
	case protocol.Msg:
		d.handleMsg(self, c.To, c.Text)
	case protocol.Kick:
		d.handleKick(self, c.Username)
	case protocol.DeleteRoom:
		d.handleDeleteRoom(self, c.Room)
	case protocol.ChatText:
		d.handleChat(self, c.Text)
	case protocol.Exit:
		return false
	default:
		slog.Warn("unhandled command", "session", id, "cmd", cmd.Name())
		d.replyError(self, fmt.Sprintf("Unknown command '%s'. Type /help for a list of commands.", cmd.Name()))
	}
	return true
}

func (d *Dispatcher) reply(s model.Session, line string) {
	if s.Conn == nil {
		return
	}
	if err := s.Conn.Send(line); err != nil {
		d.metrics.DeliveryFailures.Add(1)
		slog.Debug("reply failed", "session", s.ID, "err", err)
	}
}

func (d *Dispatcher) replyError(s model.Session, text string) {
	d.reply(s, protocol.CmdError(text))
}

// permitted replies with a denial and returns false if s lacks perm.
func (d *Dispatcher) permitted(s model.Session, perm model.Permission) bool {
	if msg := rbac.RequirePermission(s.Role(), perm); msg != "" {
		slog.Info("permission denied", "session", s.ID, "user", s.Username, "perm", rbac.PermName(perm))
		d.replyError(s, msg)
		return false
	}
	return true
}

func userHelp() []string {
	return []string{
		"--- Available Commands ---",
		"/help - Show this help message",
		"/who - List users in your current room",
		"/list - List all available rooms",
		"/create <roomname> - Create a new room",
		"/join <roomname> - Join an existing room",
		"/leave - Return to the Lobby",
		"/msg <username> <message> - Send a private message",
		"/exit - Disconnect from the server",
	}
}

func adminHelp() []string {
	return []string{
		"--- Admin Commands ---",
		"/whoall - List all online users and their rooms",
		"/kick <username> - Move a user back to the Lobby",
		"/deleteroom <roomname> - Delete a room and move its users to the Lobby",
	}
}

func (d *Dispatcher) handleHelp(self model.Session) {
	lines := userHelp()
	if self.IsAdmin {
		lines = append(lines, adminHelp()...)
	}
	d.reply(self, protocol.CmdResp(lines...))
}

func (d *Dispatcher) handleWho(self model.Session) {
	room, members, ok := d.hub.Sessions.RoomMembers(self.ID)
	if !ok {
		return
	}
	lines := []string{fmt.Sprintf("--- Users in [%s] ---", room)}
	for _, m := range members {
		lines = append(lines, " - "+m.Nickname)
	}
	d.reply(self, protocol.CmdResp(lines...))
}

func (d *Dispatcher) handleWhoAll(self model.Session) {
	if !d.permitted(self, model.PermListAllSessions) {
		return
	}
	lines := []string{"--- All Online Users ---"}
	for _, s := range d.hub.Sessions.Snapshot(nil) {
		lines = append(lines, fmt.Sprintf(" - %s (%s) in [%s]", s.Nickname, s.Username, s.Room))
	}
	d.reply(self, protocol.CmdResp(lines...))
}

func (d *Dispatcher) handleList(self model.Session) {
	lines := []string{"--- Active Rooms ---"}
	rooms := d.hub.Rooms.List()
	if len(rooms) == 0 {
		lines = append(lines, "[No rooms available yet]")
	}
	for _, name := range rooms {
		lines = append(lines, " - "+name)
	}
	d.reply(self, protocol.CmdResp(lines...))
}

func (d *Dispatcher) handleCreate(self model.Session, name string) {
	err := d.hub.Rooms.Create(name)
	switch {
	case err == nil:
		d.metrics.RoomsCreated.Add(1)
		slog.Info("room created", "room", name, "user", self.Username)
		d.reply(self, protocol.CmdResp(fmt.Sprintf("Room '%s' created successfully.", name)))
	case errors.Is(err, ErrRoomExists):
		d.replyError(self, fmt.Sprintf("Room '%s' already exists.", name))
	default:
		d.replyError(self, "Invalid room name.")
	}
}

// moveLocked relocates s to room "to" and emits the notices of the
// transition: leave to the old room, confirmation to s, join to the new room.
func moveLocked(sessions *SessionTx, s *model.Session, to string) {
	from := s.Room
	sessions.BroadcastToRoom(from, protocol.System(fmt.Sprintf("[%s] %s has left.", from, s.Nickname)))
	s.Room = to
	sessions.Send(s, protocol.JoinSuccess(to))
	sessions.BroadcastToRoom(to, protocol.System(fmt.Sprintf("[%s] %s has joined!", to, s.Nickname)))
}

func (d *Dispatcher) handleJoin(self model.Session, name string) {
	d.hub.inOrder(func(rooms *RoomTx, sessions *SessionTx) {
		s := sessions.Get(self.ID)
		if s == nil {
			return
		}
		if !rooms.Exists(name) {
			sessions.Send(s, protocol.CmdError(fmt.Sprintf("Room '%s' does not exist.", name)))
			return
		}
		if s.Room == name {
			sessions.Send(s, protocol.CmdError("You are already in that room."))
			return
		}
		slog.Debug("session moving", "session", s.ID, "from", s.Room, "room", name)
		moveLocked(sessions, s, name)
	})
}

func (d *Dispatcher) handleLeave(self model.Session) {
	d.hub.inOrder(func(_ *RoomTx, sessions *SessionTx) {
		s := sessions.Get(self.ID)
		if s == nil {
			return
		}
		if s.Room == model.LobbyName {
			sessions.Send(s, protocol.CmdError("You are already in the Lobby."))
			return
		}
		moveLocked(sessions, s, model.LobbyName)
	})
}

func (d *Dispatcher) handleMsg(self model.Session, to, text string) {
	text = strings.TrimSpace(sanitizeText(text))
	if text == "" {
		d.replyError(self, "Usage: /msg <username> <message>")
		return
	}
	if to == self.Username {
		d.replyError(self, "You cannot send a private message to yourself.")
		return
	}
	target, ok := d.hub.Sessions.FindByUsername(to)
	if !ok {
		d.replyError(self, fmt.Sprintf("User '%s' not found or is not online.", to))
		return
	}
	d.reply(target, protocol.Private(fmt.Sprintf("(from %s): %s", self.Nickname, text)))
	d.reply(self, protocol.Private(fmt.Sprintf("(to %s): %s", target.Nickname, text)))
	d.metrics.PrivateMessages.Add(1)
}

func (d *Dispatcher) handleKick(self model.Session, username string) {
	if !d.permitted(self, model.PermKickUser) {
		return
	}
	d.hub.inOrder(func(_ *RoomTx, sessions *SessionTx) {
		target := sessions.GetByUsername(username)
		if target == nil {
			d.replyError(self, fmt.Sprintf("User '%s' not found or is not online.", username))
			return
		}
		if target.IsAdmin {
			d.replyError(self, "You cannot kick another admin.")
			return
		}
		if target.Room == model.LobbyName {
			d.replyError(self, fmt.Sprintf("User '%s' is already in the Lobby.", username))
			return
		}

		from := target.Room
		target.Room = model.LobbyName
		sessions.Send(target, protocol.System("You have been kicked back to the Lobby by an admin."))
		sessions.Send(target, protocol.JoinSuccess(model.LobbyName))
		sessions.BroadcastToRoom(from, protocol.System(fmt.Sprintf("[%s] %s was kicked by an admin.", from, target.Nickname)))
		sessions.BroadcastToRoom(model.LobbyName, protocol.System(fmt.Sprintf("[%s] %s has joined!", model.LobbyName, target.Nickname)))

		d.metrics.KickCount.Add(1)
		slog.Info("user kicked", "user", username, "room", from, "by", self.Username)
		d.reply(self, protocol.CmdResp(fmt.Sprintf("User '%s' has been kicked to the Lobby.", username)))
	})
}

func (d *Dispatcher) handleDeleteRoom(self model.Session, name string) {
	if !d.permitted(self, model.PermDeleteRoom) {
		return
	}
	d.hub.inOrder(func(rooms *RoomTx, sessions *SessionTx) {
		switch err := rooms.Delete(name); {
		case errors.Is(err, ErrRoomProtected):
			d.replyError(self, "You cannot delete the Lobby.")
			return
		case errors.Is(err, ErrRoomNotFound):
			d.replyError(self, fmt.Sprintf("Room '%s' does not exist.", name))
			return
		case err != nil:
			d.replyError(self, err.Error())
			return
		}

		moved := 0
		sessions.Each(func(s *model.Session) {
			if s.Room != name {
				return
			}
			s.Room = model.LobbyName
			sessions.Send(s, protocol.System(fmt.Sprintf("Room '%s' has been deleted. You are now in the Lobby.", name)))
			sessions.Send(s, protocol.JoinSuccess(model.LobbyName))
			moved++
		})

		d.reply(self, protocol.CmdResp(fmt.Sprintf("Room '%s' has been deleted.", name)))

		adminNotice := protocol.System(fmt.Sprintf("[SYSTEM] Room '%s' was deleted by %s.", name, self.Nickname))
		userNotice := protocol.System(fmt.Sprintf("[SYSTEM] Room '%s' has been deleted.", name))
		sessions.Each(func(s *model.Session) {
			if s.Room != model.LobbyName {
				return
			}
			if s.IsAdmin {
				sessions.Send(s, adminNotice)
			} else {
				sessions.Send(s, userNotice)
			}
		})

		d.metrics.RoomsDeleted.Add(1)
		slog.Info("room deleted", "room", name, "by", self.Username, "moved", moved)
	})
}

func (d *Dispatcher) handleChat(self model.Session, text string) {
	text = sanitizeText(text)
	if strings.TrimSpace(text) == "" {
		return
	}
	ok := d.hub.Sessions.BroadcastFromSession(self.ID, func(sender model.Session) string {
		return protocol.Chat(sender.ID, sender.Nickname, sender.Room, text)
	})
	if ok {
		d.metrics.ChatMessagesSent.Add(1)
	}
}

// sanitizeText strips control characters from user-supplied text to prevent
// terminal escape injection on other clients.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1 // strip all other control chars (null, bell, ANSI escapes, etc.)
		}
		return r
	}, s)
}
