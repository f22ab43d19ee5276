package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/NicolasHaas/roomchat/pkg/model"
	"github.com/NicolasHaas/roomchat/pkg/protocol"
)

// Reasons sent with AUTH_FAIL.
const (
	reasonInvalidCommand     = "Invalid command"
	reasonInvalidCredentials = "Invalid credentials"
	reasonUserExists         = "User already exists"
	reasonAlreadyOnline      = "User is already logged in."
	reasonServerError        = "Server error, please try again."
)

// authenticate reads LOGIN/SIGNUP lines until one succeeds and the session is
// registered, replying AUTH_FAIL to every rejected attempt. It returns an
// error only when the connection ends first.
func (s *Server) authenticate(conn Conn, id uint64) (*model.Session, error) {
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return nil, err
		}

		user, reason := s.checkAuth(line)
		if user == nil {
			s.metrics.FailedAuths.Add(1)
			_ = conn.Send(protocol.AuthFail(reason))
			continue
		}

		sess := &model.Session{
			ID:          id,
			Conn:        conn,
			Username:    user.Username,
			Nickname:    user.Nickname,
			Room:        model.LobbyName,
			IsAdmin:     user.IsAdmin,
			ConnectedAt: time.Now(),
		}
		if err := s.register(sess); err != nil {
			s.metrics.FailedAuths.Add(1)
			reason := reasonServerError
			if errors.Is(err, ErrAlreadyOnline) {
				reason = reasonAlreadyOnline
			}
			_ = conn.Send(protocol.AuthFail(reason))
			continue
		}
		s.metrics.SuccessfulAuths.Add(1)
		return sess, nil
	}
}

// register adds sess and announces it in the Lobby. AUTH_SUCCESS is queued
// under the same lock, so it precedes every broadcast the session receives.
func (s *Server) register(sess *model.Session) error {
	var err error
	s.hub.Sessions.Update(func(tx *SessionTx) {
		if err = tx.Add(sess); err != nil {
			return
		}
		tx.Send(sess, protocol.AuthSuccess(sess.IsAdmin, sess.Nickname))
		tx.BroadcastToRoom(model.LobbyName, protocol.System("[Lobby] "+sess.Nickname+" has joined!"))
	})
	return err
}

// checkAuth validates one pre-auth line against the user store. It returns
// the authenticated user, or nil and the AUTH_FAIL reason.
func (s *Server) checkAuth(line string) (*model.User, string) {
	req, err := protocol.ParseAuth(line)
	if err != nil {
		return nil, reasonInvalidCommand
	}

	switch req.Kind {
	case protocol.AuthLogin:
		if req.Username == "" || req.Password == "" {
			return nil, reasonInvalidCredentials
		}
		user, err := s.store.Authenticate(req.Username, req.Password)
		if err != nil {
			slog.Error("authenticate failed", "user", req.Username, "err", err)
			return nil, reasonServerError
		}
		if user == nil {
			slog.Info("login rejected", "user", req.Username)
			return nil, reasonInvalidCredentials
		}
		return user, ""

	case protocol.AuthSignup:
		user := model.User{
			Username: req.Username,
			Password: req.Password,
			Nickname: req.Nickname,
		}
		if err := user.Validate(); err != nil {
			return nil, signupReason(err)
		}
		created, err := s.store.SaveUser(user)
		if err != nil {
			slog.Error("save user failed", "user", req.Username, "err", err)
			return nil, reasonServerError
		}
		if !created {
			return nil, reasonUserExists
		}
		s.metrics.Signups.Add(1)
		slog.Info("user signed up", "user", user.Username, "nickname", user.Nickname)
		return &user, ""
	}
	return nil, reasonInvalidCommand
}

func signupReason(err error) string {
	switch {
	case errors.Is(err, model.ErrNicknameEmpty):
		return "Nickname cannot be empty."
	case errors.Is(err, model.ErrUsernameEmpty), errors.Is(err, model.ErrPasswordEmpty):
		return "Username and password are required."
	case errors.Is(err, model.ErrUsernameTooLong), errors.Is(err, model.ErrUsernameInvalidChars):
		return "Invalid username: " + err.Error() + "."
	case errors.Is(err, model.ErrPasswordInvalidChars):
		return "Invalid password: " + err.Error() + "."
	case errors.Is(err, model.ErrNicknameTooLong), errors.Is(err, model.ErrNicknameInvalidChars):
		return "Invalid nickname: " + err.Error() + "."
	}
	return "Invalid signup details."
}
