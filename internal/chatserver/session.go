package chatserver

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nullbridge/c2hat/internal/broadcast"
	"github.com/nullbridge/c2hat/internal/registry"
	"github.com/nullbridge/c2hat/internal/transport"
	"github.com/nullbridge/c2hat/internal/wire"
)

// Session drives one accepted connection through greeting, authentication
// and chat, then guarantees the registry entry is removed and the
// transport closed however it got there.
//
// Session itself is the registry handle: its pointer identity is what
// Admit/SetNickname/Remove key on, and it is also stored as the entry's
// Payload so the broadcaster can reach Deliver without the registry
// package needing to know anything about sessions.
type Session struct {
	transport   *transport.Session
	registry    *registry.Registry
	queue       *broadcast.Queue
	logger      *slog.Logger
	authTimeout time.Duration
	idleTimeout time.Duration

	droppedMessages *atomic.Int64

	nickname string
}

// newSession constructs a Session for a connection whose TLS handshake has
// completed. The caller (the acceptor) is responsible for calling
// registry.Admit with the Session as handle before calling Run.
func newSession(t *transport.Session, reg *registry.Registry, q *broadcast.Queue, logger *slog.Logger, authTimeout, idleTimeout time.Duration, droppedMessages *atomic.Int64) *Session {
	return &Session{
		transport:       t,
		registry:        reg,
		queue:           q,
		logger:          logger.With("peer", t.PeerAddr()),
		authTimeout:     authTimeout,
		idleTimeout:     idleTimeout,
		droppedMessages: droppedMessages,
	}
}

// Deliver writes msg to this session's transport. It is the broadcaster's
// only way to reach a session.
func (s *Session) Deliver(msg wire.Msg) error {
	_, err := s.transport.Write(msg)
	return err
}

// Run drives the session to completion. terminated is checked before each
// blocking read, so a shutting-down server unwinds sessions without
// closing connections out from under in-flight writes; a read already in
// progress is not interrupted and runs until data arrives, the peer
// closes, or the auth/idle deadline passes.
func (s *Session) Run(terminated func() bool) {
	defer func() {
		s.registry.Remove(s)
		if err := s.transport.Close(); err != nil {
			s.logger.Debug("close transport", "err", err)
		}
	}()

	if err := s.greet(); err != nil {
		s.logger.Debug("greet failed", "err", err)
		return
	}

	if ok := s.authenticate(terminated); !ok {
		return
	}

	s.logger = s.logger.With("nickname", s.nickname)
	s.chat(terminated)
}

func (s *Session) greet() error {
	_, err := s.transport.Write(wire.Msg{Kind: wire.KindOk, Content: msgWelcome})
	return err
}

// authenticate prompts for a nickname and reads until the first /nick
// frame arrives, the peer disconnects, or authTimeout elapses. It returns
// false for every failure path; a timeout, an invalid nickname and a
// nickname conflict each send an /err frame before the session closes.
func (s *Session) authenticate(terminated func() bool) bool {
	if _, err := s.transport.Write(wire.Msg{Kind: wire.KindNick, Content: msgNickPrompt}); err != nil {
		return false
	}

	deadline := time.Now().Add(s.authTimeout)
	if err := s.transport.SetDeadline(deadline); err != nil {
		return false
	}

	for {
		if terminated() {
			return false
		}

		if _, err := s.transport.Read(); err != nil {
			if transport.IsTimeout(err) {
				s.logger.Info("authentication timed out")
				_, _ = s.transport.Write(wire.Msg{Kind: wire.KindErr, Content: msgAuthTimeout})
			}
			return false
		}

		var candidate string
		var sawNick bool
		s.transport.DecodeAll(func(m wire.Msg) {
			if sawNick || m.Kind != wire.KindNick {
				return
			}
			sawNick = true
			candidate = m.Content
		})
		if !sawNick {
			continue
		}

		if !registry.ValidNickname(candidate) {
			s.logger.Info("rejected nickname", "nickname", candidate)
			_, _ = s.transport.Write(wire.Msg{Kind: wire.KindErr, Content: msgInvalidNickname})
			return false
		}

		if err := s.registry.SetNickname(s, candidate); err != nil {
			s.logger.Info("nickname conflict", "nickname", candidate)
			_, _ = s.transport.Write(wire.Msg{Kind: wire.KindErr, Content: msgAuthFailed})
			return false
		}

		s.nickname = candidate
		_, err := s.transport.Write(wire.Msg{Kind: wire.KindOk, Content: msgHello(candidate)})
		return err == nil
	}
}

// chat relays user messages onto the broadcast queue until the peer quits,
// disconnects, or idleTimeout elapses with no activity. It always
// announces the join before the loop starts and the leave after it ends,
// since reaching chat means the nickname was already committed.
func (s *Session) chat(terminated func() bool) {
	s.logger.Info("session authenticated")
	s.queue.Push(wire.Msg{Kind: wire.KindLog, User: s.nickname, Content: msgJustJoinedTheChat})
	defer s.queue.Push(wire.Msg{Kind: wire.KindLog, User: s.nickname, Content: msgJustLeftTheChat})

	for {
		if terminated() {
			return
		}
		if err := s.transport.SetDeadline(time.Now().Add(s.idleTimeout)); err != nil {
			return
		}

		if _, err := s.transport.Read(); err != nil {
			if transport.IsTimeout(err) {
				_, _ = s.transport.Write(wire.Msg{Kind: wire.KindErr, Content: msgIdleTimeout})
			}
			return
		}

		quit := false
		s.transport.DecodeAll(func(m wire.Msg) {
			switch m.Kind {
			case wire.KindMsg:
				if m.Content == "" {
					s.droppedMessages.Add(1)
					return
				}
				if _, err := s.transport.Write(wire.Msg{Kind: wire.KindOk}); err != nil {
					return
				}
				s.queue.Push(wire.Msg{Kind: wire.KindMsg, User: s.nickname, Content: m.Content})
			case wire.KindQuit:
				quit = true
			}
		})
		if quit {
			return
		}
	}
}
