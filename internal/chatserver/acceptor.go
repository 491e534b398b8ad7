package chatserver

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nullbridge/c2hat/internal/broadcast"
	"github.com/nullbridge/c2hat/internal/registry"
	"github.com/nullbridge/c2hat/internal/transport"
	"github.com/nullbridge/c2hat/internal/wire"
)

// acceptor owns the listener's accept loop. Every accepted connection
// completes its TLS handshake before it ever touches the registry: a
// stalled or failing handshake must never hold a capacity slot, and the
// handshake path must never observe a partially-registered session.
type acceptor struct {
	listener    net.Listener
	tlsConfig   *tls.Config
	registry    *registry.Registry
	queue       *broadcast.Queue
	logger      *slog.Logger
	authTimeout time.Duration
	idleTimeout time.Duration

	capacityRefusals *atomic.Int64
	droppedMessages  *atomic.Int64

	wg sync.WaitGroup
}

func newAcceptor(ln net.Listener, tlsConfig *tls.Config, reg *registry.Registry, q *broadcast.Queue, logger *slog.Logger, authTimeout, idleTimeout time.Duration, capacityRefusals, droppedMessages *atomic.Int64) *acceptor {
	return &acceptor{
		listener:         ln,
		tlsConfig:        tlsConfig,
		registry:         reg,
		queue:            q,
		logger:           logger,
		authTimeout:      authTimeout,
		idleTimeout:      idleTimeout,
		capacityRefusals: capacityRefusals,
		droppedMessages:  droppedMessages,
	}
}

// run accepts connections until terminated reports true or the listener is
// closed by the caller, and blocks until every spawned worker has
// returned.
func (a *acceptor) run(terminated func() bool) {
	defer a.wg.Wait()
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if terminated() || errors.Is(err, net.ErrClosed) {
				return
			}
			a.logger.Warn("accept failed", "err", err)
			continue
		}
		a.handle(conn, terminated)
	}
}

// handle runs the handshake for one accepted connection on its own
// goroutine, so a slow or stalled peer never blocks the accept loop from
// servicing the next connection. The registry is only ever touched after
// the handshake has already succeeded, so a handshake failure or timeout
// never holds a capacity slot and never leaves a partially-registered
// session behind.
func (a *acceptor) handle(conn net.Conn, terminated func() bool) {
	tlsConn := tls.Server(conn, a.tlsConfig)
	transportSess := transport.NewSession(tlsConn)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.authTimeout)
		defer cancel()
		if err := transportSess.Handshake(ctx); err != nil {
			a.logger.Debug("handshake failed", "peer", transportSess.PeerAddr(), "err", err)
			_ = transportSess.Close()
			return
		}

		session := newSession(transportSess, a.registry, a.queue, a.logger, a.authTimeout, a.idleTimeout, a.droppedMessages)
		if _, err := a.registry.Admit(session, session); err != nil {
			a.capacityRefusals.Add(1)
			_, _ = transportSess.Write(wire.Msg{Kind: wire.KindErr, Content: msgCapacityExceeded})
			_ = transportSess.Close()
			return
		}

		session.Run(terminated)
	}()
}
