// Package chatserver implements the chat protocol's server-side state
// machine: per-connection sessions, the accept loop, the broadcast
// fan-out, and the supervisor that wires them together and runs the
// graceful shutdown sequence.
package chatserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nullbridge/c2hat/control"
	"github.com/nullbridge/c2hat/internal/broadcast"
	"github.com/nullbridge/c2hat/internal/config"
	"github.com/nullbridge/c2hat/internal/registry"
	"github.com/nullbridge/c2hat/internal/transport"
)

// Server is the running instance of one chat server: a listener, a
// registry, a broadcast queue, an acceptor and a broadcaster, plus the
// control-plane registry the CLI's status command inspects.
type Server struct {
	cfg      config.ServerConfig
	logger   *slog.Logger
	control  *control.Registry
	registry *registry.Registry
	queue    *broadcast.Queue

	listener net.Listener
	acceptor *acceptor
	bcaster  *broadcaster
	debugSrv *http.Server

	terminated       atomic.Bool
	droppedMessages  atomic.Int64
	capacityRefusals atomic.Int64
}

// New constructs a Server bound to cfg and opens its listener; connections
// are not accepted until Run is called.
func New(cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	tlsConfig, err := transport.ServerTLSConfig(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("build tls config: %w", err)
	}
	ln, err := transport.Listen(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}

	reg := registry.New(cfg.MaxConnections)
	queue := broadcast.New()
	ctl := control.NewRegistry()
	ctl.RegisterDebugProbe("chat.connections", func() any { return reg.Size() })
	ctl.RegisterDebugProbe("chat.authenticated", func() any { return reg.AuthenticatedCount() })
	ctl.RegisterDebugProbe("chat.queue_depth", func() any { return queue.Len() })

	ctl.RegisterReloadHook(func() {
		logger.Info("configuration hot-reload triggered", "addr", cfg.ListenAddr)
	})

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		control:  ctl,
		registry: reg,
		queue:    queue,
		listener: ln,
	}
	ctl.RegisterDebugProbe("chat.messages_dropped", func() any { return s.droppedMessages.Load() })
	ctl.RegisterDebugProbe("chat.capacity_refused", func() any { return s.capacityRefusals.Load() })

	s.acceptor = newAcceptor(ln, tlsConfig, reg, queue, logger, cfg.AuthTimeout, cfg.IdleTimeout, &s.capacityRefusals, &s.droppedMessages)
	s.bcaster = newBroadcaster(queue, reg, ctl, logger, cfg.BroadcastPoll)

	if cfg.DebugAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/debug", ctl.DebugHandler())
		s.debugSrv = &http.Server{Addr: cfg.DebugAddr, Handler: mux}
	}
	return s, nil
}

// Control returns the server's control-plane registry, the same one the
// optional debug HTTP endpoint serves.
func (s *Server) Control() *control.Registry { return s.control }

// Addr returns the address the listener is actually bound to, useful when
// ListenAddr names an ephemeral port.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Run blocks accepting and serving connections until ctx is cancelled,
// then runs the graceful shutdown sequence: close the listener to stop
// accepting, wait for every worker to finish, wait for the broadcaster to
// drain the queue and exit, and finally close the queue.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("chat server listening", "addr", s.listener.Addr().String())

	done := make(chan struct{})
	go func() {
		s.acceptor.run(s.isTerminated)
		close(done)
	}()
	bcDone := make(chan struct{})
	go func() {
		s.bcaster.run(s.isTerminated)
		close(bcDone)
	}()

	if s.debugSrv != nil {
		go func() {
			if err := s.debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Warn("debug endpoint stopped", "err", err)
			}
		}()
	}

	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	defer signal.Stop(hupCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hupCh:
				s.logger.Info("received SIGHUP, reloading configuration")
				s.control.TriggerHotReload()
			}
		}
	}()

	<-ctx.Done()
	s.logger.Info("shutdown requested")
	s.terminated.Store(true)

	// Unblock the accept loop; in-flight workers observe terminated once
	// their current read returns and unwind on their own.
	_ = s.listener.Close()
	<-done

	if s.debugSrv != nil {
		_ = s.debugSrv.Close()
	}

	<-bcDone
	s.queue.Close()
	s.logger.Info("chat server stopped")
	return nil
}

func (s *Server) isTerminated() bool { return s.terminated.Load() }

// waitIdle blocks until the registry is empty or the timeout passes, and
// reports whether the registry emptied.
func (s *Server) waitIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.registry.Size() == 0 {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s.registry.Size() == 0
}
