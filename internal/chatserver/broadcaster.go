package chatserver

import (
	"log/slog"
	"time"

	"github.com/nullbridge/c2hat/adapters"
	"github.com/nullbridge/c2hat/internal/broadcast"
	"github.com/nullbridge/c2hat/internal/registry"
	"github.com/nullbridge/c2hat/internal/wire"
)

// deliveryEvent pairs one outbound message with the session it is being
// delivered to, so a single handler chain can log, recover and count
// every fan-out attempt uniformly.
type deliveryEvent struct {
	session *Session
	msg     wire.Msg
}

func (e deliveryEvent) String() string { return "deliver:" + e.msg.Kind.String() }

// broadcaster drains the shared queue and fans each message out to every
// currently-authenticated session, including the sender's own: the
// protocol has no self-filtering, matching the reference client's own
// expectation of seeing its message echoed back.
type broadcaster struct {
	queue    *broadcast.Queue
	registry *registry.Registry
	logger   *slog.Logger
	poll     time.Duration
	deliver  *adapters.MiddlewareHandler
}

func newBroadcaster(q *broadcast.Queue, reg *registry.Registry, control adapters.MetricsSink, logger *slog.Logger, poll time.Duration) *broadcaster {
	base := adapters.HandlerFunc(func(data any) error {
		ev := data.(deliveryEvent)
		return ev.session.Deliver(ev.msg)
	})
	deliver := adapters.NewMiddlewareHandler(base).
		Use(adapters.MetricsMiddleware(control)).
		Use(adapters.LoggingMiddleware(logger)).
		Use(adapters.RecoveryMiddleware(logger))
	return &broadcaster{queue: q, registry: reg, logger: logger, poll: poll, deliver: deliver}
}

// run polls the queue until terminated reports true. A plain poll loop,
// rather than WaitPop, keeps the termination check responsive without a
// wakeup-on-close race against the supervisor's own shutdown sequencing.
func (b *broadcaster) run(terminated func() bool) {
	for {
		msg, ok := b.queue.TryPop()
		if !ok {
			if terminated() {
				return
			}
			time.Sleep(b.poll)
			continue
		}
		b.fanOut(msg)
	}
}

func (b *broadcaster) fanOut(msg wire.Msg) {
	b.registry.ForEachAuthenticated(func(e *registry.Entry) {
		session, ok := e.Payload.(*Session)
		if !ok {
			return
		}
		if err := b.deliver.Handle(deliveryEvent{session: session, msg: msg}); err != nil {
			b.logger.Debug("drop message to disconnected peer", "nickname", e.Nickname, "err", err)
		}
	})
}
