// Package broadcast implements the broadcast queue (C5): a FIFO of
// outbound messages guarded by a mutex and condition variable, backed by
// the ring-buffer queue the rest of the pack already depends on.
package broadcast

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/nullbridge/c2hat/internal/wire"
)

// Queue is a single-producer-many, single-consumer FIFO of wire.Msg
// values. Push never blocks beyond acquiring the lock; WaitPop parks the
// caller on the condition variable until a message arrives or the queue
// is closed for shutdown.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	q      *queue.Queue
	closed bool
}

// New returns an empty Queue.
func New() *Queue {
	q := &Queue{q: queue.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues msg and wakes one waiter. It is a no-op once the queue has
// been closed for shutdown, matching the supervisor's teardown order.
func (bq *Queue) Push(msg wire.Msg) {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	if bq.closed {
		return
	}
	bq.q.Add(msg)
	bq.cond.Signal()
}

// TryPop returns the oldest message without blocking. ok is false if the
// queue is currently empty.
func (bq *Queue) TryPop() (msg wire.Msg, ok bool) {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	if bq.q.Length() == 0 {
		return wire.Msg{}, false
	}
	v := bq.q.Remove()
	return v.(wire.Msg), true
}

// WaitPop blocks until a message is available or the queue is closed. ok
// is false only when the queue was closed with nothing left to drain.
func (bq *Queue) WaitPop() (msg wire.Msg, ok bool) {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	for bq.q.Length() == 0 && !bq.closed {
		bq.cond.Wait()
	}
	if bq.q.Length() == 0 {
		return wire.Msg{}, false
	}
	v := bq.q.Remove()
	return v.(wire.Msg), true
}

// Close marks the queue as shutting down and wakes every waiter so the
// broadcaster can observe termination instead of blocking forever.
func (bq *Queue) Close() {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	bq.closed = true
	bq.cond.Broadcast()
}

// Len reports the current queue depth, used by the control-plane probe.
func (bq *Queue) Len() int {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	return bq.q.Length()
}
