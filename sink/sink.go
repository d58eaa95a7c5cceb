// Package sink implements the per-session outbound notification queue.
package sink

import (
	"log/slog"
	"sync"

	"chatd/domain"
	"chatd/errors"
)

// ChannelSink buffers notifications for a single session until its delivery
// goroutine drains them. The buffer is bounded; when it is full the oldest
// pending notification is evicted so a slow reader never blocks the router
// or any other session. FIFO order is preserved for everything that is kept.
type ChannelSink struct {
	mu     sync.Mutex
	ch     chan domain.Notification
	closed bool
	log    *slog.Logger
}

func NewChannelSink(log *slog.Logger, bufferSize int) *ChannelSink {
	return &ChannelSink{
		ch:  make(chan domain.Notification, bufferSize),
		log: log,
	}
}

// Consume enqueues a notification without ever blocking. It is called by
// the registries while they hold the lock that computed the recipient set,
// which keeps enqueue atomic with respect to membership changes.
func (s *ChannelSink) Consume(n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrQueueClosed
	}

	select {
	case s.ch <- n:
		return nil
	default:
	}

	// Queue full: evict the oldest entry to make room for the newest.
	select {
	case old := <-s.ch:
		s.log.Warn("Notification queue full, dropping oldest",
			"from", old.From)
	default:
	}
	select {
	case s.ch <- n:
	default:
	}
	return nil
}

// Queue exposes the drain side of the sink. The channel is closed by Close,
// which terminates the session's delivery goroutine.
func (s *ChannelSink) Queue() <-chan domain.Notification {
	return s.ch
}

// Close is idempotent. After Close, Consume rejects every notification.
func (s *ChannelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}
