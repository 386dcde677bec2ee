// Package worker runs background delivery of notification e-mail so SMTP
// latency stays off the request path.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/mail"
)

// ErrQueueFull is returned when the queue cannot accept more messages.
var ErrQueueFull = errors.New("mail queue full")

// ErrQueueClosed is returned after Stop.
var ErrQueueClosed = errors.New("mail queue closed")

// MailQueue is a mail.Mailer that hands messages to a single background
// sender.
type MailQueue struct {
	next   mail.Mailer
	logger *zap.Logger
	queue  chan mail.Message

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	started bool
}

// NewMailQueue buffers up to size messages for next.
func NewMailQueue(next mail.Mailer, size int, logger *zap.Logger) *MailQueue {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailQueue{
		next:   next,
		logger: logger,
		queue:  make(chan mail.Message, size),
		done:   make(chan struct{}),
	}
}

// Start launches the sender goroutine.
func (q *MailQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	go q.run()
}

func (q *MailQueue) run() {
	defer close(q.done)
	for msg := range q.queue {
		if err := q.next.Send(context.Background(), msg); err != nil {
			q.logger.Warn("notification email failed", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		}
	}
}

// Send enqueues msg without blocking.
func (q *MailQueue) Send(_ context.Context, msg mail.Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop stops accepting messages and waits until queued ones are sent or
// ctx ends.
func (q *MailQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.queue)
	started := q.started
	q.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
