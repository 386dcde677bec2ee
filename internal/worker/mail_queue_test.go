package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/mail"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (r *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func TestMailQueue_DeliversBeforeStop(t *testing.T) {
	rec := &recordingMailer{}
	q := NewMailQueue(rec, 4, nil)
	q.Start()

	require.NoError(t, q.Send(context.Background(), mail.Message{To: "a@example.com"}))
	require.NoError(t, q.Send(context.Background(), mail.Message{To: "b@example.com"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Stop(ctx))

	assert.Len(t, rec.sent, 2)
	assert.ErrorIs(t, q.Send(context.Background(), mail.Message{}), ErrQueueClosed)
}

func TestMailQueue_Full(t *testing.T) {
	q := NewMailQueue(&recordingMailer{}, 1, nil)

	require.NoError(t, q.Send(context.Background(), mail.Message{To: "a@example.com"}))
	assert.ErrorIs(t, q.Send(context.Background(), mail.Message{To: "b@example.com"}), ErrQueueFull)
	assert.NoError(t, q.Stop(context.Background()))
}
