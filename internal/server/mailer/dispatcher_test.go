package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fortislabs/fortis/internal/logging"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type recordingSender struct {
	mu      sync.Mutex
	sent    []Message
	entered chan struct{}
	release chan struct{}
	sendErr error
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.sendErr
}

func (s *recordingSender) delivered() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

func TestDispatcherDeliversAll(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, testLogger(), 16, 2)

	for i := 0; i < 10; i++ {
		require.True(t, d.Enqueue(Message{To: "user@example.com", Subject: "hi"}))
	}
	d.Close()

	require.Len(t, sender.delivered(), 10)
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	sender := &recordingSender{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := NewDispatcher(sender, testLogger(), 1, 1)

	// First message occupies the lone worker.
	require.True(t, d.Enqueue(Message{Subject: "a"}))
	select {
	case <-sender.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first message")
	}

	// Second fills the queue; a third has nowhere to go and is dropped.
	require.True(t, d.Enqueue(Message{Subject: "b"}))
	require.False(t, d.Enqueue(Message{Subject: "overflow"}))

	close(sender.release)
	go func() {
		for range sender.entered {
		}
	}()
	d.Close()
	close(sender.entered)

	require.Len(t, sender.delivered(), 2)
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, testLogger(), 4, 1)

	require.True(t, d.Enqueue(Message{Subject: "x"}))
	d.Close()
	d.Close()

	require.Len(t, sender.delivered(), 1)
}

func TestDispatcherSurvivesSendFailure(t *testing.T) {
	sender := &recordingSender{sendErr: errors.New("smtp down")}
	d := NewDispatcher(sender, testLogger(), 4, 1)

	require.True(t, d.Enqueue(Message{Subject: "a"}))
	require.True(t, d.Enqueue(Message{Subject: "b"}))
	d.Close()

	// Failures are logged, not retried, and do not stop the worker.
	require.Len(t, sender.delivered(), 2)
}
