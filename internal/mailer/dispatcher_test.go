package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/eshop/internal/apperrors"
	"github.com/nkiryanov/eshop/internal/logger"
)

// Allow to use a function as sender
type senderFunc func(ctx context.Context, msg Message) error

func (f senderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

func TestDispatcher(t *testing.T) {
	msg := Message{
		To:      []string{"buyer@example.com"},
		Subject: "Hello",
		Body:    "World",
	}

	t.Run("deliver ok", func(t *testing.T) {
		delivered := make(chan Message, 1)
		d := NewDispatcher(DispatcherConfig{CountWorkers: 2}, senderFunc(func(ctx context.Context, m Message) error {
			delivered <- m
			return nil
		}), logger.NewNoOpLogger())

		ctx, cancel := context.WithCancel(t.Context())
		stopped := d.Run(ctx)

		err := d.Send(t.Context(), msg)
		require.NoError(t, err)

		select {
		case got := <-delivered:
			require.Equal(t, msg, got)
		case <-time.After(time.Second):
			t.Fatal("message has not been delivered")
		}

		cancel()
		<-stopped
	})

	t.Run("send does not wait for delivery", func(t *testing.T) {
		release := make(chan struct{})
		d := NewDispatcher(DispatcherConfig{CountWorkers: 1}, senderFunc(func(ctx context.Context, m Message) error {
			<-release
			return nil
		}), logger.NewNoOpLogger())

		ctx, cancel := context.WithCancel(t.Context())
		stopped := d.Run(ctx)
		defer func() {
			cancel()
			<-stopped
		}()
		defer close(release)

		start := time.Now()
		require.NoError(t, d.Send(t.Context(), msg))
		require.NoError(t, d.Send(t.Context(), msg))
		require.Less(t, time.Since(start), 100*time.Millisecond, "send must not block on slow sender")
	})

	t.Run("failure reported", func(t *testing.T) {
		var mu sync.Mutex
		var reported []error
		done := make(chan struct{})

		d := NewDispatcher(DispatcherConfig{CountWorkers: 1}, senderFunc(func(ctx context.Context, m Message) error {
			return errors.New("connection refused")
		}), logger.NewNoOpLogger())
		d.report = func(err error, _ Message) {
			mu.Lock()
			reported = append(reported, err)
			mu.Unlock()
			close(done)
		}

		ctx, cancel := context.WithCancel(t.Context())
		stopped := d.Run(ctx)

		require.NoError(t, d.Send(t.Context(), msg), "enqueue succeeds even if delivery will fail")

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("failure has not been reported")
		}
		cancel()
		<-stopped

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, reported, 1)
		require.ErrorIs(t, reported[0], apperrors.ErrNotifierDelivery)
	})

	t.Run("queue full", func(t *testing.T) {
		d := NewDispatcher(DispatcherConfig{QueueSize: 1}, senderFunc(func(ctx context.Context, m Message) error {
			return nil
		}), logger.NewNoOpLogger())

		// Not running, so nobody drains the queue
		require.NoError(t, d.Send(t.Context(), msg))
		err := d.Send(t.Context(), msg)

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrNotifierDelivery)
	})

	t.Run("send after stop fail", func(t *testing.T) {
		d := NewDispatcher(DispatcherConfig{}, senderFunc(func(ctx context.Context, m Message) error {
			return nil
		}), logger.NewNoOpLogger())

		ctx, cancel := context.WithCancel(t.Context())
		stopped := d.Run(ctx)
		cancel()
		<-stopped

		err := d.Send(t.Context(), msg)

		require.ErrorIs(t, err, ErrDispatcherStopped)
	})

	t.Run("workers stop on cancel", func(t *testing.T) {
		d := NewDispatcher(DispatcherConfig{CountWorkers: 8}, senderFunc(func(ctx context.Context, m Message) error {
			return nil
		}), logger.NewNoOpLogger())

		ctx, cancel := context.WithCancel(t.Context())
		stopped := d.Run(ctx)
		cancel()

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("dispatcher has not stopped")
		}
	})
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(logger.NewNoOpLogger())

	err := s.Send(t.Context(), Message{To: []string{"buyer@example.com"}, Subject: "Hello", Body: "World"})

	require.NoError(t, err)
}
