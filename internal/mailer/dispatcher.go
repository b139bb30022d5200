package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/nkiryanov/eshop/internal/apperrors"
	"github.com/nkiryanov/eshop/internal/logger"
)

const (
	defaultCountWorkers = 4
	defaultQueueSize    = 100
	defaultSendTimeout  = 30 * time.Second
)

var ErrDispatcherStopped = errors.New("mail dispatcher is stopped")

type DispatcherConfig struct {
	// Number of concurrent senders
	CountWorkers int

	// How many messages may wait for a free worker
	QueueSize int

	// Deadline for single delivery
	SendTimeout time.Duration
}

type Dispatcher struct {
	countWorkers int
	sendTimeout  time.Duration

	queue   chan Message
	stopped atomic.Bool

	sender Sender
	logger logger.Logger

	// Delivery failures are reported here, sentry by default
	report func(err error, msg Message)
}

func NewDispatcher(cfg DispatcherConfig, sender Sender, l logger.Logger) *Dispatcher {
	if cfg.CountWorkers <= 0 {
		cfg.CountWorkers = defaultCountWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}

	return &Dispatcher{
		countWorkers: cfg.CountWorkers,
		sendTimeout:  cfg.SendTimeout,
		queue:        make(chan Message, cfg.QueueSize),
		sender:       sender,
		logger:       l.WithGroup("mailer"),
		report:       reportToSentry,
	}
}

// Send enqueues message and returns without waiting for delivery
// Fails if queue is full or dispatcher is stopped
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	if d.stopped.Load() {
		return fmt.Errorf("%w: %w", apperrors.ErrNotifierDelivery, ErrDispatcherStopped)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case d.queue <- msg:
		return nil
	default:
		return fmt.Errorf("%w: mail queue is full", apperrors.ErrNotifierDelivery)
	}
}

// Run starts workers. They stop when ctx is done
// Returned channel is closed when all workers are stopped
func (d *Dispatcher) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for range d.countWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.worker(ctx)
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		d.stopped.Store(true)

		if dropped := len(d.queue); dropped > 0 {
			d.logger.Warn("Mail dispatcher stopped with undelivered messages", "count", dropped)
		}
		d.logger.Debug("Mail dispatcher stopped")
	}()

	return idleStopped
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-d.queue:
			d.deliver(ctx, msg)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	err := d.sender.Send(sendCtx, msg)
	if err != nil {
		err = fmt.Errorf("%w: %w", apperrors.ErrNotifierDelivery, err)
		d.logger.Error("Failed to deliver mail", "error", err, "subject", msg.Subject)
		d.report(err, msg)
		return
	}

	d.logger.Debug("Mail delivered", "subject", msg.Subject)
}

func reportToSentry(err error, msg Message) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", "mailer")
		scope.SetExtra("subject", msg.Subject)
		sentry.CaptureException(err)
	})
}
