package mailer

import (
	"context"
	"sync"

	"github.com/fortislabs/fortis/internal/logging"
)

// Dispatcher feeds queued messages to a fixed pool of workers. Enqueue
// never blocks the caller: when the queue is saturated the message is
// dropped and logged. Send failures are logged and never retried.
type Dispatcher struct {
	sender Sender
	logger logging.Logger
	queue  chan Message

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher starts workers goroutines consuming a queue of queueSize
// messages.
func NewDispatcher(sender Sender, logger logging.Logger, queueSize, workers int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}

	d := &Dispatcher{
		sender: sender,
		logger: logger.With("module", "mail_dispatcher"),
		queue:  make(chan Message, queueSize),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

// Enqueue submits a message for background delivery. Returns false when
// the message was dropped because the queue is full.
func (d *Dispatcher) Enqueue(msg Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn(context.Background(), "mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
		return false
	}
}

// Close stops accepting messages and waits until the workers have drained
// the queue.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	ctx := context.Background()
	for msg := range d.queue {
		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.Error(ctx, "mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err.Error())
		}
	}
}
