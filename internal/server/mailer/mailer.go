// Package mailer renders and dispatches account notifications. Delivery is
// fire-and-forget: messages are queued to a bounded worker pool and the
// request that triggered them never waits for, or learns about, delivery.
package mailer

import (
	"context"

	"github.com/fortislabs/fortis/internal/logging"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a rendered message. Implementations must be safe for
// concurrent use by the dispatcher workers.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. It is
// the development sink; production deployments plug in a real Sender.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger.With("module", "mailer")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "outbound mail", "to", msg.To, "subject", msg.Subject, "body_len", len(msg.Body))
	return nil
}
