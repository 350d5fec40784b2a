// Package notify renders outbound emails and hands them to the mail worker
// over NATS. The HTTP request that triggered a message never waits for SMTP.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"jobmate/board-service/internal/telemetry"
)

// EmailSubject is the NATS subject outbound mail is published on.
const EmailSubject = "notifications.email"

var tracer = telemetry.GetTracer("board-service/notify")

// Message is one plain-text email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Dispatcher queues a message for delivery.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// NATSDispatcher publishes messages on EmailSubject.
type NATSDispatcher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNATSDispatcher(conn *nats.Conn, logger *zap.Logger) *NATSDispatcher {
	return &NATSDispatcher{conn: conn, logger: logger}
}

func (d *NATSDispatcher) Send(ctx context.Context, msg Message) error {
	_, span := tracer.Start(ctx, "notify.Send")
	defer span.End()

	if msg.To == "" {
		return fmt.Errorf("notify: message %q has no recipient", msg.Subject)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("notify: marshal: %w", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", EmailSubject),
		telemetry.Int("message.size", len(data)),
	)

	if err := d.conn.Publish(EmailSubject, data); err != nil {
		span.RecordError(err)
		return fmt.Errorf("notify: publish: %w", err)
	}

	d.logger.Debug("queued email",
		zap.String("subject", msg.Subject),
		zap.String("to", msg.To))
	return nil
}
