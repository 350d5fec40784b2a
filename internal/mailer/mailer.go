// Package mailer is the delivery side of notify: it queue-subscribes to
// outbound mail on NATS and hands each message to an SMTP relay.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"jobmate/board-service/internal/notify"
)

// QueueGroup load-balances deliveries across service replicas.
const QueueGroup = "mailer"

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg notify.Message) error
}

type Handler struct {
	logger *zap.Logger
	nc     *nats.Conn
	tracer trace.Tracer
	sender Sender
	sub    *nats.Subscription
}

func NewHandler(logger *zap.Logger, nc *nats.Conn, tracer trace.Tracer, sender Sender) *Handler {
	return &Handler{
		logger: logger,
		nc:     nc,
		tracer: tracer,
		sender: sender,
	}
}

func (h *Handler) RegisterSubscriptions(lc fx.Lifecycle) error {
	sub, err := h.nc.QueueSubscribe(notify.EmailSubject, QueueGroup, h.handleEmail)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", notify.EmailSubject, err)
	}

	h.sub = sub
	h.logger.Info("Registered NATS subscriptions", zap.String("subject", notify.EmailSubject))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return h.sub.Drain()
		},
	})

	return nil
}

func (h *Handler) handleEmail(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "handleEmail")
	defer span.End()

	var m notify.Message
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		h.logger.Error("Dropping malformed email message",
			zap.Error(err),
			zap.String("subject", msg.Subject),
		)
		return
	}

	if err := h.sender.Send(ctx, m); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to deliver email",
			zap.Error(err),
			zap.String("to", m.To),
			zap.String("email_subject", m.Subject),
		)
		return
	}

	h.logger.Info("Delivered email",
		zap.String("to", m.To),
		zap.String("email_subject", m.Subject),
	)
}
