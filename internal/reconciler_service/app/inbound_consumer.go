package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/textblast/gateway/internal/platform/messagebroker"
	"github.com/textblast/gateway/internal/reconciler_service/domain"
)

// InboundConsumer consumes raw inbound-reply events from NATS and hands them
// to the Reconciler.
type InboundConsumer struct {
	natsClient *messagebroker.NATSClient
	reconciler *Reconciler
	logger     *slog.Logger
	sub        *nats.Subscription
}

func NewInboundConsumer(natsClient *messagebroker.NATSClient, reconciler *Reconciler, logger *slog.Logger) *InboundConsumer {
	return &InboundConsumer{
		natsClient: natsClient,
		reconciler: reconciler,
		logger:     logger.With("consumer", "inbound"),
	}
}

func (c *InboundConsumer) StartConsuming(ctx context.Context, subject, queueGroup string) error {
	c.logger.Info("Starting inbound consumer", "subject", subject, "queue_group", queueGroup)

	msgHandler := func(msg *nats.Msg) {
		natsEventsReceivedCounter.WithLabelValues(subject).Inc()

		var event domain.InboundSMSEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			c.logger.Error("Failed to unmarshal inbound event", "error", err, "subject", msg.Subject, "data", string(msg.Data))
			return
		}

		eventCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.reconciler.ReceiveInbound(eventCtx, event.From, event.Body); err != nil {
			c.logger.Error("Failed to process inbound reply", "error", err, "from", event.From)
		}
	}

	var err error
	c.sub, err = c.natsClient.Subscribe(ctx, subject, queueGroup, msgHandler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to NATS subject %q: %w", subject, err)
	}
	return nil
}

func (c *InboundConsumer) Stop() {
	if c.sub != nil && c.sub.IsValid() {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Error("Failed to unsubscribe inbound consumer", "error", err)
		}
	}
}
