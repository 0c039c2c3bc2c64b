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

// DLRConsumer consumes raw delivery-status events from NATS and hands them to
// the Reconciler.
type DLRConsumer struct {
	natsClient *messagebroker.NATSClient
	reconciler *Reconciler
	logger     *slog.Logger
	sub        *nats.Subscription
}

func NewDLRConsumer(natsClient *messagebroker.NATSClient, reconciler *Reconciler, logger *slog.Logger) *DLRConsumer {
	return &DLRConsumer{
		natsClient: natsClient,
		reconciler: reconciler,
		logger:     logger.With("consumer", "dlr"),
	}
}

// StartConsuming subscribes to the given subject with a queue group so
// multiple gateway instances share the work.
func (c *DLRConsumer) StartConsuming(ctx context.Context, subject, queueGroup string) error {
	c.logger.Info("Starting DLR consumer", "subject", subject, "queue_group", queueGroup)

	msgHandler := func(msg *nats.Msg) {
		natsEventsReceivedCounter.WithLabelValues(subject).Inc()

		var event domain.DeliveryStatusEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			c.logger.Error("Failed to unmarshal delivery-status event", "error", err, "subject", msg.Subject, "data", string(msg.Data))
			return
		}

		eventCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var errorInfo *string
		if event.ErrorInfo != "" {
			errorInfo = &event.ErrorInfo
		}
		if err := c.reconciler.ApplyStatus(eventCtx, event.ProviderRef, event.Status, errorInfo); err != nil {
			c.logger.Error("Failed to apply delivery status", "error", err, "provider_ref", event.ProviderRef)
		}
	}

	var err error
	c.sub, err = c.natsClient.Subscribe(ctx, subject, queueGroup, msgHandler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to NATS subject %q: %w", subject, err)
	}
	return nil
}

// Stop unsubscribes from NATS.
func (c *DLRConsumer) Stop() {
	if c.sub != nil && c.sub.IsValid() {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Error("Failed to unsubscribe DLR consumer", "error", err)
		}
	}
}
