package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/textblast/gateway/internal/core_sms/domain"
)

// Reconciler applies externally originated events to stored message and
// opt-out state. Its two entry points are independently invocable, idempotent
// on replay, and safe to run concurrently with an in-progress batch.
type Reconciler struct {
	outboxRepo domain.OutboxRepository
	inboxRepo  domain.InboxRepository
	optOutRepo domain.OptOutRepository
	notifier   *OptOutNotifier
	logger     *slog.Logger
}

func NewReconciler(
	outboxRepo domain.OutboxRepository,
	inboxRepo domain.InboxRepository,
	optOutRepo domain.OptOutRepository,
	notifier *OptOutNotifier,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		outboxRepo: outboxRepo,
		inboxRepo:  inboxRepo,
		optOutRepo: optOutRepo,
		notifier:   notifier,
		logger:     logger.With("service", "reconciler"),
	}
}

// ApplyStatus updates every stored message whose provider reference matches.
// Transitions are provider-driven and not validated locally: last write wins.
// Zero matches is a silent no-op, since a callback may race message
// persistence or reference a retired message.
func (r *Reconciler) ApplyStatus(ctx context.Context, providerRef, newStatus string, errorInfo *string) error {
	affected, err := r.outboxRepo.UpdateStatusByProviderRef(ctx, providerRef, domain.MessageStatus(newStatus), errorInfo)
	if err != nil {
		dlrProcessedCounter.WithLabelValues("error").Inc()
		return fmt.Errorf("updating message status by provider ref: %w", err)
	}
	if affected == 0 {
		r.logger.DebugContext(ctx, "Delivery callback matched no stored messages", "provider_ref", providerRef, "status", newStatus)
		dlrProcessedCounter.WithLabelValues("unmatched").Inc()
		return nil
	}
	r.logger.InfoContext(ctx, "Applied delivery status", "provider_ref", providerRef, "status", newStatus, "affected", affected)
	dlrProcessedCounter.WithLabelValues("updated").Inc()
	return nil
}

// ReceiveInbound persists the reply unconditionally, then registers an opt-out
// when the body is an exact opt-out keyword. The confirmation reply is
// best-effort: the opt-out registration never depends on it.
func (r *Reconciler) ReceiveInbound(ctx context.Context, sender, body string) error {
	msg := &domain.InboundMessage{
		ID:     uuid.NewString(),
		Sender: sender,
		Body:   body,
	}
	if err := r.inboxRepo.Create(ctx, msg); err != nil {
		inboundProcessedCounter.WithLabelValues("error").Inc()
		return fmt.Errorf("persisting inbound message: %w", err)
	}

	if !IsOptOutKeyword(body) {
		inboundProcessedCounter.WithLabelValues("stored").Inc()
		return nil
	}

	if err := r.optOutRepo.Upsert(ctx, sender); err != nil {
		inboundProcessedCounter.WithLabelValues("error").Inc()
		return fmt.Errorf("registering opt-out: %w", err)
	}
	r.logger.InfoContext(ctx, "Opt-out registered", "sender", sender)
	optOutsRegisteredCounter.Inc()
	inboundProcessedCounter.WithLabelValues("opted_out").Inc()

	r.notifier.Notify(ctx, sender)
	return nil
}
