package app

import (
	"context"
	"log/slog"

	"github.com/textblast/gateway/internal/dispatch_service/provider"
)

// optOutConfirmationText is sent to a recipient after their opt-out is
// registered.
const optOutConfirmationText = "You have been unsubscribed from our messages. Reply START to opt back in."

// OptOutNotifier sends the opt-out confirmation as a best-effort task: the
// durable opt-out registration must never be undone or blocked by a
// notification failure, so errors here terminate in the log.
type OptOutNotifier struct {
	sender provider.SMSSenderProvider
	logger *slog.Logger
}

// NewOptOutNotifier creates an OptOutNotifier. sender may be nil when the
// provider is not configured; Notify then does nothing.
func NewOptOutNotifier(sender provider.SMSSenderProvider, logger *slog.Logger) *OptOutNotifier {
	return &OptOutNotifier{
		sender: sender,
		logger: logger.With("component", "optout_notifier"),
	}
}

// Notify sends the confirmation reply. It never returns an error.
func (n *OptOutNotifier) Notify(ctx context.Context, recipient string) {
	if n.sender == nil {
		n.logger.DebugContext(ctx, "Provider not configured, skipping opt-out confirmation", "recipient", recipient)
		return
	}
	_, err := n.sender.Send(ctx, provider.SendRequestDetails{
		Recipient: recipient,
		Content:   optOutConfirmationText,
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to send opt-out confirmation", "error", err, "recipient", recipient)
		return
	}
	n.logger.InfoContext(ctx, "Opt-out confirmation sent", "recipient", recipient)
}
