package domain

import "context"

// OutboxRepository defines persistence for outbound messages.
type OutboxRepository interface {
	Create(ctx context.Context, msg *OutboundMessage) (*OutboundMessage, error)
	// UpdateStatusByProviderRef updates every row whose provider_ref matches and
	// returns the number of affected rows. Zero matches is not an error: the
	// callback may race message persistence or reference a retired message.
	UpdateStatusByProviderRef(ctx context.Context, providerRef string, status MessageStatus, errorInfo *string) (int64, error)
	GetByID(ctx context.Context, id string) (*OutboundMessage, error)
	List(ctx context.Context, limit int) ([]*OutboundMessage, error)
	Delete(ctx context.Context, id string) error
}

// InboxRepository defines persistence for inbound replies.
type InboxRepository interface {
	Create(ctx context.Context, msg *InboundMessage) error
	List(ctx context.Context, limit int) ([]*InboundMessage, error)
}

// OptOutRepository defines persistence for the opt-out set. Upsert must be safe
// under concurrent calls for the same identifier.
type OptOutRepository interface {
	// FindOptOuts returns the subset of identifiers present in the opt-out set.
	FindOptOuts(ctx context.Context, identifiers []string) (map[string]struct{}, error)
	Upsert(ctx context.Context, identifier string) error
	List(ctx context.Context, limit int) ([]*OptOutEntry, error)
}
