package domain

import "errors"

var (
	// ErrProviderNotConfigured is a fatal precondition: the batch never starts.
	ErrProviderNotConfigured = errors.New("delivery provider not configured")

	// ErrOutboxMessageNotFound is returned for lookups/deletes of unknown rows.
	ErrOutboxMessageNotFound = errors.New("outbox message not found")
)
