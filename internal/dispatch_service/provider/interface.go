package provider

import "context"

// SendRequestDetails carries everything a provider needs for one send.
type SendRequestDetails struct {
	InternalMessageID string
	Recipient         string
	Content           string
	// StatusCallbackURL, when non-empty, asks the provider to POST
	// delivery-status callbacks for this message to the given URL.
	StatusCallbackURL string
}

// SendResponseDetails is the provider's answer to a submission attempt.
type SendResponseDetails struct {
	// ProviderMessageID is the provider's opaque reference for the message,
	// used to correlate later delivery-status callbacks.
	ProviderMessageID string
	ProviderStatus    string
	ErrorMessage      string
}

// SMSSenderProvider is the abstract delivery-provider capability. A failed
// submission returns a non-nil error; the response may still carry provider
// status details.
type SMSSenderProvider interface {
	Send(ctx context.Context, details SendRequestDetails) (*SendResponseDetails, error)
	GetName() string
}
