package domain

// DeliveryStatusEvent is the normalized delivery-status callback as published
// on NATS by the HTTP layer. Status values are provider-defined and stored
// verbatim; the reconciler does not validate transitions.
type DeliveryStatusEvent struct {
	// ProviderRef is the provider's opaque message reference
	// (Twilio: MessageSid).
	ProviderRef string `json:"provider_ref" validate:"required"`

	// Status is the new delivery status (e.g. "sent", "delivered", "failed").
	Status string `json:"status" validate:"required"`

	// ErrorInfo is an optional provider error code or description.
	ErrorInfo string `json:"error_info,omitempty"`
}

// InboundSMSEvent is a recipient reply as published on NATS by the HTTP layer.
type InboundSMSEvent struct {
	// From is the sender's phone number.
	From string `json:"from" validate:"required"`

	// Body is the message text.
	Body string `json:"body" validate:"required"`
}
