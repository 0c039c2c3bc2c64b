package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// MessageStatus defines the states of an outbound SMS message. Delivery-status
// callbacks are provider-driven: statuses outside this list are stored verbatim
// (last write wins), so Scan accepts unknown values.
type MessageStatus string

const (
	MessageStatusQueued      MessageStatus = "queued"
	MessageStatusSent        MessageStatus = "sent"
	MessageStatusDelivered   MessageStatus = "delivered"
	MessageStatusUndelivered MessageStatus = "undelivered"
	MessageStatusFailed      MessageStatus = "failed"
)

// Value implements the driver.Valuer interface for MessageStatus.
func (ms MessageStatus) Value() (driver.Value, error) {
	return string(ms), nil
}

// Scan implements the sql.Scanner interface for MessageStatus.
func (ms *MessageStatus) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan MessageStatus: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*ms = MessageStatus(strVal)
	return nil
}

// OutboundMessage is one persisted send attempt. Exactly one row is created per
// recipient per batch, including failed attempts. After creation only the
// reconciler mutates it (status, error info, updated_at).
type OutboundMessage struct {
	ID          string        `json:"id"` // UUID
	Recipient   string        `json:"recipient"`
	DisplayName *string       `json:"display_name,omitempty"`
	Body        string        `json:"body"`
	ProviderRef *string       `json:"provider_ref,omitempty"` // set once at creation when the send succeeded
	Status      MessageStatus `json:"status"`
	ErrorInfo   *string       `json:"error_info,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// InboundMessage is one received reply. Immutable after creation except for
// deletion.
type InboundMessage struct {
	ID        string    `json:"id"` // UUID
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// OptOutEntry records a recipient's durable request to stop receiving
// messages. The identifier is the unique key: re-opting-out refreshes
// created_at rather than duplicating the row.
type OptOutEntry struct {
	ID         string    `json:"id"` // UUID
	Identifier string    `json:"identifier"`
	CreatedAt  time.Time `json:"created_at"`
}

// InvalidRecord is a per-recipient validation failure, recorded in the batch
// outcome rather than aborting the batch.
type InvalidRecord struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name,omitempty"`
	Reason      string `json:"reason"`
}

// BatchOutcome summarizes one dispatch run. The counts always reconcile:
// Sent + Failed + Skipped + Invalid == TotalRequested.
type BatchOutcome struct {
	Sent           int             `json:"sent"`
	Failed         int             `json:"failed"`
	Skipped        int             `json:"skipped"`
	Invalid        int             `json:"invalid"`
	TotalRequested int             `json:"total_requested"`
	Errors         []string        `json:"errors,omitempty"`
	InvalidRecords []InvalidRecord `json:"invalid_records,omitempty"`
}
