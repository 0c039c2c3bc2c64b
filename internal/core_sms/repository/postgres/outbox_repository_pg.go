package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/textblast/gateway/internal/core_sms/domain"
)

type PgOutboxRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgOutboxRepository(db Querier, logger *slog.Logger) domain.OutboxRepository {
	return &PgOutboxRepository{db: db, logger: logger.With("component", "outbox_repository_pg")}
}

func (r *PgOutboxRepository) Create(ctx context.Context, msg *domain.OutboundMessage) (*domain.OutboundMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.Status == "" {
		msg.Status = domain.MessageStatusQueued
	}

	query := `
		INSERT INTO outbound_messages (
			id, recipient, display_name, body, provider_ref, status, error_info, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.Recipient, msg.DisplayName, msg.Body, msg.ProviderRef, msg.Status, msg.ErrorInfo,
		msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting outbound message: %w", err)
	}
	r.logger.DebugContext(ctx, "Outbound message persisted", "id", msg.ID, "status", msg.Status)
	return msg, nil
}

// UpdateStatusByProviderRef updates every row carrying the given provider
// reference. The caller decides what zero affected rows means.
func (r *PgOutboxRepository) UpdateStatusByProviderRef(ctx context.Context, providerRef string, status domain.MessageStatus, errorInfo *string) (int64, error) {
	now := time.Now().UTC()
	query := `
		UPDATE outbound_messages
		SET status = $2, error_info = COALESCE($3, error_info), updated_at = $4
		WHERE provider_ref = $1
	`
	tag, err := r.db.Exec(ctx, query, providerRef, status, errorInfo, now)
	if err != nil {
		return 0, fmt.Errorf("updating outbound message status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgOutboxRepository) GetByID(ctx context.Context, id string) (*domain.OutboundMessage, error) {
	msg := &domain.OutboundMessage{}
	query := `
		SELECT id, recipient, display_name, body, provider_ref, status, error_info, created_at, updated_at
		FROM outbound_messages WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.Recipient, &msg.DisplayName, &msg.Body, &msg.ProviderRef, &msg.Status, &msg.ErrorInfo,
		&msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOutboxMessageNotFound
		}
		return nil, fmt.Errorf("getting outbound message: %w", err)
	}
	return msg, nil
}

func (r *PgOutboxRepository) List(ctx context.Context, limit int) ([]*domain.OutboundMessage, error) {
	query := `
		SELECT id, recipient, display_name, body, provider_ref, status, error_info, created_at, updated_at
		FROM outbound_messages
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing outbound messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.OutboundMessage
	for rows.Next() {
		var msg domain.OutboundMessage
		err := rows.Scan(
			&msg.ID, &msg.Recipient, &msg.DisplayName, &msg.Body, &msg.ProviderRef, &msg.Status, &msg.ErrorInfo,
			&msg.CreatedAt, &msg.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning outbound message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PgOutboxRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM outbound_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting outbound message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOutboxMessageNotFound
	}
	return nil
}
