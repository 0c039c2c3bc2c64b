package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/textblast/gateway/internal/core_sms/domain"
)

type PgInboxRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgInboxRepository(db Querier, logger *slog.Logger) domain.InboxRepository {
	return &PgInboxRepository{db: db, logger: logger.With("component", "inbox_repository_pg")}
}

func (r *PgInboxRepository) Create(ctx context.Context, msg *domain.InboundMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO inbound_messages (id, sender, body, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, msg.ID, msg.Sender, msg.Body, msg.CreatedAt); err != nil {
		return fmt.Errorf("inserting inbound message: %w", err)
	}
	r.logger.DebugContext(ctx, "Inbound message persisted", "id", msg.ID, "sender", msg.Sender)
	return nil
}

func (r *PgInboxRepository) List(ctx context.Context, limit int) ([]*domain.InboundMessage, error) {
	query := `
		SELECT id, sender, body, created_at
		FROM inbound_messages
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inbound messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.InboundMessage
	for rows.Next() {
		var msg domain.InboundMessage
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning inbound message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
