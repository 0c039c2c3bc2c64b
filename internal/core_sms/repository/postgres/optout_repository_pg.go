package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/textblast/gateway/internal/core_sms/domain"
)

type PgOptOutRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgOptOutRepository(db Querier, logger *slog.Logger) domain.OptOutRepository {
	return &PgOptOutRepository{db: db, logger: logger.With("component", "optout_repository_pg")}
}

// FindOptOuts returns the subset of the given identifiers present in the
// opt-out set, as a membership set keyed by identifier.
func (r *PgOptOutRepository) FindOptOuts(ctx context.Context, identifiers []string) (map[string]struct{}, error) {
	optedOut := make(map[string]struct{})
	if len(identifiers) == 0 {
		return optedOut, nil
	}

	query := `SELECT identifier FROM opt_outs WHERE identifier = ANY($1)`
	rows, err := r.db.Query(ctx, query, identifiers)
	if err != nil {
		return nil, fmt.Errorf("querying opt-outs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var identifier string
		if err := rows.Scan(&identifier); err != nil {
			return nil, fmt.Errorf("scanning opt-out identifier: %w", err)
		}
		optedOut[identifier] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return optedOut, nil
}

// Upsert records an opt-out. Re-opting-out refreshes created_at on the
// existing row, so concurrent upserts for the same identifier are safe.
func (r *PgOptOutRepository) Upsert(ctx context.Context, identifier string) error {
	query := `
		INSERT INTO opt_outs (id, identifier, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (identifier) DO UPDATE SET created_at = EXCLUDED.created_at
	`
	if _, err := r.db.Exec(ctx, query, uuid.NewString(), identifier, time.Now().UTC()); err != nil {
		return fmt.Errorf("upserting opt-out: %w", err)
	}
	r.logger.DebugContext(ctx, "Opt-out upserted", "identifier", identifier)
	return nil
}

func (r *PgOptOutRepository) List(ctx context.Context, limit int) ([]*domain.OptOutEntry, error) {
	query := `
		SELECT id, identifier, created_at
		FROM opt_outs
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing opt-outs: %w", err)
	}
	defer rows.Close()

	var entries []*domain.OptOutEntry
	for rows.Next() {
		var entry domain.OptOutEntry
		if err := rows.Scan(&entry.ID, &entry.Identifier, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning opt-out entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
