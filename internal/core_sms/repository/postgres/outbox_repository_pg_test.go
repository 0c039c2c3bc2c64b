package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5" // For pgx.ErrNoRows
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textblast/gateway/internal/core_sms/domain"
)

const updateByProviderRefPattern = `(?s)UPDATE outbound_messages.*SET status = \$2, error_info = COALESCE\(\$3, error_info\), updated_at = \$4.*WHERE provider_ref = \$1`

func TestPgOutboxRepository_UpdateStatusByProviderRef(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	providerRef := "SM123abc"

	t.Run("UpdatesAllMatchingRows", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgOutboxRepository(mockPool, logger)

		mockPool.ExpectExec(updateByProviderRefPattern).
			WithArgs(providerRef, domain.MessageStatusDelivered, (*string)(nil), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 2))

		affected, err := repo.UpdateStatusByProviderRef(context.Background(), providerRef, domain.MessageStatusDelivered, nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), affected)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NoMatchingRow_ReportsZeroAffected", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgOutboxRepository(mockPool, logger)

		mockPool.ExpectExec(updateByProviderRefPattern).
			WithArgs("SMunknown", domain.MessageStatusDelivered, (*string)(nil), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		affected, err := repo.UpdateStatusByProviderRef(context.Background(), "SMunknown", domain.MessageStatusDelivered, nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), affected)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("CarriesErrorInfoOnFailure", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgOutboxRepository(mockPool, logger)

		errorInfo := "30003"
		mockPool.ExpectExec(updateByProviderRefPattern).
			WithArgs(providerRef, domain.MessageStatusFailed, &errorInfo, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		affected, err := repo.UpdateStatusByProviderRef(context.Background(), providerRef, domain.MessageStatusFailed, &errorInfo)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), affected)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("ExecError", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgOutboxRepository(mockPool, logger)

		expectedError := errors.New("DB error")
		mockPool.ExpectExec(updateByProviderRefPattern).
			WithArgs(providerRef, domain.MessageStatusDelivered, (*string)(nil), pgxmock.AnyArg()).
			WillReturnError(expectedError)

		affected, err := repo.UpdateStatusByProviderRef(context.Background(), providerRef, domain.MessageStatusDelivered, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), expectedError.Error())
		assert.Equal(t, int64(0), affected)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgOutboxRepository_Create(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("FillsDefaultsAndInserts", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgOutboxRepository(mockPool, logger)

		mockPool.ExpectExec(`INSERT INTO outbound_messages`).
			WithArgs(
				pgxmock.AnyArg(), "+15550001111", (*string)(nil), "hello there", (*string)(nil),
				domain.MessageStatusQueued, (*string)(nil), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		created, err := repo.Create(context.Background(), &domain.OutboundMessage{
			Recipient: "+15550001111",
			Body:      "hello there",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, domain.MessageStatusQueued, created.Status)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("ExecError", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgOutboxRepository(mockPool, logger)

		expectedError := errors.New("DB error")
		mockPool.ExpectExec(`INSERT INTO outbound_messages`).
			WithArgs(
				pgxmock.AnyArg(), "+15550001111", (*string)(nil), "hello there", (*string)(nil),
				domain.MessageStatusQueued, (*string)(nil), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnError(expectedError)

		created, err := repo.Create(context.Background(), &domain.OutboundMessage{
			Recipient: "+15550001111",
			Body:      "hello there",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), expectedError.Error())
		assert.Nil(t, created)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgOutboxRepository_GetByID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Found", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgOutboxRepository(mockPool, logger)

		id := "4dd7a1a7-8b61-4f3e-9c55-0d5a3e1e9f10"
		providerRef := "SM123abc"
		now := time.Now().UTC()
		rows := mockPool.NewRows([]string{
			"id", "recipient", "display_name", "body", "provider_ref", "status", "error_info", "created_at", "updated_at",
		}).AddRow(id, "+15550001111", (*string)(nil), "hello there", &providerRef, domain.MessageStatusSent, (*string)(nil), now, now)

		mockPool.ExpectQuery(`(?s)SELECT id, recipient, display_name, body, provider_ref, status, error_info, created_at, updated_at.*FROM outbound_messages WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(rows)

		msg, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, msg.ID)
		assert.Equal(t, domain.MessageStatusSent, msg.Status)
		require.NotNil(t, msg.ProviderRef)
		assert.Equal(t, providerRef, *msg.ProviderRef)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgOutboxRepository(mockPool, logger)

		mockPool.ExpectQuery(`FROM outbound_messages WHERE id = \$1`).
			WithArgs("missing-id").
			WillReturnError(pgx.ErrNoRows)

		msg, err := repo.GetByID(context.Background(), "missing-id")
		assert.ErrorIs(t, err, domain.ErrOutboxMessageNotFound)
		assert.Nil(t, msg)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgOutboxRepository_Delete(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("RemovesRow", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgOutboxRepository(mockPool, logger)

		mockPool.ExpectExec(`DELETE FROM outbound_messages WHERE id = \$1`).
			WithArgs("some-id").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(context.Background(), "some-id"))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("UnknownID_NotFound", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPgOutboxRepository(mockPool, logger)

		mockPool.ExpectExec(`DELETE FROM outbound_messages WHERE id = \$1`).
			WithArgs("missing-id").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = repo.Delete(context.Background(), "missing-id")
		assert.ErrorIs(t, err, domain.ErrOutboxMessageNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
