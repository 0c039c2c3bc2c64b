package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/textblast/gateway/internal/core_sms/domain"
)

// ExportType names a CSV export target.
type ExportType string

const (
	ExportTypeMessages ExportType = "messages"
	ExportTypeInbound  ExportType = "inbound"
	ExportTypeOptOuts  ExportType = "optouts"
)

// ErrUnknownExportType is returned when the requested export type is not one
// of the supported values.
var ErrUnknownExportType = fmt.Errorf("unknown export type")

// ExportService streams stored records as CSV.
type ExportService struct {
	outboxRepo domain.OutboxRepository
	inboxRepo  domain.InboxRepository
	optOutRepo domain.OptOutRepository
	logger     *slog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(
	outboxRepo domain.OutboxRepository,
	inboxRepo domain.InboxRepository,
	optOutRepo domain.OptOutRepository,
	logger *slog.Logger,
) *ExportService {
	return &ExportService{
		outboxRepo: outboxRepo,
		inboxRepo:  inboxRepo,
		optOutRepo: optOutRepo,
		logger:     logger.With("service", "export"),
	}
}

// ExportCSV writes the named data set to w as CSV, header row first. An
// unknown export type fails before anything is written.
func (s *ExportService) ExportCSV(ctx context.Context, exportType ExportType, w io.Writer) error {
	var records int
	var err error

	switch exportType {
	case ExportTypeMessages:
		records, err = s.exportMessages(ctx, w)
	case ExportTypeInbound:
		records, err = s.exportInbound(ctx, w)
	case ExportTypeOptOuts:
		records, err = s.exportOptOuts(ctx, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownExportType, exportType)
	}
	if err != nil {
		exportsCounter.WithLabelValues(string(exportType), "error").Inc()
		return err
	}

	s.logger.InfoContext(ctx, "Export completed", "type", exportType, "num_records", records)
	exportsCounter.WithLabelValues(string(exportType), "success").Inc()
	return nil
}

func (s *ExportService) exportMessages(ctx context.Context, w io.Writer) (int, error) {
	messages, err := s.outboxRepo.List(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("fetching messages for export: %w", err)
	}

	writer := csv.NewWriter(w)
	headers := []string{"ID", "Recipient", "DisplayName", "Body", "ProviderRef", "Status", "ErrorInfo", "CreatedAt", "UpdatedAt"}
	if err := writer.Write(headers); err != nil {
		return 0, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, msg := range messages {
		row := []string{
			msg.ID,
			msg.Recipient,
			ptrToString(msg.DisplayName),
			msg.Body,
			ptrToString(msg.ProviderRef),
			string(msg.Status),
			ptrToString(msg.ErrorInfo),
			msg.CreatedAt.Format(time.RFC3339),
			msg.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("writing CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("csv writer error: %w", err)
	}
	return len(messages), nil
}

func (s *ExportService) exportInbound(ctx context.Context, w io.Writer) (int, error) {
	messages, err := s.inboxRepo.List(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("fetching inbound messages for export: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ID", "Sender", "Body", "CreatedAt"}); err != nil {
		return 0, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, msg := range messages {
		row := []string{msg.ID, msg.Sender, msg.Body, msg.CreatedAt.Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("writing CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("csv writer error: %w", err)
	}
	return len(messages), nil
}

func (s *ExportService) exportOptOuts(ctx context.Context, w io.Writer) (int, error) {
	entries, err := s.optOutRepo.List(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("fetching opt-outs for export: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ID", "Identifier", "CreatedAt"}); err != nil {
		return 0, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, entry := range entries {
		row := []string{entry.ID, entry.Identifier, entry.CreatedAt.Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("writing CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("csv writer error: %w", err)
	}
	return len(entries), nil
}

// ptrToString converts a *string to string, returning empty if nil.
func ptrToString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
