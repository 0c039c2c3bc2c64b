package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/textblast/gateway/internal/core_sms/domain"
	"github.com/textblast/gateway/internal/dispatch_service/provider"
	"github.com/textblast/gateway/internal/dispatch_service/recipient"
)

// DispatchService drives the rate-limited batch send loop: parse, normalize,
// validate, filter opted-out recipients, then send strictly sequentially in
// input order, recording one OutboundMessage per eligible recipient.
type DispatchService struct {
	outboxRepo        domain.OutboxRepository
	optOutRepo        domain.OptOutRepository
	sender            provider.SMSSenderProvider
	interval          time.Duration
	countryCode       string
	statusCallbackURL string
	logger            *slog.Logger

	// sleep is swapped out in tests to observe pacing without wall-clock waits.
	sleep func(ctx context.Context, d time.Duration)
}

// NewDispatchService creates a DispatchService. sender may be nil when the
// provider is not configured; DispatchBatch then fails before doing any work.
func NewDispatchService(
	outboxRepo domain.OutboxRepository,
	optOutRepo domain.OptOutRepository,
	sender provider.SMSSenderProvider,
	interval time.Duration,
	countryCode string,
	statusCallbackURL string,
	logger *slog.Logger,
) *DispatchService {
	return &DispatchService{
		outboxRepo:        outboxRepo,
		optOutRepo:        optOutRepo,
		sender:            sender,
		interval:          interval,
		countryCode:       countryCode,
		statusCallbackURL: statusCallbackURL,
		logger:            logger.With("service", "dispatch"),
		sleep:             sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// DispatchBatch runs one batch over the raw recipient input and the message
// template. Per-recipient failures are recorded in the outcome and never abort
// the batch; the returned counts always satisfy
// Sent + Failed + Skipped + Invalid == TotalRequested.
func (s *DispatchService) DispatchBatch(ctx context.Context, rawRecipients, template string) (*domain.BatchOutcome, error) {
	if s.sender == nil {
		return nil, domain.ErrProviderNotConfigured
	}

	records := recipient.Parse(rawRecipients)
	outcome := &domain.BatchOutcome{TotalRequested: len(records)}

	valid := make([]recipient.Record, 0, len(records))
	for _, rec := range records {
		normalized := recipient.Normalize(rec.Identifier, s.countryCode)
		switch {
		case normalized == "":
			outcome.InvalidRecords = append(outcome.InvalidRecords, domain.InvalidRecord{
				Identifier:  rec.Identifier,
				DisplayName: rec.DisplayName,
				Reason:      "empty phone number",
			})
		case !recipient.IsValid(normalized):
			outcome.InvalidRecords = append(outcome.InvalidRecords, domain.InvalidRecord{
				Identifier:  rec.Identifier,
				DisplayName: rec.DisplayName,
				Reason:      "invalid phone number format",
			})
		default:
			valid = append(valid, recipient.Record{Identifier: normalized, DisplayName: rec.DisplayName})
		}
	}
	outcome.Invalid = len(outcome.InvalidRecords)
	dispatchMessagesCounter.WithLabelValues("invalid").Add(float64(outcome.Invalid))

	if len(valid) == 0 {
		s.logger.InfoContext(ctx, "Batch contained no valid recipients", "total_requested", outcome.TotalRequested)
		dispatchBatchesCounter.WithLabelValues("no_valid_recipients").Inc()
		return outcome, nil
	}

	identifiers := make([]string, len(valid))
	for i, rec := range valid {
		identifiers[i] = rec.Identifier
	}
	optedOut, err := s.optOutRepo.FindOptOuts(ctx, identifiers)
	if err != nil {
		return nil, fmt.Errorf("opt-out lookup failed: %w", err)
	}

	eligible := make([]recipient.Record, 0, len(valid))
	for _, rec := range valid {
		if _, skip := optedOut[rec.Identifier]; skip {
			outcome.Skipped++
			continue
		}
		eligible = append(eligible, rec)
	}
	dispatchMessagesCounter.WithLabelValues("skipped").Add(float64(outcome.Skipped))

	if len(eligible) == 0 {
		s.logger.InfoContext(ctx, "All valid recipients are opted out", "skipped", outcome.Skipped)
		dispatchBatchesCounter.WithLabelValues("all_opted_out").Inc()
		return outcome, nil
	}

	s.logger.InfoContext(ctx, "Starting batch send",
		"total_requested", outcome.TotalRequested,
		"eligible", len(eligible),
		"skipped", outcome.Skipped,
		"invalid", outcome.Invalid,
	)

	for i, rec := range eligible {
		// Fixed inter-send spacing: a delay before every send except the
		// first, so N sends observe exactly N-1 delays even when some fail.
		if i > 0 {
			s.sleep(ctx, s.interval)
		}
		s.sendOne(ctx, rec, template, outcome)
	}

	dispatchBatchesCounter.WithLabelValues("completed").Inc()
	s.logger.InfoContext(ctx, "Batch send finished",
		"sent", outcome.Sent,
		"failed", outcome.Failed,
		"skipped", outcome.Skipped,
		"invalid", outcome.Invalid,
	)
	return outcome, nil
}

func (s *DispatchService) sendOne(ctx context.Context, rec recipient.Record, template string, outcome *domain.BatchOutcome) {
	body := PersonalizeMessage(template, rec.DisplayName)
	msg := &domain.OutboundMessage{
		ID:        uuid.NewString(),
		Recipient: rec.Identifier,
		Body:      body,
	}
	if rec.DisplayName != "" {
		name := rec.DisplayName
		msg.DisplayName = &name
	}

	start := time.Now()
	resp, sendErr := s.sender.Send(ctx, provider.SendRequestDetails{
		InternalMessageID: msg.ID,
		Recipient:         rec.Identifier,
		Content:           body,
		StatusCallbackURL: s.statusCallbackURL,
	})
	dispatchSendDuration.WithLabelValues(s.sender.GetName()).Observe(time.Since(start).Seconds())

	if sendErr != nil {
		s.logger.ErrorContext(ctx, "Provider send failed", "error", sendErr, "recipient", rec.Identifier, "message_id", msg.ID)
		errInfo := sendErr.Error()
		msg.Status = domain.MessageStatusFailed
		msg.ErrorInfo = &errInfo
		outcome.Failed++
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %s", rec.Identifier, errInfo))
		dispatchMessagesCounter.WithLabelValues("failed").Inc()
	} else {
		msg.Status = domain.MessageStatusQueued
		if resp.ProviderMessageID != "" {
			ref := resp.ProviderMessageID
			msg.ProviderRef = &ref
		}
		outcome.Sent++
		dispatchMessagesCounter.WithLabelValues("sent").Inc()
	}

	if _, err := s.outboxRepo.Create(ctx, msg); err != nil {
		// The send already happened (or failed); losing the row is a logged
		// defect, not grounds to abort the rest of the batch.
		s.logger.ErrorContext(ctx, "Failed to persist outbound message", "error", err, "recipient", rec.Identifier, "message_id", msg.ID)
	}
}

// TestSendResult is one per-recipient result of a test batch.
type TestSendResult struct {
	Recipient   string `json:"recipient"`
	DisplayName string `json:"display_name,omitempty"`
	Body        string `json:"body"`
	Status      string `json:"status"`
	ProviderRef string `json:"provider_ref,omitempty"`
	Error       string `json:"error,omitempty"`
}

// TestOutcome summarizes a test batch.
type TestOutcome struct {
	Sent           int                    `json:"sent"`
	Failed         int                    `json:"failed"`
	Total          int                    `json:"total"`
	Limited        bool                   `json:"limited"`
	Results        []TestSendResult       `json:"results"`
	InvalidRecords []domain.InvalidRecord `json:"invalid_records,omitempty"`
}

// testSendLimit caps test batches so a stray paste cannot blast a full list.
const testSendLimit = 3

// DispatchTest sends the template to at most three valid recipients without
// touching storage or the opt-out set. It exists for verifying provider
// credentials end to end.
func (s *DispatchService) DispatchTest(ctx context.Context, rawRecipients, template string) (*TestOutcome, error) {
	if s.sender == nil {
		return nil, domain.ErrProviderNotConfigured
	}

	records := recipient.Parse(rawRecipients)
	outcome := &TestOutcome{}
	var valid []recipient.Record
	for _, rec := range records {
		normalized := recipient.Normalize(rec.Identifier, s.countryCode)
		if normalized == "" || !recipient.IsValid(normalized) {
			reason := "invalid phone number format"
			if normalized == "" {
				reason = "empty phone number"
			}
			outcome.InvalidRecords = append(outcome.InvalidRecords, domain.InvalidRecord{
				Identifier:  rec.Identifier,
				DisplayName: rec.DisplayName,
				Reason:      reason,
			})
			continue
		}
		valid = append(valid, recipient.Record{Identifier: normalized, DisplayName: rec.DisplayName})
	}

	if len(valid) > testSendLimit {
		valid = valid[:testSendLimit]
		outcome.Limited = true
	}
	outcome.Total = len(valid)

	for i, rec := range valid {
		if i > 0 {
			s.sleep(ctx, s.interval)
		}
		body := PersonalizeMessage(template, rec.DisplayName)
		result := TestSendResult{Recipient: rec.Identifier, DisplayName: rec.DisplayName, Body: body}
		resp, err := s.sender.Send(ctx, provider.SendRequestDetails{
			Recipient: rec.Identifier,
			Content:   body,
		})
		if err != nil {
			result.Status = "failed"
			result.Error = err.Error()
			outcome.Failed++
		} else {
			result.Status = "sent"
			result.ProviderRef = resp.ProviderMessageID
			outcome.Sent++
		}
		outcome.Results = append(outcome.Results, result)
	}
	return outcome, nil
}
