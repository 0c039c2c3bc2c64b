package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// MockSMSProvider accepts every message without touching the network. Useful
// for local development and tests.
type MockSMSProvider struct {
	logger     *slog.Logger
	shouldFail bool
	delay      time.Duration
	counter    atomic.Int64
}

func NewMockSMSProvider(logger *slog.Logger, shouldFail bool, delay time.Duration) *MockSMSProvider {
	return &MockSMSProvider{
		logger:     logger.With("provider", "mock"),
		shouldFail: shouldFail,
		delay:      delay,
	}
}

func (p *MockSMSProvider) Send(ctx context.Context, details SendRequestDetails) (*SendResponseDetails, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.shouldFail {
		return &SendResponseDetails{
			ProviderStatus: "FAILED_MOCK",
			ErrorMessage:   "mock provider configured to fail",
		}, fmt.Errorf("mock provider configured to fail")
	}
	ref := fmt.Sprintf("mock-%d", p.counter.Add(1))
	p.logger.InfoContext(ctx, "Mock send", "recipient", details.Recipient, "provider_message_id", ref)
	return &SendResponseDetails{
		ProviderMessageID: ref,
		ProviderStatus:    "queued",
	}, nil
}

func (p *MockSMSProvider) GetName() string {
	return "mock"
}
