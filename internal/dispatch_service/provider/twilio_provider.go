package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TwilioSMSProvider submits messages through Twilio's Messages API
// (form-encoded POST, basic auth with account SID and auth token).
type TwilioSMSProvider struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiURL     string
	accountSID string
	authToken  string
	fromNumber string
}

func NewTwilioSMSProvider(logger *slog.Logger, apiURL, accountSID, authToken, fromNumber string, httpClient *http.Client) *TwilioSMSProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TwilioSMSProvider{
		logger:     logger.With("provider", "twilio"),
		httpClient: httpClient,
		apiURL:     apiURL,
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
	}
}

// twilioMessageResponse is the subset of Twilio's message resource we consume.
type twilioMessageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// twilioErrorResponse is Twilio's error envelope.
type twilioErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (p *TwilioSMSProvider) Send(ctx context.Context, details SendRequestDetails) (*SendResponseDetails, error) {
	form := url.Values{}
	form.Set("To", details.Recipient)
	form.Set("From", p.fromNumber)
	form.Set("Body", details.Content)
	if details.StatusCallbackURL != "" {
		form.Set("StatusCallback", details.StatusCallbackURL)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", strings.TrimSuffix(p.apiURL, "/"), p.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request for Twilio: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(p.accountSID, p.authToken)

	p.logger.DebugContext(ctx, "Submitting message to Twilio", "recipient", details.Recipient, "internal_message_id", details.InternalMessageID)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Twilio: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil {
		return &SendResponseDetails{
			ProviderStatus: fmt.Sprintf("FAILED_TWILIO_READ_ERR_%d", httpResp.StatusCode),
			ErrorMessage:   readErr.Error(),
		}, fmt.Errorf("Twilio API request failed (status %d), and failed to read response body: %w", httpResp.StatusCode, readErr)
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		var msgResp twilioMessageResponse
		if err := json.Unmarshal(respBody, &msgResp); err != nil {
			p.logger.WarnContext(ctx, "Twilio accepted the message but response body was unparseable", "status_code", httpResp.StatusCode, "error", err, "internal_message_id", details.InternalMessageID)
			return &SendResponseDetails{
				ProviderStatus: fmt.Sprintf("SENT_TWILIO_%d_UNPARSED_RESP", httpResp.StatusCode),
			}, nil
		}
		if msgResp.SID == "" {
			return nil, fmt.Errorf("Twilio response missing message sid (status %d)", httpResp.StatusCode)
		}
		p.logger.InfoContext(ctx, "Message submitted to Twilio", "provider_message_id", msgResp.SID, "provider_status", msgResp.Status, "internal_message_id", details.InternalMessageID)
		return &SendResponseDetails{
			ProviderMessageID: msgResp.SID,
			ProviderStatus:    msgResp.Status,
		}, nil
	}

	errMsg := fmt.Sprintf("Twilio API error: status %d", httpResp.StatusCode)
	var errResp twilioErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
		errMsg = fmt.Sprintf("Twilio API error: status %d, code %d: %s", httpResp.StatusCode, errResp.Code, errResp.Message)
	}
	p.logger.WarnContext(ctx, "Twilio send failed", "status_code", httpResp.StatusCode, "error_message", errMsg, "internal_message_id", details.InternalMessageID)
	return &SendResponseDetails{
		ProviderStatus: fmt.Sprintf("FAILED_TWILIO_%d", httpResp.StatusCode),
		ErrorMessage:   errMsg,
	}, fmt.Errorf("%s", errMsg)
}

func (p *TwilioSMSProvider) GetName() string {
	return "twilio"
}
