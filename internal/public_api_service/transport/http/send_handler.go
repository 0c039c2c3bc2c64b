package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/textblast/gateway/internal/core_sms/domain"
	dispatchapp "github.com/textblast/gateway/internal/dispatch_service/app"
)

// BatchDispatcher is the slice of the dispatch service the send handler needs.
type BatchDispatcher interface {
	DispatchBatch(ctx context.Context, rawRecipients, template string) (*domain.BatchOutcome, error)
	DispatchTest(ctx context.Context, rawRecipients, template string) (*dispatchapp.TestOutcome, error)
}

type SendHandler struct {
	dispatcher BatchDispatcher
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewSendHandler(dispatcher BatchDispatcher, validate *validator.Validate, logger *slog.Logger) *SendHandler {
	return &SendHandler{
		dispatcher: dispatcher,
		validate:   validate,
		logger:     logger.With("handler", "send"),
	}
}

// RegisterRoutes registers send routes with the given router.
func (h *SendHandler) RegisterRoutes(r chi.Router) {
	r.Post("/messages/send", h.handleSendBatch)
	r.Post("/messages/test", h.handleSendTest)
}

// handleSendBatch runs a full batch dispatch synchronously. The send loop is
// rate limited, so for large lists the response can take a while; the batch
// keeps running even if per-recipient sends fail.
func (h *SendHandler) handleSendBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	req, ok := h.decodeRequest(w, r, logger)
	if !ok {
		return
	}

	outcome, err := h.dispatcher.DispatchBatch(ctx, req.Recipients, req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrProviderNotConfigured) {
			h.jsonError(w, logger, "SMS provider is not configured", http.StatusServiceUnavailable)
			return
		}
		logger.ErrorContext(ctx, "Batch dispatch failed", "error", err)
		h.jsonError(w, logger, "Batch dispatch failed", http.StatusInternalServerError)
		return
	}

	logger.InfoContext(ctx, "Batch dispatch completed",
		"sent", outcome.Sent, "failed", outcome.Failed, "skipped", outcome.Skipped, "invalid", outcome.Invalid)
	writeJSON(w, http.StatusOK, outcome)
}

// handleSendTest sends to at most a few recipients without touching storage,
// for verifying provider credentials.
func (h *SendHandler) handleSendTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	req, ok := h.decodeRequest(w, r, logger)
	if !ok {
		return
	}

	outcome, err := h.dispatcher.DispatchTest(ctx, req.Recipients, req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrProviderNotConfigured) {
			h.jsonError(w, logger, "SMS provider is not configured", http.StatusServiceUnavailable)
			return
		}
		logger.ErrorContext(ctx, "Test dispatch failed", "error", err)
		h.jsonError(w, logger, "Test dispatch failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *SendHandler) decodeRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (SendMessageRequest, bool) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "Failed to decode send request", "error", err)
		h.jsonError(w, logger, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		h.jsonError(w, logger, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *SendHandler) jsonError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	logger.Warn("API error response", "status_code", statusCode, "message", message)
	writeJSON(w, statusCode, GenericErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
