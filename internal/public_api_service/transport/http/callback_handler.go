package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	reconcilerdomain "github.com/textblast/gateway/internal/reconciler_service/domain"
)

// NATS subjects carrying raw provider events to the reconciler consumers.
const (
	SubjectDLRRaw     = "dlr.raw"
	SubjectInboundRaw = "sms.incoming.raw"
)

// EventPublisher is the slice of the message broker the callback handler needs.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// CallbackHandler accepts the provider's webhook callbacks, validates them,
// and hands them to the reconciler consumers via NATS. Acknowledging fast and
// processing async keeps the provider from retrying slow requests.
type CallbackHandler struct {
	publisher EventPublisher
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewCallbackHandler(publisher EventPublisher, validate *validator.Validate, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		publisher: publisher,
		validate:  validate,
		logger:    logger.With("handler", "callback"),
	}
}

// RegisterRoutes registers callback routes with the given router.
func (h *CallbackHandler) RegisterRoutes(r chi.Router) {
	r.Post("/callbacks/status", h.handleStatusCallback)
	r.Post("/callbacks/inbound", h.handleInboundCallback)
}

// handleStatusCallback accepts a form-encoded delivery-status callback
// (Twilio: MessageSid, MessageStatus, ErrorCode).
func (h *CallbackHandler) handleStatusCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	if err := r.ParseForm(); err != nil {
		logger.WarnContext(ctx, "Failed to parse status callback form", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	event := reconcilerdomain.DeliveryStatusEvent{
		ProviderRef: r.PostFormValue("MessageSid"),
		Status:      r.PostFormValue("MessageStatus"),
		ErrorInfo:   r.PostFormValue("ErrorCode"),
	}
	if err := h.validate.Struct(event); err != nil {
		logger.WarnContext(ctx, "Status callback missing required fields", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := h.publishEvent(ctx, SubjectDLRRaw, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish delivery-status event", "error", err, "provider_ref", event.ProviderRef)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.DebugContext(ctx, "Delivery-status event published", "provider_ref", event.ProviderRef, "status", event.Status)
	w.WriteHeader(http.StatusNoContent)
}

// handleInboundCallback accepts a form-encoded inbound reply (Twilio: From,
// Body) and acknowledges with an empty TwiML response so the provider does not
// auto-reply.
func (h *CallbackHandler) handleInboundCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	if err := r.ParseForm(); err != nil {
		logger.WarnContext(ctx, "Failed to parse inbound callback form", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	event := reconcilerdomain.InboundSMSEvent{
		From: r.PostFormValue("From"),
		Body: r.PostFormValue("Body"),
	}
	if err := h.validate.Struct(event); err != nil {
		logger.WarnContext(ctx, "Inbound callback missing required fields", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := h.publishEvent(ctx, SubjectInboundRaw, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish inbound event", "error", err, "from", event.From)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.DebugContext(ctx, "Inbound event published", "from", event.From)
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Response></Response>`))
}

func (h *CallbackHandler) publishEvent(ctx context.Context, subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.publisher.Publish(ctx, subject, payload)
}
