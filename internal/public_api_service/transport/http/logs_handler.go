package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/textblast/gateway/internal/core_sms/domain"
)

// maxLogPageSize caps list responses regardless of the requested limit.
const maxLogPageSize = 1000

type LogsHandler struct {
	outboxRepo domain.OutboxRepository
	inboxRepo  domain.InboxRepository
	logger     *slog.Logger
}

func NewLogsHandler(outboxRepo domain.OutboxRepository, inboxRepo domain.InboxRepository, logger *slog.Logger) *LogsHandler {
	return &LogsHandler{
		outboxRepo: outboxRepo,
		inboxRepo:  inboxRepo,
		logger:     logger.With("handler", "logs"),
	}
}

// RegisterRoutes registers log routes with the given router.
func (h *LogsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/logs/messages", h.handleListMessages)
	r.Get("/logs/messages/{messageID}", h.handleGetMessage)
	r.Delete("/logs/messages/{messageID}", h.handleDeleteMessage)
	r.Get("/logs/inbound", h.handleListInbound)
}

func (h *LogsHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	messages, err := h.outboxRepo.List(ctx, parseLimit(r))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list outbound messages", "error", err)
		writeJSON(w, http.StatusInternalServerError, GenericErrorResponse{Error: "Failed to list messages"})
		return
	}
	if messages == nil {
		messages = []*domain.OutboundMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *LogsHandler) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	messageID := chi.URLParam(r, "messageID")
	if _, err := uuid.Parse(messageID); err != nil {
		writeJSON(w, http.StatusBadRequest, GenericErrorResponse{Error: "Invalid message ID format"})
		return
	}

	msg, err := h.outboxRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrOutboxMessageNotFound) {
			writeJSON(w, http.StatusNotFound, GenericErrorResponse{Error: "Message not found"})
			return
		}
		logger.ErrorContext(ctx, "Failed to get outbound message", "error", err, "message_id", messageID)
		writeJSON(w, http.StatusInternalServerError, GenericErrorResponse{Error: "Failed to retrieve message"})
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *LogsHandler) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	messageID := chi.URLParam(r, "messageID")
	if _, err := uuid.Parse(messageID); err != nil {
		writeJSON(w, http.StatusBadRequest, GenericErrorResponse{Error: "Invalid message ID format"})
		return
	}

	if err := h.outboxRepo.Delete(ctx, messageID); err != nil {
		if errors.Is(err, domain.ErrOutboxMessageNotFound) {
			writeJSON(w, http.StatusNotFound, GenericErrorResponse{Error: "Message not found"})
			return
		}
		logger.ErrorContext(ctx, "Failed to delete outbound message", "error", err, "message_id", messageID)
		writeJSON(w, http.StatusInternalServerError, GenericErrorResponse{Error: "Failed to delete message"})
		return
	}

	logger.InfoContext(ctx, "Outbound message deleted", "message_id", messageID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *LogsHandler) handleListInbound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	messages, err := h.inboxRepo.List(ctx, parseLimit(r))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list inbound messages", "error", err)
		writeJSON(w, http.StatusInternalServerError, GenericErrorResponse{Error: "Failed to list inbound messages"})
		return
	}
	if messages == nil {
		messages = []*domain.InboundMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// parseLimit reads the limit query parameter, clamped to maxLogPageSize.
// Absent or malformed values fall back to the cap.
func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return maxLogPageSize
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxLogPageSize {
		return maxLogPageSize
	}
	return limit
}
