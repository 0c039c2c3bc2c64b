package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"

	exportapp "github.com/textblast/gateway/internal/export_service/app"
)

type ExportHandler struct {
	exportService *exportapp.ExportService
	logger        *slog.Logger
}

func NewExportHandler(exportService *exportapp.ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger.With("handler", "export"),
	}
}

// RegisterRoutes registers export routes with the given router.
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/export", h.handleExport)
}

// handleExport streams a CSV download of the requested data set
// (?type=messages|inbound|optouts).
func (h *ExportHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	exportType := exportapp.ExportType(r.URL.Query().Get("type"))
	if exportType == "" {
		exportType = exportapp.ExportTypeMessages
	}

	fileName := fmt.Sprintf("%s_export_%s.csv", exportType, time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := h.exportService.ExportCSV(ctx, exportType, w); err != nil {
		if errors.Is(err, exportapp.ErrUnknownExportType) {
			// Nothing has been written yet for an unknown type, so the error
			// status still goes out cleanly.
			w.Header().Del("Content-Disposition")
			w.Header().Set("Content-Type", "application/json")
			writeJSON(w, http.StatusBadRequest, GenericErrorResponse{Error: err.Error()})
			return
		}
		// The CSV header may already be on the wire; all we can do is log.
		logger.ErrorContext(ctx, "Export failed mid-stream", "error", err, "type", exportType)
		return
	}
}
