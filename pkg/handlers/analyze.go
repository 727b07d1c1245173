package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/schemasense/schemasense-engine/pkg/apperrors"
	"github.com/schemasense/schemasense-engine/pkg/config"
	"github.com/schemasense/schemasense-engine/pkg/services"
)

// defaultTableName is used when the request does not name the table.
const defaultTableName = "my_table"

// AnalyzeHandler exposes the schema-inference engine over HTTP.
type AnalyzeHandler struct {
	cfg      *config.Config
	analyzer services.AnalyzerService
	logger   *zap.Logger
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
func NewAnalyzeHandler(cfg *config.Config, analyzer services.AnalyzerService, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{cfg: cfg, analyzer: analyzer, logger: logger.Named("analyze-handler")}
}

// RegisterRoutes registers the analyze handler's routes on the given mux.
func (h *AnalyzeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analyze", h.Analyze)
}

// Analyze handles POST /api/analyze requests: a multipart payload with the
// raw file under "file" and an optional "table_name" field. Validation
// (extension, size, non-empty) happens before the engine runs.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.readUpload(r)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %s", apperrors.ErrValidation, err))
		return
	}
	defer func() { _ = file.Close() }()

	tableName := strings.TrimSpace(r.FormValue("table_name"))
	if tableName == "" {
		tableName = defaultTableName
	}

	content, err := io.ReadAll(io.LimitReader(file, h.cfg.Upload.MaxFileSizeBytes+1))
	if err != nil {
		h.logger.Error("Failed to read upload", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "read_failed", "Could not read the uploaded file.")
		return
	}
	if int64(len(content)) > h.cfg.Upload.MaxFileSizeBytes {
		h.writeError(w, fmt.Errorf("%w: file exceeds the %d MiB limit",
			apperrors.ErrValidation, h.cfg.Upload.MaxFileSizeBytes/(1024*1024)))
		return
	}
	if len(content) == 0 {
		h.writeError(w, fmt.Errorf("%w: uploaded file is empty", apperrors.ErrValidation))
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), services.AnalyzeRequest{
		FileName:  header,
		TableName: tableName,
		Content:   content,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode analyze response", zap.Error(err))
	}
}

// readUpload extracts the multipart file part and validates its extension.
func (h *AnalyzeHandler) readUpload(r *http.Request) (io.ReadCloser, string, error) {
	// Cap in-memory multipart buffering; larger parts spill to disk.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", fmt.Errorf("expected a multipart upload: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing file field: %v", err)
	}

	if !h.cfg.Upload.ExtensionAllowed(header.Filename) {
		_ = file.Close()
		return nil, "", fmt.Errorf("unsupported file type %q, expected one of %s",
			header.Filename, strings.Join(h.cfg.Upload.AllowedExtensions, ", "))
	}

	return file, header.Filename, nil
}

// writeError maps pipeline sentinels onto HTTP status codes with a message
// the UI displays verbatim.
func (h *AnalyzeHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		_ = ErrorResponse(w, http.StatusBadRequest, "validation_failed", errMessage(err))
	case errors.Is(err, apperrors.ErrEncoding):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "encoding_error", errMessage(err))
	case errors.Is(err, apperrors.ErrDialect):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "dialect_error", errMessage(err))
	case errors.Is(err, apperrors.ErrEmptyFile):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "empty_file", errMessage(err))
	case errors.Is(err, apperrors.ErrTimeout):
		_ = ErrorResponse(w, http.StatusGatewayTimeout, "timeout", errMessage(err))
	default:
		h.logger.Error("Analysis failed unexpectedly", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "analysis_failed",
			"Analysis failed due to an unexpected error.")
	}
}

// errMessage strips the stage prefix wrapped around pipeline errors so the
// UI message stays human-readable.
func errMessage(err error) string {
	msg := err.Error()
	if _, rest, found := strings.Cut(msg, ": "); found && strings.HasPrefix(msg, "stage ") {
		return rest
	}
	return msg
}
