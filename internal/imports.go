package internal

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vendor-management-api/internal/validate"
	"vendor-management-api/pkg/importer"
	"vendor-management-api/pkg/logger"

	"go.uber.org/zap"
)

const maxImportBytes = 20 << 20 // 20 MB

// importPurchaseOrders handles .xlsx uploads of purchase orders
func (s *Server) importPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		writeError(w, r, validate.Field(nonFieldErrors, "Content-Type must be multipart/form-data."))
		return
	}
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, r, validate.Field(nonFieldErrors, "Invalid multipart form: "+err.Error()))
		return
	}

	dryRun := r.FormValue("dry_run") == "true"
	maxErrors := 50
	if v := r.FormValue("max_errors"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxErrors = n
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, validate.Field("file", "This field is required."))
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		writeError(w, r, validate.Field("file", "Only .xlsx files are accepted."))
		return
	}

	sum, impErr := importer.ImportPurchaseOrders(r.Context(), s.Store, file, importer.ImportOptions{
		Mapping:   s.Mapping,
		DryRun:    dryRun,
		MaxErrors: maxErrors,
	})
	if impErr != nil {
		logger.FromContext(r.Context()).Warn("purchase order import failed",
			zap.String("file", header.Filename),
			zap.Int("inserted", sum.Inserted),
			zap.Int("errors", sum.Errors),
			zap.Error(impErr))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "IMPORT_FAILED",
			"details": impErr.Error(),
			"data":    sum,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": sum,
		"meta": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}
