package internal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"vendor-management-api/internal/store"
	"vendor-management-api/internal/validate"
	"vendor-management-api/pkg/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const nonFieldErrors = "non_field_errors"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError maps domain errors onto status codes. Not-found responses carry
// no body; validation errors are returned as a field to message map.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validate.Errors
	switch {
	case errors.Is(err, store.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, verrs)
	default:
		logger.FromContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return validate.Field(nonFieldErrors, "Request body is empty.")
		}
		return validate.Field(nonFieldErrors, "Invalid JSON: "+err.Error())
	}
	return nil
}

// pathID parses the {id} route parameter. Identifiers that are not positive
// integers cannot match a row, so they are reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, store.ErrNotFound
	}
	return id, nil
}
