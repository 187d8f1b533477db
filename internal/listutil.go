package internal

import (
	"net/http"
	"strconv"
	"strings"
)

// listParams holds common query parameters for list endpoints
type listParams struct {
	limit  int
	offset int
	q      string
	sort   string
}

// listMeta describes the page returned by a list endpoint
type listMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type listResponse struct {
	Data any      `json:"data"`
	Meta listMeta `json:"meta"`
}

// parseListParams parses limit, offset, q, and sort from the request
// Defaults: limit=50 (max 200), offset=0
func parseListParams(r *http.Request) listParams {
	values := r.URL.Query()

	limit := 50
	if s := strings.TrimSpace(values.Get("limit")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			if v > 200 {
				v = 200
			}
			limit = v
		}
	}

	offset := 0
	if s := strings.TrimSpace(values.Get("offset")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	return listParams{
		limit:  limit,
		offset: offset,
		q:      strings.TrimSpace(values.Get("q")),
		sort:   strings.TrimSpace(values.Get("sort")),
	}
}

// sendListResponse writes the standard list envelope
func sendListResponse(w http.ResponseWriter, data any, total int, p listParams) {
	writeJSON(w, http.StatusOK, listResponse{
		Data: data,
		Meta: listMeta{Total: total, Limit: p.limit, Offset: p.offset},
	})
}

// splitCSV splits a comma-separated query value, dropping blanks
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
