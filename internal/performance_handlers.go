package internal

import "net/http"

// getVendorPerformance returns the metrics cached on the vendor row.
func (s *Server) getVendorPerformance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.Store.VendorPerformance(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// listVendorHistory pages through the vendor's snapshots, newest first.
func (s *Server) listVendorHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params := parseListParams(r)
	history, total, err := s.Store.VendorHistory(r.Context(), id, params.limit, params.offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendListResponse(w, history, total, params)
}
