package internal

import (
	"net/http"

	"vendor-management-api/internal/models"
	"vendor-management-api/internal/validate"
)

// LIST with search & pagination
func (s *Server) listVendors(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)

	vendors, total, err := s.Store.ListVendors(r.Context(), models.VendorFilter{
		Q:      params.q,
		Sort:   params.sort,
		Limit:  params.limit,
		Offset: params.offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendListResponse(w, vendors, total, params)
}

func (s *Server) getVendor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.Store.GetVendor(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) createVendor(w http.ResponseWriter, r *http.Request) {
	var in models.CreateVendorRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}

	v, err := s.Store.CreateVendor(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// updateVendor applies the supplied fields only; an empty body returns the
// vendor unchanged.
func (s *Server) updateVendor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.UpdateVendorRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}

	v, err := s.Store.UpdateVendor(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) deleteVendor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Store.DeleteVendor(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
