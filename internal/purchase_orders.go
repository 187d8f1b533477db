package internal

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"vendor-management-api/internal/models"
	"vendor-management-api/internal/validate"
)

// parsePurchaseOrderFilter reads the vendor and status filters on top of the
// common list parameters. status accepts a comma-separated set.
func parsePurchaseOrderFilter(r *http.Request, params listParams) (models.PurchaseOrderFilter, error) {
	f := models.PurchaseOrderFilter{
		Q:      params.q,
		Sort:   params.sort,
		Limit:  params.limit,
		Offset: params.offset,
	}
	values := r.URL.Query()

	if s := strings.TrimSpace(values.Get("vendor")); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return f, validate.Field("vendor", "Select a valid vendor id.")
		}
		f.VendorID = id
	}

	for _, st := range splitCSV(values.Get("status")) {
		if !models.OrderStatus(st).Valid() {
			return f, validate.Field("status", fmt.Sprintf("%q is not a valid choice.", st))
		}
		f.Statuses = append(f.Statuses, st)
	}
	return f, nil
}

func (s *Server) listPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	f, err := parsePurchaseOrderFilter(r, params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, total, err := s.Store.ListPurchaseOrders(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendListResponse(w, orders, total, params)
}

func (s *Server) getPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	po, err := s.Store.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (s *Server) createPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var in models.CreatePurchaseOrderRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}

	po, err := s.Store.CreatePurchaseOrder(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, po)
}

func (s *Server) updatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.UpdatePurchaseOrderRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}

	po, err := s.Store.UpdatePurchaseOrder(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (s *Server) deletePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Store.DeletePurchaseOrder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// acknowledgePurchaseOrder stamps the acknowledgment date and returns the
// updated order. The request body is ignored.
func (s *Server) acknowledgePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	po, err := s.Store.AcknowledgePurchaseOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}
