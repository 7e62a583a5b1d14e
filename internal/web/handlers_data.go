package web

import (
	"net/http"
)

// handleQuerySchedules lists schedules matching the query filters, earliest
// ETA first.
func (s *Server) handleQuerySchedules(w http.ResponseWriter, r *http.Request) {
	filter, err := parseScheduleFilter(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	result, err := s.service.QuerySchedules(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetSchedule returns one schedule.
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "REQ001", err.Error())
		return
	}

	sched, err := s.service.GetSchedule(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

// handleListProducts returns the active catalog.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.ListProducts(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// handleCreateProduct adds a catalog product.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	product, err := s.service.CreateProduct(r.Context(), req.Name, req.Code)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}
