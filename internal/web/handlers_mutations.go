package web

import (
	"net/http"

	"github.com/JonMunkholm/shipsched/internal/schedule"
)

// handleCreateSchedule stores a manually entered schedule.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	in, err := scheduleFromBody(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	created, err := s.service.CreateSchedule(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateSchedule replaces a schedule's editable fields.
func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "REQ001", err.Error())
		return
	}

	in, err := scheduleFromBody(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	updated, err := s.service.UpdateSchedule(r.Context(), id, in)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteSchedule removes a schedule.
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "REQ001", err.Error())
		return
	}

	if err := s.service.DeleteSchedule(r.Context(), id); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleChangeStatus moves a schedule through the status machine.
func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "REQ001", err.Error())
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	next, err := schedule.ParseStatus(req.Status)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	updated, err := s.service.ChangeStatus(r.Context(), id, next)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
