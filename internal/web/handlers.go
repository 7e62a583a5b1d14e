package web

import (
	"net/http"

	"github.com/JonMunkholm/shipsched/internal/core"
)

// healthResponse reports liveness and import capacity.
type healthResponse struct {
	Status  string                   `json:"status"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
}

// handleHealth reports that the server is up. It does not touch the
// database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Uploads: s.service.UploadLimiterStatus(),
	})
}
