package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, fallbackStatus)
//  3. The status comes from the error's sentinel, else the fallback
//  4. Error is mapped via core.MapError to get user-friendly message
//  5. Technical error is logged with the request ID for correlation

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/shipsched/internal/core"
	"github.com/JonMunkholm/shipsched/internal/importer"
	"github.com/JonMunkholm/shipsched/internal/logging"
	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/store"
	"github.com/JonMunkholm/shipsched/internal/tabular"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errorStatuses maps sentinel errors to HTTP statuses. First match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{store.ErrNotFound, http.StatusNotFound},
	{core.ErrUploadNotFound, http.StatusNotFound},
	{core.ErrNoFile, http.StatusBadRequest},
	{tabular.ErrEmptyPayload, http.StatusBadRequest},
	{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{tabular.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
	{tabular.ErrEncoding, http.StatusUnprocessableEntity},
	{importer.ErrHeaderNotFound, http.StatusUnprocessableEntity},
	{core.ErrUnknownProduct, http.StatusUnprocessableEntity},
	{core.ErrProductName, http.StatusUnprocessableEntity},
	{schedule.ErrMissingProduct, http.StatusUnprocessableEntity},
	{schedule.ErrInvalidStatus, http.StatusUnprocessableEntity},
	{schedule.ErrNegativeQuantity, http.StatusUnprocessableEntity},
	{schedule.ErrTooManySlots, http.StatusUnprocessableEntity},
	{schedule.ErrInvalidTransition, http.StatusConflict},
	{store.ErrStatusConflict, http.StatusConflict},
	{core.ErrDuplicateProduct, http.StatusConflict},
	{core.ErrUploadRunning, http.StatusConflict},
	{core.ErrTooManyUploads, http.StatusServiceUnavailable},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// statusFor returns the HTTP status for err, or fallback when err carries
// no known sentinel.
func statusFor(err error, fallback int) int {
	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			return es.status
		}
	}
	return fallback
}

// respondError handles error responses with user-friendly messages.
// Client errors echo the technical error text; server errors return only
// the mapped message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	status := statusFor(err, fallback)
	userMsg := core.MapError(err)

	log := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)
	if status >= http.StatusInternalServerError {
		log.Error("request error")
	} else {
		log.Warn("request error")
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	detail := userMsg.Message
	if status < http.StatusInternalServerError {
		detail = err.Error()
	}
	writeJSON(w, status, ErrorResponse{
		Error:   detail,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
