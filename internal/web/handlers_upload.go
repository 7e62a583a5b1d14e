package web

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/shipsched/internal/core"
	"github.com/JonMunkholm/shipsched/internal/logging"
	"github.com/go-chi/chi/v5"
)

const (
	// multipartMemory is how much of a multipart form is held in memory
	// before parts spill to temporary files.
	multipartMemory = 10 << 20
	// multipartOverhead allows for boundaries and part headers on top of
	// the file size limit.
	multipartOverhead = 1 << 20

	sseKeepAlive = 15 * time.Second
)

// readUpload reads the "file" part of a multipart request.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, tooLarge.Limit)
		}
		return "", nil, fmt.Errorf("invalid form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, core.ErrNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

// handlePreview reconciles a file and returns what an import would store,
// without persisting anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	preview, err := s.service.Analyze(r.Context(), name, data)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// handleUpload starts a background import and returns its ID.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	uploadID, err := s.service.StartUpload(r.Context(), name, data)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"upload_id": uploadID})
}

// handleUploadProgress streams upload progress via Server-Sent Events.
// Supports resumption via lastEventId query parameter for reconnection.
// When the import ends a final "complete" event carries the last progress.
func (s *Server) handleUploadProgress(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")

	// The event ID is the progress percentage, allowing clients to skip
	// already-received events after reconnection.
	lastEventIDStr := r.URL.Query().Get("lastEventId")
	if lastEventIDStr == "" {
		lastEventIDStr = r.Header.Get("Last-Event-ID")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if n, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(uploadID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "ERR000", "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	var last core.UploadProgress
	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				if final, err := s.service.GetUploadProgress(uploadID); err == nil {
					last = final
				}
				data, _ := json.Marshal(last)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}
			last = progress

			// Skip events that were already sent before a reconnect.
			eventID := progress.Percent()
			if eventID <= lastEventID && !progress.Phase.Done() {
				continue
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", eventID, data)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleCancelUpload cancels an in-progress upload.
func (s *Server) handleCancelUpload(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")

	if err := s.service.CancelUpload(uploadID); err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// handleUploadResult returns the final result of an upload. While the
// import is still running it answers 202 with the current progress, unless
// wait=true asks it to block until the import ends.
func (s *Server) handleUploadResult(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")

	progress, err := s.service.GetUploadProgress(uploadID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	if !progress.Phase.Done() && r.URL.Query().Get("wait") != "true" {
		writeJSON(w, http.StatusAccepted, progress)
		return
	}

	result, err := s.service.GetUploadResult(r.Context(), uploadID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleExportDiagnostics exports an import's diagnostics and failed
// inserts as CSV.
func (s *Server) handleExportDiagnostics(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")

	progress, err := s.service.GetUploadProgress(uploadID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	if !progress.Phase.Done() {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUploadRunning, uploadID), http.StatusConflict)
		return
	}

	result, err := s.service.GetUploadResult(r.Context(), uploadID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("diagnostics_%s.csv", uploadID)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	csvWriter := csv.NewWriter(w)
	csvWriter.Write([]string{"row", "kind", "ck_code", "product", "message", "data"})

	for _, d := range result.Diagnostics {
		csvWriter.Write([]string{
			strconv.Itoa(d.Row),
			string(d.Kind),
			d.CKCode,
			d.Product,
			d.Message,
			"",
		})
	}
	for _, row := range result.FailedRows {
		csvWriter.Write([]string{
			strconv.Itoa(row.LineNumber),
			"insert_error",
			row.CKCode,
			"",
			row.Reason,
			strings.Join(row.Data, " | "),
		})
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		logging.FromContext(r.Context()).Error("write diagnostics csv", "upload_id", uploadID, "error", err)
	}
}
