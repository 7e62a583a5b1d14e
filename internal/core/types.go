package core

import (
	"time"

	"github.com/JonMunkholm/shipsched/internal/importer"
	"github.com/JonMunkholm/shipsched/internal/schedule"
)

// UploadPhase indicates the current stage of upload processing.
type UploadPhase string

const (
	PhaseStarting   UploadPhase = "starting"
	PhaseReading    UploadPhase = "reading"
	PhaseValidating UploadPhase = "validating"
	PhaseInserting  UploadPhase = "inserting"
	PhaseComplete   UploadPhase = "complete"
	PhaseFailed     UploadPhase = "failed"
	PhaseCancelled  UploadPhase = "cancelled"
)

// Done reports whether the phase is terminal.
func (p UploadPhase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// UploadProgress represents the current state of an upload operation.
type UploadProgress struct {
	UploadID    string      `json:"upload_id"`
	Phase       UploadPhase `json:"phase"`
	FileName    string      `json:"file_name"`
	TotalRows   int         `json:"total_rows"`
	CurrentRow  int         `json:"current_row"`
	Inserted    int         `json:"inserted"`
	Failed      int         `json:"failed"`
	Diagnostics int         `json:"diagnostics"`
	Error       string      `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// Percent returns the progress as a percentage (0-100).
func (p UploadProgress) Percent() int {
	if p.Phase == PhaseComplete {
		return 100
	}
	if p.TotalRows > 0 {
		return (p.CurrentRow * 100) / p.TotalRows
	}
	return 0
}

// FailedRow contains information about a reconciled record that failed to insert.
type FailedRow struct {
	FileName   string   `json:"file_name"`
	LineNumber int      `json:"line_number"`
	CKCode     string   `json:"ck_code,omitempty"`
	Reason     string   `json:"reason"`
	Data       []string `json:"data,omitempty"`
}

// UploadResult contains the final result of an upload operation.
type UploadResult struct {
	UploadID string `json:"upload_id"`
	FileName string `json:"file_name"`
	Encoding string `json:"encoding,omitempty"`
	// HeaderRow is the 1-based row of the located header, 0 when the
	// file's first row was used.
	HeaderRow   int     `json:"header_row"`
	DataRows    int     `json:"data_rows"`
	Records     int     `json:"records"`
	Inserted    int     `json:"inserted"`
	InsertedIDs []int64 `json:"inserted_ids"`
	// Skipped counts blank rows.
	Skipped     int                   `json:"skipped"`
	Diagnostics []importer.Diagnostic `json:"diagnostics"`
	FailedRows  []FailedRow           `json:"failed_rows"`
	Duration    time.Duration         `json:"duration_ns"`
	Error       string                `json:"error,omitempty"` // Non-empty if upload failed
}

// Preview is the outcome of reconciling a file without persisting it.
type Preview struct {
	FileName  string `json:"file_name"`
	Encoding  string `json:"encoding,omitempty"`
	HeaderRow int    `json:"header_row"`
	DataRows  int    `json:"data_rows"`
	Skipped   int    `json:"skipped"`
	// Columns maps each bound field to the header label it was read from.
	Columns map[importer.Field]string `json:"columns"`
	// Unbound lists header labels no field read from.
	Unbound     []string              `json:"unbound_columns,omitempty"`
	Records     []*schedule.Schedule  `json:"records"`
	Diagnostics []importer.Diagnostic `json:"diagnostics"`
	Error       string                `json:"error,omitempty"`
}
