package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/shipsched/internal/importer"
	"github.com/JonMunkholm/shipsched/internal/logging"
	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/tabular"
	"github.com/google/uuid"
)

// progressEvery is how many inserts pass between progress broadcasts.
const progressEvery = 25

// Analyze reconciles a file against the current catalog without persisting
// anything. A missing header is reported in Preview.Error; only read and
// catalog failures are returned as errors.
func (s *Service) Analyze(ctx context.Context, fileName string, data []byte) (*Preview, error) {
	if err := s.checkPayload(fileName, data); err != nil {
		return nil, err
	}

	table, err := tabular.Read(fileName, data, s.readOpts)
	if err != nil {
		return nil, err
	}

	res, err := s.reconcile(ctx, table)
	if err != nil {
		return nil, err
	}

	preview := NewPreview(fileName, table.Encoding, res)

	logging.FromContext(ctx).Debug("analyzed upload",
		"file", fileName,
		"header_row", res.HeaderRow,
		"records", len(res.Records),
		"diagnostics", len(res.Diagnostics),
	)
	return preview, nil
}

// NewPreview summarizes an importer result. Empty lists are non-nil so they
// encode as [].
func NewPreview(fileName, encoding string, res *importer.Result) *Preview {
	preview := &Preview{
		FileName:    fileName,
		Encoding:    encoding,
		HeaderRow:   res.HeaderRow,
		DataRows:    res.DataRows,
		Skipped:     res.Skipped,
		Columns:     map[importer.Field]string{},
		Records:     res.Records,
		Diagnostics: res.Diagnostics,
	}
	if res.Columns != nil {
		preview.Columns = res.Columns.Bound()
		preview.Unbound = res.Columns.Unbound()
	}
	if preview.Records == nil {
		preview.Records = []*schedule.Schedule{}
	}
	if preview.Diagnostics == nil {
		preview.Diagnostics = []importer.Diagnostic{}
	}
	if err := res.Err(); err != nil {
		preview.Error = err.Error()
	}
	return preview
}

// reconcile runs the importer over t with a fresh catalog snapshot.
func (s *Service) reconcile(ctx context.Context, t *tabular.RawTable) (*importer.Result, error) {
	products, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return s.importer.Import(t, importer.NewNameIndex(products)), nil
}

// StartUpload begins an asynchronous import of fileName. It returns the
// upload ID immediately; use SubscribeProgress for updates and
// GetUploadResult for the outcome.
//
// Returns ErrTooManyUploads if the concurrent upload limit is reached and
// no slot becomes available within the wait period.
func (s *Service) StartUpload(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := s.checkPayload(fileName, data); err != nil {
		return "", err
	}

	// Acquire upload slot (blocks until available or timeout)
	if err := s.uploadLimiter.Acquire(ctx); err != nil {
		return "", err
	}

	uploadID := uuid.New().String()

	// Detached from the request: the upload outlives it.
	uploadCtx, cancel := context.WithTimeout(context.Background(), s.uploadTimeout)

	upload := &activeUpload{
		ID:       uploadID,
		FileName: fileName,
		Cancel:   cancel,
		Done:     make(chan struct{}),
		progress: UploadProgress{
			UploadID: uploadID,
			Phase:    PhaseStarting,
			FileName: fileName,
		},
	}

	s.mu.Lock()
	s.uploads[uploadID] = upload
	s.mu.Unlock()

	log := logging.WithFields(ctx, "upload_id", uploadID, "file", fileName)
	log.Info("upload started", "bytes", len(data))

	// Process in background with panic recovery to ensure limiter release
	go func() {
		defer s.uploadLimiter.Release()
		defer cancel()

		var result *UploadResult
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in upload", "panic", r)
				msg := fmt.Sprintf("internal error: %v", r)
				upload.update(func(p *UploadProgress) {
					p.Phase = PhaseFailed
					p.Error = msg
				})
				result = &UploadResult{UploadID: uploadID, FileName: fileName, Error: msg}
			}
			s.finish(upload, result)
		}()

		result = s.processUpload(uploadCtx, upload, data, log)
	}()

	return uploadID, nil
}

// finish publishes the result, releases subscribers and schedules cleanup.
func (s *Service) finish(upload *activeUpload, result *UploadResult) {
	upload.Result = result
	upload.closeListeners()
	close(upload.Done)
	s.cleanup(upload.ID, s.resultRetention)
}

// processUpload reads, reconciles and persists one file. Each record is
// inserted on its own; a failed insert is recorded and the rest continue.
func (s *Service) processUpload(ctx context.Context, upload *activeUpload, data []byte, log *slog.Logger) *UploadResult {
	start := time.Now()
	result := &UploadResult{
		UploadID:    upload.ID,
		FileName:    upload.FileName,
		InsertedIDs: []int64{},
		Diagnostics: []importer.Diagnostic{},
		FailedRows:  []FailedRow{},
	}

	fail := func(err error) *UploadResult {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		upload.update(func(p *UploadProgress) {
			p.Phase = PhaseFailed
			p.Error = result.Error
		})
		log.Warn("upload failed", "error", err)
		return result
	}

	upload.update(func(p *UploadProgress) { p.Phase = PhaseReading })

	table, err := tabular.Read(upload.FileName, data, s.readOpts)
	if err != nil {
		return fail(err)
	}
	result.Encoding = table.Encoding

	upload.update(func(p *UploadProgress) { p.Phase = PhaseValidating })

	res, err := s.reconcile(ctx, table)
	if err != nil {
		return fail(err)
	}
	result.HeaderRow = res.HeaderRow
	result.DataRows = res.DataRows
	result.Records = len(res.Records)
	result.Skipped = res.Skipped
	result.Diagnostics = append(result.Diagnostics, res.Diagnostics...)
	if err := res.Err(); err != nil {
		return fail(err)
	}

	upload.update(func(p *UploadProgress) {
		p.Phase = PhaseInserting
		p.TotalRows = len(res.Records)
		p.Diagnostics = len(res.Diagnostics)
	})

	for i, rec := range res.Records {
		if ctx.Err() != nil {
			return s.interrupted(ctx, upload, result, start, log)
		}

		rec.UploadID = upload.ID
		id, err := s.schedules.Insert(ctx, rec)
		if err != nil {
			if ctx.Err() != nil {
				return s.interrupted(ctx, upload, result, start, log)
			}
			result.FailedRows = append(result.FailedRows, FailedRow{
				FileName:   upload.FileName,
				LineNumber: rec.SourceRow,
				CKCode:     rec.CKCode,
				Reason:     err.Error(),
				Data:       rowText(table, rec.SourceRow),
			})
			log.Debug("insert failed", "row", rec.SourceRow, "error", err)
		} else {
			result.Inserted++
			result.InsertedIDs = append(result.InsertedIDs, id)
		}

		if (i+1)%progressEvery == 0 || i == len(res.Records)-1 {
			upload.update(func(p *UploadProgress) {
				p.CurrentRow = i + 1
				p.Inserted = result.Inserted
				p.Failed = len(result.FailedRows)
			})
		}
	}

	result.Duration = time.Since(start)
	upload.update(func(p *UploadProgress) {
		p.Phase = PhaseComplete
		p.CurrentRow = len(res.Records)
		p.Inserted = result.Inserted
		p.Failed = len(result.FailedRows)
	})

	log.Info("upload complete",
		"header_row", result.HeaderRow,
		"inserted", result.Inserted,
		"failed", len(result.FailedRows),
		"diagnostics", len(result.Diagnostics),
		"duration", result.Duration,
	)
	return result
}

// interrupted ends an upload whose context was cancelled or timed out.
// Records inserted before the interruption stay inserted.
func (s *Service) interrupted(ctx context.Context, upload *activeUpload, result *UploadResult, start time.Time, log *slog.Logger) *UploadResult {
	phase := PhaseCancelled
	result.Error = "upload cancelled"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		phase = PhaseFailed
		result.Error = fmt.Sprintf("upload stopped after %s: %v", s.uploadTimeout, ctx.Err())
	}
	result.Duration = time.Since(start)

	upload.update(func(p *UploadProgress) {
		p.Phase = phase
		p.Error = result.Error
		p.Inserted = result.Inserted
		p.Failed = len(result.FailedRows)
	})
	log.Info("upload stopped", "phase", phase, "inserted", result.Inserted)
	return result
}

// rowText renders the table row a record came from.
func rowText(t *tabular.RawTable, sourceRow int) []string {
	if sourceRow < 1 || sourceRow > len(t.Rows) {
		return nil
	}
	row := t.Rows[sourceRow-1]
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = tabular.Text(v)
	}
	return out
}

// SubscribeProgress returns a channel that receives progress updates.
// The channel is closed when the upload completes; subscribing to a
// finished upload yields its final state on an already closed channel.
func (s *Service) SubscribeProgress(uploadID string) (<-chan UploadProgress, error) {
	upload, err := s.lookupUpload(uploadID)
	if err != nil {
		return nil, err
	}

	ch := make(chan UploadProgress, 10)

	upload.mu.Lock()
	defer upload.mu.Unlock()

	// Send current progress immediately
	ch <- upload.progress
	if upload.progress.Phase.Done() {
		close(ch)
		return ch, nil
	}
	upload.listeners = append(upload.listeners, ch)

	return ch, nil
}

// CancelUpload cancels an in-progress upload. Cancelling a finished upload
// is a no-op.
func (s *Service) CancelUpload(uploadID string) error {
	upload, err := s.lookupUpload(uploadID)
	if err != nil {
		return err
	}

	upload.Cancel()
	return nil
}

// GetUploadResult returns the result of an upload, blocking until it
// completes or ctx ends.
func (s *Service) GetUploadResult(ctx context.Context, uploadID string) (*UploadResult, error) {
	upload, err := s.lookupUpload(uploadID)
	if err != nil {
		return nil, err
	}

	select {
	case <-upload.Done:
		return upload.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetUploadProgress returns the current progress without blocking.
func (s *Service) GetUploadProgress(uploadID string) (UploadProgress, error) {
	upload, err := s.lookupUpload(uploadID)
	if err != nil {
		return UploadProgress{}, err
	}

	return upload.snapshot(), nil
}
