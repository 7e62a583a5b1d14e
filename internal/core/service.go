package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/shipsched/internal/config"
	"github.com/JonMunkholm/shipsched/internal/importer"
	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/store"
	"github.com/JonMunkholm/shipsched/internal/tabular"
)

// DefaultUploadTimeout is used when the configuration does not set one.
const DefaultUploadTimeout = 10 * time.Minute

// DefaultResultRetention is how long finished uploads stay queryable.
const DefaultResultRetention = 30 * time.Minute

var (
	// ErrUploadNotFound is returned for unknown or expired upload IDs.
	ErrUploadNotFound = errors.New("upload not found")
	// ErrFileTooLarge is returned when a payload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNoFile is returned for an empty file name and payload.
	ErrNoFile = errors.New("no file provided")
	// ErrUploadRunning is returned when a finished upload was required.
	ErrUploadRunning = errors.New("upload still running")
)

// ScheduleStore persists schedules. Satisfied by *store.Store.
type ScheduleStore interface {
	Insert(ctx context.Context, s *schedule.Schedule) (int64, error)
	Update(ctx context.Context, id int64, s *schedule.Schedule) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*schedule.Schedule, error)
	Query(ctx context.Context, f store.Filter) (*store.QueryResult, error)
	SetStatus(ctx context.Context, id int64, from, to schedule.Status) error
}

// Catalog lists the products uploads are reconciled against. Satisfied by
// *store.Store.
type Catalog interface {
	ListActive(ctx context.Context) ([]schedule.ProductRef, error)
	GetProduct(ctx context.Context, id int64) (schedule.ProductRef, error)
	Lookup(ctx context.Context, normalizedName string) (schedule.ProductRef, bool, error)
	CreateProduct(ctx context.Context, name, code string) (schedule.ProductRef, error)
}

// Deps are the collaborators a Service needs.
type Deps struct {
	Schedules ScheduleStore
	Catalog   Catalog
	// Inventory is notified when a schedule arrives. Defaults to LogInventorySync.
	Inventory InventorySync
}

// Service provides the business logic for schedule imports and maintenance.
// It has no transport dependencies and is shared by the HTTP server and CLI.
type Service struct {
	schedules ScheduleStore
	catalog   Catalog
	inventory InventorySync

	importer    *importer.Importer
	readOpts    tabular.Options
	maxFileSize int64

	uploadLimiter   *UploadLimiter
	uploadTimeout   time.Duration
	resultRetention time.Duration

	mu      sync.RWMutex
	uploads map[string]*activeUpload
}

type activeUpload struct {
	ID       string
	FileName string
	Cancel   context.CancelFunc
	Result   *UploadResult
	Done     chan struct{}

	mu        sync.Mutex
	progress  UploadProgress
	listeners []chan UploadProgress
}

// NewService creates a Service. A field table path in cfg.Import replaces the
// built-in synonym table; an unreadable or invalid table is an error.
func NewService(deps Deps, cfg *config.Config) (*Service, error) {
	if deps.Schedules == nil || deps.Catalog == nil {
		return nil, errors.New("core: schedule store and catalog are required")
	}
	inv := deps.Inventory
	if inv == nil {
		inv = LogInventorySync{}
	}

	opts := importer.Options{HeaderSearchRows: cfg.Import.HeaderSearchRows}
	if path := cfg.Import.FieldTable; path != "" {
		ft, err := importer.LoadFieldTable(path)
		if err != nil {
			return nil, err
		}
		opts.Fields = ft
	}

	timeout := cfg.Upload.Timeout
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	retention := cfg.Upload.ResultRetention
	if retention <= 0 {
		retention = DefaultResultRetention
	}

	return &Service{
		schedules: deps.Schedules,
		catalog:   deps.Catalog,
		inventory: inv,
		importer:  importer.New(opts),
		readOpts: tabular.Options{
			LegacyEncoding: cfg.Import.LegacyEncoding,
			Sheet:          cfg.Import.Sheet,
		},
		maxFileSize:     cfg.Upload.MaxFileSize,
		uploadLimiter:   NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		uploadTimeout:   timeout,
		resultRetention: retention,
		uploads:         make(map[string]*activeUpload),
	}, nil
}

// UploadLimiterStatus returns the upload slot usage.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.uploadLimiter.Status()
}

// WaitForUploads blocks until every running upload has finished or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.uploadLimiter.WaitForDrain(ctx)
}

// checkPayload rejects missing and oversized files.
func (s *Service) checkPayload(fileName string, data []byte) error {
	if fileName == "" && len(data) == 0 {
		return ErrNoFile
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, len(data), s.maxFileSize)
	}
	return nil
}

func (s *Service) lookupUpload(uploadID string) (*activeUpload, error) {
	s.mu.RLock()
	upload, ok := s.uploads[uploadID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	}
	return upload, nil
}

// update applies fn to the progress and sends the new state to all listeners.
func (upload *activeUpload) update(fn func(p *UploadProgress)) {
	upload.mu.Lock()
	defer upload.mu.Unlock()

	fn(&upload.progress)
	upload.notifyProgressLocked()
}

// snapshot returns a copy of the current progress.
func (upload *activeUpload) snapshot() UploadProgress {
	upload.mu.Lock()
	defer upload.mu.Unlock()
	return upload.progress
}

// notifyProgressLocked sends progress updates to all listeners. Callers hold mu.
func (upload *activeUpload) notifyProgressLocked() {
	for _, ch := range upload.listeners {
		select {
		case ch <- upload.progress:
		default:
			// Listener is slow, skip this update
		}
	}
}

// closeListeners closes all listener channels.
func (upload *activeUpload) closeListeners() {
	upload.mu.Lock()
	defer upload.mu.Unlock()

	for _, ch := range upload.listeners {
		close(ch)
	}
	upload.listeners = nil
}

// cleanup removes the upload from tracking after a delay.
func (s *Service) cleanup(uploadID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.uploads, uploadID)
		s.mu.Unlock()
	})
}
