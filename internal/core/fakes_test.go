package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/shipsched/internal/config"
	"github.com/JonMunkholm/shipsched/internal/importer"
	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/store"
)

// memStore is an in-memory ScheduleStore.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*schedule.Schedule
	// failCK makes Insert fail for records with that CK code.
	failCK map[string]error
	// gate, when set, makes Insert wait for a value or ctx cancellation.
	gate chan struct{}
}

func newMemStore() *memStore {
	return &memStore{rows: map[int64]*schedule.Schedule{}, failCK: map[string]error{}}
}

func (m *memStore) Insert(ctx context.Context, s *schedule.Schedule) (int64, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failCK[s.CKCode]; ok {
		return 0, err
	}
	m.nextID++
	s.ID = m.nextID
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.rows[s.ID] = &cp
	return s.ID, nil
}

func (m *memStore) Update(_ context.Context, id int64, s *schedule.Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("schedule %d: %w", id, store.ErrNotFound)
	}
	cp := *s
	cp.ID = id
	cp.Status = cur.Status
	cp.SourceRow = cur.SourceRow
	cp.UploadID = cur.UploadID
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = time.Now()
	m.rows[id] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("schedule %d: %w", id, store.ErrNotFound)
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*schedule.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("schedule %d: %w", id, store.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) Query(_ context.Context, f store.Filter) (*store.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*schedule.Schedule, 0, len(m.rows))
	for _, s := range m.rows {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.UploadID != "" && s.UploadID != f.UploadID {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return &store.QueryResult{Schedules: out, TotalCount: int64(len(out)), Limit: f.Limit, Offset: f.Offset}, nil
}

func (m *memStore) SetStatus(_ context.Context, id int64, from, to schedule.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("schedule %d: %w", id, store.ErrNotFound)
	}
	if s.Status != from {
		return fmt.Errorf("schedule %d: %w", id, store.ErrStatusConflict)
	}
	s.Status = to
	s.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memCatalog is an in-memory Catalog.
type memCatalog struct {
	mu       sync.Mutex
	products []schedule.ProductRef
	listErr  error
}

func newMemCatalog(names ...string) *memCatalog {
	c := &memCatalog{}
	for i, n := range names {
		c.products = append(c.products, schedule.ProductRef{ID: int64(i + 1), Name: n})
	}
	return c
}

func (c *memCatalog) ListActive(context.Context) ([]schedule.ProductRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]schedule.ProductRef(nil), c.products...), nil
}

func (c *memCatalog) GetProduct(_ context.Context, id int64) (schedule.ProductRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return schedule.ProductRef{}, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
}

func (c *memCatalog) Lookup(_ context.Context, normalizedName string) (schedule.ProductRef, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if importer.NormalizeName(p.Name) == normalizedName {
			return p, true, nil
		}
	}
	return schedule.ProductRef{}, false, nil
}

func (c *memCatalog) CreateProduct(_ context.Context, name, code string) (schedule.ProductRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := schedule.ProductRef{ID: int64(len(c.products) + 1), Name: name, Code: code}
	c.products = append(c.products, p)
	return p, nil
}

// recordingSync remembers arrivals.
type recordingSync struct {
	mu      sync.Mutex
	arrived []int64
	err     error
}

func (r *recordingSync) ScheduleArrived(_ context.Context, s *schedule.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arrived = append(r.arrived, s.ID)
	return r.err
}

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:     1 << 20,
			MaxConcurrent:   2,
			MaxWaitTime:     time.Second,
			Timeout:         5 * time.Second,
			ResultRetention: time.Minute,
		},
		Import: config.ImportConfig{HeaderSearchRows: 20, LegacyEncoding: "euc-kr"},
	}
}

type testEnv struct {
	svc     *Service
	store   *memStore
	catalog *memCatalog
	sync    *recordingSync
}

func newTestEnv(t testing.TB, products ...string) *testEnv {
	t.Helper()
	if len(products) == 0 {
		products = []string{"Widget", "Gadget"}
	}
	env := &testEnv{
		store:   newMemStore(),
		catalog: newMemCatalog(products...),
		sync:    &recordingSync{},
	}
	svc, err := NewService(Deps{Schedules: env.store, Catalog: env.catalog, Inventory: env.sync}, testConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	env.svc = svc
	return env
}
