package web

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/shipsched/internal/config"
	"github.com/JonMunkholm/shipsched/internal/core"
	"github.com/JonMunkholm/shipsched/internal/importer"
	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/store"
)

// memStore is an in-memory core.ScheduleStore.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*schedule.Schedule
}

func (m *memStore) Insert(_ context.Context, s *schedule.Schedule) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

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
	cp.UploadID = cur.UploadID
	cp.SourceRow = cur.SourceRow
	cp.CreatedAt = cur.CreatedAt
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

	out := []*schedule.Schedule{}
	for _, s := range m.rows {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.CKCode != "" && s.CKCode != f.CKCode {
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
	return nil
}

// memCatalog is an in-memory core.Catalog.
type memCatalog struct {
	mu       sync.Mutex
	products []schedule.ProductRef
}

func (c *memCatalog) ListActive(context.Context) ([]schedule.ProductRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
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

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:     1 << 20,
			MaxConcurrent:   2,
			MaxWaitTime:     time.Second,
			Timeout:         5 * time.Second,
			ResultRetention: time.Minute,
		},
		Import:   config.ImportConfig{HeaderSearchRows: 20, LegacyEncoding: "euc-kr"},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

type testServer struct {
	srv   *Server
	store *memStore
}

// newTestServer builds a server over in-memory stores with the products
// Widget (1) and Gadget (2). mutate adjusts the config before wiring.
func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	st := &memStore{rows: map[int64]*schedule.Schedule{}}
	catalog := &memCatalog{products: []schedule.ProductRef{
		{ID: 1, Name: "Widget"},
		{ID: 2, Name: "Gadget"},
	}}

	svc, err := core.NewService(core.Deps{Schedules: st, Catalog: catalog}, cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	srv := NewServer(svc, cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testServer{srv: srv, store: st}
}

// do serves one request and returns the recorded response.
func (ts *testServer) do(t *testing.T, method, target, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doJSON(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, method, target, "application/json", body)
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}
