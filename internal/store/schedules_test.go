package store

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestInsertStatement(t *testing.T) {
	if !strings.HasPrefix(insertSchedule, "INSERT INTO import_schedules (ck_code, ") {
		t.Errorf("unexpected insert: %s", insertSchedule)
	}
	last := "$" + strconv.Itoa(len(scheduleColumns)) + ")"
	if !strings.Contains(insertSchedule, last) {
		t.Errorf("insert should have %d placeholders", len(scheduleColumns))
	}

	s := schedule.New(schedule.ProductRef{ID: 3})
	if got := len(insertArgs(s)); got != len(scheduleColumns) {
		t.Errorf("insertArgs = %d values, want %d", got, len(scheduleColumns))
	}
}

func TestBuildUpdate_LeavesFixedColumns(t *testing.T) {
	s := schedule.New(schedule.ProductRef{ID: 3})
	query, args := buildUpdate(42, s)

	for _, col := range []string{"status =", "source_row =", "upload_id ="} {
		if strings.Contains(query, col) {
			t.Errorf("update should not set %s: %s", col, query)
		}
	}
	if args[len(args)-1] != int64(42) {
		t.Errorf("last arg = %v, want schedule id", args[len(args)-1])
	}
	if !strings.Contains(query, "WHERE schedule_id = $"+strconv.Itoa(len(args))) {
		t.Errorf("id placeholder mismatch: %s", query)
	}
}

func TestJSONList(t *testing.T) {
	if got := string(jsonList[schedule.Clearance](nil)); got != "[]" {
		t.Errorf("nil list = %s, want []", got)
	}
	d := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	got := string(jsonList([]schedule.Declaration{{Date: &d, Number: "D-1"}}))
	if !strings.Contains(got, `"number":"D-1"`) || !strings.Contains(got, "2025-03-01") {
		t.Errorf("encoded = %s", got)
	}
}

func TestFilterWhere(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := Filter{
		Status:    schedule.StatusPending,
		ProductID: 9,
		UploadID:  "0b6b1c9e-8f1e-4f0e-9d7a-3f1f2c1d5e6a",
		ETAFrom:   &from,
		Search:    "A1",
	}
	clause, args := f.where().Build()

	want := ` WHERE s.status = $1 AND s.product_id = $2 AND s.upload_id = $3 AND s.eta >= $4 AND ("s"."ck_code" ILIKE $5`
	if !strings.HasPrefix(clause, want) {
		t.Errorf("clause = %s\nwant prefix %s", clause, want)
	}
	if len(args) != 5 {
		t.Errorf("args = %d, want 5", len(args))
	}
}

// ----------------------------------------------------------------------------
// Integration (requires TEST_DATABASE_URL)
// ----------------------------------------------------------------------------

func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	st := New(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return st
}

func TestStore_ScheduleLifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	product, err := st.CreateProduct(ctx, "Test Widget "+time.Now().Format("150405.000000"), "TW")
	if err != nil {
		t.Fatal(err)
	}

	got, ok, err := st.Lookup(ctx, strings.ToLower(strings.ReplaceAll(product.Name, " ", "")))
	if err != nil || !ok || got.ID != product.ID {
		t.Fatalf("Lookup = (%+v, %v, %v)", got, ok, err)
	}

	eta := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := schedule.New(product)
	s.CKCode = "IT-1"
	s.Quantity = 10
	s.UnitPrice = 5.25
	s.ETA = &eta
	s.Clearances = []schedule.Clearance{{Date: &eta, Quantity: 4, Rate: 1350}}

	id, err := st.Insert(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Delete(context.Background(), id) })

	read, err := st.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if read.Product.Name != product.Name || read.UnitPrice != 5.25 || !read.ETA.Equal(eta) {
		t.Errorf("read back %+v", read)
	}
	if len(read.Clearances) != 1 || read.Clearances[0].Rate != 1350 {
		t.Errorf("clearances = %+v", read.Clearances)
	}

	read.Note = "updated"
	if err := st.Update(ctx, id, read); err != nil {
		t.Fatal(err)
	}

	if err := st.SetStatus(ctx, id, schedule.StatusPending, schedule.StatusArrived); err != nil {
		t.Fatal(err)
	}
	err = st.SetStatus(ctx, id, schedule.StatusPending, schedule.StatusCanceled)
	if !errors.Is(err, ErrStatusConflict) {
		t.Errorf("stale SetStatus err = %v, want ErrStatusConflict", err)
	}

	res, err := st.Query(ctx, Filter{CKCode: "IT-1", Status: schedule.StatusArrived})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalCount < 1 || res.Schedules[0].Note != "updated" {
		t.Errorf("query = %+v", res)
	}

	if err := st.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
}
