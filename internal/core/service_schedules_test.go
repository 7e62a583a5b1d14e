package core

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/store"
)

func createWidget(t *testing.T, env *testEnv, ck string) *schedule.Schedule {
	t.Helper()
	s, err := env.svc.CreateSchedule(context.Background(), &schedule.Schedule{
		CKCode:   ck,
		Product:  schedule.ProductRef{ID: 1},
		Quantity: 10,
	})
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	return s
}

func TestCreateSchedule(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		in          schedule.Schedule
		wantProduct int64
		wantErr     error
	}{
		{
			name:        "by product id",
			in:          schedule.Schedule{CKCode: "CK-1", Product: schedule.ProductRef{ID: 2}},
			wantProduct: 2,
		},
		{
			name:        "by product name ignoring spacing and case",
			in:          schedule.Schedule{CKCode: "CK-2", Product: schedule.ProductRef{Name: " wid get "}},
			wantProduct: 1,
		},
		{
			name:    "unknown product name",
			in:      schedule.Schedule{Product: schedule.ProductRef{Name: "Gizmo"}},
			wantErr: ErrUnknownProduct,
		},
		{
			name:    "unknown product id",
			in:      schedule.Schedule{Product: schedule.ProductRef{ID: 99}},
			wantErr: store.ErrNotFound,
		},
		{
			name:    "no product",
			in:      schedule.Schedule{CKCode: "CK-3"},
			wantErr: schedule.ErrMissingProduct,
		},
		{
			name:    "cannot start arrived",
			in:      schedule.Schedule{Product: schedule.ProductRef{ID: 1}, Status: schedule.StatusArrived},
			wantErr: schedule.ErrInvalidTransition,
		},
		{
			name:    "negative quantity",
			in:      schedule.Schedule{Product: schedule.ProductRef{ID: 1}, Quantity: -1},
			wantErr: schedule.ErrNegativeQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			in := tt.in

			got, err := env.svc.CreateSchedule(ctx, &in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSchedule: %v", err)
			}
			if got.ID == 0 || got.Product.ID != tt.wantProduct || got.Status != schedule.StatusPending {
				t.Errorf("created = %+v", got)
			}
			if got.Product.Name == "" {
				t.Error("product name should be filled from the catalog")
			}
		})
	}
}

func TestUpdateSchedule_KeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := createWidget(t, env, "CK-1")

	if _, err := env.svc.ChangeStatus(ctx, s.ID, schedule.StatusCanceled); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}

	edit := &schedule.Schedule{
		CKCode:   "CK-1",
		Product:  schedule.ProductRef{ID: 2},
		Quantity: 12,
		Status:   schedule.StatusArrived,
	}
	got, err := env.svc.UpdateSchedule(ctx, s.ID, edit)
	if err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}
	if got.Quantity != 12 || got.Product.ID != 2 {
		t.Errorf("updated = %+v", got)
	}
	if got.Status != schedule.StatusCanceled {
		t.Errorf("status = %s, update must not change it", got.Status)
	}
	if len(env.sync.arrived) != 0 {
		t.Error("update must not trigger inventory sync")
	}

	if _, err := env.svc.UpdateSchedule(ctx, 404, edit); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}
}

func TestDeleteSchedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := createWidget(t, env, "CK-1")

	if err := env.svc.DeleteSchedule(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSchedule: %v", err)
	}
	if _, err := env.svc.GetSchedule(ctx, s.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
	if err := env.svc.DeleteSchedule(ctx, s.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestChangeStatus(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		path       []schedule.Status
		wantErr    error
		wantSynced int
	}{
		{name: "arrive", path: []schedule.Status{schedule.StatusArrived}, wantSynced: 1},
		{name: "cancel", path: []schedule.Status{schedule.StatusCanceled}},
		{name: "arrive revert arrive", path: []schedule.Status{schedule.StatusArrived, schedule.StatusPending, schedule.StatusArrived}, wantSynced: 2},
		{name: "cancel then arrive", path: []schedule.Status{schedule.StatusCanceled, schedule.StatusArrived}, wantErr: schedule.ErrInvalidTransition},
		{name: "pending to pending", path: []schedule.Status{schedule.StatusPending}, wantErr: schedule.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			s := createWidget(t, env, "CK-1")

			var err error
			var got *schedule.Schedule
			for _, next := range tt.path {
				got, err = env.svc.ChangeStatus(ctx, s.ID, next)
				if err != nil {
					break
				}
				if got.Status != next {
					t.Fatalf("status = %s, want %s", got.Status, next)
				}
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("ChangeStatus: %v", err)
			}
			if len(env.sync.arrived) != tt.wantSynced {
				t.Errorf("inventory sync calls = %d, want %d", len(env.sync.arrived), tt.wantSynced)
			}
		})
	}
}

func TestChangeStatus_SyncFailureKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	env.sync.err = errors.New("inventory service unavailable")
	s := createWidget(t, env, "CK-1")

	got, err := env.svc.ChangeStatus(context.Background(), s.ID, schedule.StatusArrived)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if got.Status != schedule.StatusArrived {
		t.Errorf("status = %s, want ARRIVED", got.Status)
	}
}

func TestChangeStatus_Missing(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.ChangeStatus(context.Background(), 7, schedule.StatusArrived); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestQuerySchedules_FiltersByUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createWidget(t, env, "CK-manual")

	id, err := env.svc.StartUpload(ctx, "schedule.csv", []byte(scheduleCSV))
	if err != nil {
		t.Fatalf("StartUpload: %v", err)
	}
	waitResult(t, env.svc, id)

	res, err := env.svc.QuerySchedules(ctx, store.Filter{UploadID: id})
	if err != nil {
		t.Fatalf("QuerySchedules: %v", err)
	}
	if res.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", res.TotalCount)
	}
	for _, s := range res.Schedules {
		if s.UploadID != id {
			t.Errorf("schedule %d belongs to upload %q", s.ID, s.UploadID)
		}
	}
}

func TestProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.svc.CreateProduct(ctx, "  Sprocket ", "SP-1")
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.ID == 0 || p.Name != "Sprocket" || p.Code != "SP-1" {
		t.Errorf("created = %+v", p)
	}

	if _, err := env.svc.CreateProduct(ctx, "sprock et", ""); err == nil || MapError(err).Code != "DB001" {
		t.Errorf("duplicate name err = %v", err)
	}
	if _, err := env.svc.CreateProduct(ctx, " ", ""); err == nil || MapError(err).Code != "VAL003" {
		t.Errorf("blank name err = %v", err)
	}

	list, err := env.svc.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("ListProducts = %v, want 3 products", list)
	}
}
