package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/shipsched/internal/importer"
	"github.com/JonMunkholm/shipsched/internal/logging"
	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/store"
)

var (
	// ErrUnknownProduct is returned when a manual entry names no catalog product.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrDuplicateProduct is returned when a product name is already taken.
	ErrDuplicateProduct = errors.New("duplicate key")
	// ErrProductName is returned for a blank product name.
	ErrProductName = errors.New("required field: product name")
)

// ListProducts returns the active catalog.
func (s *Service) ListProducts(ctx context.Context) ([]schedule.ProductRef, error) {
	return s.catalog.ListActive(ctx)
}

// CreateProduct adds a catalog product.
func (s *Service) CreateProduct(ctx context.Context, name, code string) (schedule.ProductRef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return schedule.ProductRef{}, ErrProductName
	}
	if _, found, err := s.catalog.Lookup(ctx, importer.NormalizeName(name)); err != nil {
		return schedule.ProductRef{}, err
	} else if found {
		return schedule.ProductRef{}, fmt.Errorf("product %q: %w", name, ErrDuplicateProduct)
	}

	p, err := s.catalog.CreateProduct(ctx, name, strings.TrimSpace(code))
	if err != nil {
		return schedule.ProductRef{}, err
	}
	logging.FromContext(ctx).Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// resolveProduct fills in the catalog product for a manual entry, by id or,
// when the id is zero, by normalized name.
func (s *Service) resolveProduct(ctx context.Context, ref schedule.ProductRef) (schedule.ProductRef, error) {
	if ref.ID != 0 {
		return s.catalog.GetProduct(ctx, ref.ID)
	}
	name := importer.NormalizeName(ref.Name)
	if name == "" {
		return schedule.ProductRef{}, schedule.ErrMissingProduct
	}
	p, found, err := s.catalog.Lookup(ctx, name)
	if err != nil {
		return schedule.ProductRef{}, err
	}
	if !found {
		return schedule.ProductRef{}, fmt.Errorf("%w %q", ErrUnknownProduct, ref.Name)
	}
	return p, nil
}

// CreateSchedule stores a manually entered schedule. New schedules start
// PENDING; an explicit other status is rejected.
func (s *Service) CreateSchedule(ctx context.Context, in *schedule.Schedule) (*schedule.Schedule, error) {
	if in.Status == "" {
		in.Status = schedule.StatusPending
	}
	if in.Status != schedule.StatusPending {
		return nil, fmt.Errorf("%w: new schedules start as %s", schedule.ErrInvalidTransition, schedule.StatusPending)
	}

	product, err := s.resolveProduct(ctx, in.Product)
	if err != nil {
		return nil, err
	}
	in.Product = product
	in.SourceRow = 0
	in.UploadID = ""

	if _, err := s.schedules.Insert(ctx, in); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("schedule created", "schedule_id", in.ID, "ck_code", in.CKCode)
	return in, nil
}

// UpdateSchedule replaces the editable fields of schedule id. Status is
// changed only through ChangeStatus.
func (s *Service) UpdateSchedule(ctx context.Context, id int64, in *schedule.Schedule) (*schedule.Schedule, error) {
	current, err := s.schedules.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	product, err := s.resolveProduct(ctx, in.Product)
	if err != nil {
		return nil, err
	}
	in.Product = product
	in.Status = current.Status

	if err := s.schedules.Update(ctx, id, in); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("schedule updated", "schedule_id", id)
	return s.schedules.Get(ctx, id)
}

// DeleteSchedule removes schedule id.
func (s *Service) DeleteSchedule(ctx context.Context, id int64) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("schedule deleted", "schedule_id", id)
	return nil
}

// GetSchedule returns schedule id.
func (s *Service) GetSchedule(ctx context.Context, id int64) (*schedule.Schedule, error) {
	return s.schedules.Get(ctx, id)
}

// QuerySchedules lists schedules matching f, earliest ETA first.
func (s *Service) QuerySchedules(ctx context.Context, f store.Filter) (*store.QueryResult, error) {
	return s.schedules.Query(ctx, f)
}

// ChangeStatus moves schedule id to next. The move is validated against the
// status machine and applied only if nobody changed the status meanwhile.
// Entering ARRIVED notifies the inventory sync; a sync failure is logged and
// does not undo the status change.
func (s *Service) ChangeStatus(ctx context.Context, id int64, next schedule.Status) (*schedule.Schedule, error) {
	current, err := s.schedules.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := current.Status
	if _, err := prev.Transition(next); err != nil {
		return nil, err
	}
	if err := s.schedules.SetStatus(ctx, id, prev, next); err != nil {
		return nil, err
	}

	updated, err := s.schedules.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	log := logging.WithFields(ctx, "schedule_id", id, "from", prev, "to", next)
	log.Info("schedule status changed")

	if prev.TriggersInventorySync(next) {
		if err := s.inventory.ScheduleArrived(ctx, updated); err != nil {
			log.Error("inventory sync failed", "error", err)
		}
	}
	return updated, nil
}
