package core

import (
	"context"

	"github.com/JonMunkholm/shipsched/internal/logging"
	"github.com/JonMunkholm/shipsched/internal/schedule"
)

// InventorySync receives arrivals. The inventory system itself lives outside
// this service; implementations forward the event to it.
type InventorySync interface {
	ScheduleArrived(ctx context.Context, s *schedule.Schedule) error
}

// LogInventorySync records arrivals in the structured log only.
type LogInventorySync struct{}

// ScheduleArrived implements InventorySync.
func (LogInventorySync) ScheduleArrived(ctx context.Context, s *schedule.Schedule) error {
	logging.FromContext(ctx).Info("inventory sync",
		"schedule_id", s.ID,
		"ck_code", s.CKCode,
		"product_id", s.Product.ID,
		"quantity", s.Quantity,
		"actual_qty", s.ActualQty,
	)
	return nil
}
