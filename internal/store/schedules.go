package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/jackc/pgx/v5/pgtype"
)

// Query limits.
const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// column maps one writable import_schedules column to its schedule value.
type column struct {
	name string
	get  func(s *schedule.Schedule) any
	// fixed columns are set on insert only; Update leaves them alone.
	fixed bool
}

var scheduleColumns = []column{
	{name: "ck_code", get: func(s *schedule.Schedule) any { return s.CKCode }},
	{name: "global_code", get: func(s *schedule.Schedule) any { return s.GlobalCode }},
	{name: "secondary_code", get: func(s *schedule.Schedule) any { return s.SecondaryCode }},
	{name: "product_id", get: func(s *schedule.Schedule) any { return s.Product.ID }},
	{name: "supplier", get: func(s *schedule.Schedule) any { return s.Supplier }},
	{name: "origin", get: func(s *schedule.Schedule) any { return s.Origin }},
	{name: "size", get: func(s *schedule.Schedule) any { return s.Size }},
	{name: "packing", get: func(s *schedule.Schedule) any { return s.Packing }},
	{name: "secondary_unit", get: func(s *schedule.Schedule) any { return s.SecondaryUnit }},
	{name: "quantity", get: func(s *schedule.Schedule) any { return s.Quantity }},
	{name: "open_qty", get: func(s *schedule.Schedule) any { return s.OpenQty }},
	{name: "doc_qty", get: func(s *schedule.Schedule) any { return s.DocQty }},
	{name: "box_qty", get: func(s *schedule.Schedule) any { return s.BoxQty }},
	{name: "actual_qty", get: func(s *schedule.Schedule) any { return s.ActualQty }},
	{name: "unit_price", get: func(s *schedule.Schedule) any { return s.UnitPrice }},
	{name: "open_amount", get: func(s *schedule.Schedule) any { return s.OpenAmount }},
	{name: "doc_amount", get: func(s *schedule.Schedule) any { return s.DocAmount }},
	{name: "payment_amount", get: func(s *schedule.Schedule) any { return s.PaymentAmount }},
	{name: "exchange_rate", get: func(s *schedule.Schedule) any { return s.ExchangeRate }},
	{name: "payment_rate", get: func(s *schedule.Schedule) any { return s.PaymentRate }},
	{name: "etd", get: func(s *schedule.Schedule) any { return toPgDate(s.ETD) }},
	{name: "eta", get: func(s *schedule.Schedule) any { return toPgDate(s.ETA) }},
	{name: "arrival_date", get: func(s *schedule.Schedule) any { return toPgDate(s.ArrivalDate) }},
	{name: "broker_handoff_date", get: func(s *schedule.Schedule) any { return toPgDate(s.BrokerHandoffDate) }},
	{name: "lc_open_date", get: func(s *schedule.Schedule) any { return toPgDate(s.LCOpenDate) }},
	{name: "maturity_date", get: func(s *schedule.Schedule) any { return toPgDate(s.MaturityDate) }},
	{name: "extended_maturity_date", get: func(s *schedule.Schedule) any { return toPgDate(s.ExtendedMaturityDate) }},
	{name: "doc_acceptance_date", get: func(s *schedule.Schedule) any { return toPgDate(s.DocAcceptanceDate) }},
	{name: "payment_date", get: func(s *schedule.Schedule) any { return toPgDate(s.PaymentDate) }},
	{name: "lc_number", get: func(s *schedule.Schedule) any { return s.LCNumber }},
	{name: "invoice_number", get: func(s *schedule.Schedule) any { return s.InvoiceNumber }},
	{name: "bl_number", get: func(s *schedule.Schedule) any { return s.BLNumber }},
	{name: "lg_number", get: func(s *schedule.Schedule) any { return s.LGNumber }},
	{name: "insurance", get: func(s *schedule.Schedule) any { return s.Insurance }},
	{name: "bank", get: func(s *schedule.Schedule) any { return s.Bank }},
	{name: "tt_flag", get: func(s *schedule.Schedule) any { return s.TTFlag }},
	{name: "usance_flag", get: func(s *schedule.Schedule) any { return s.UsanceFlag }},
	{name: "at_sight_flag", get: func(s *schedule.Schedule) any { return s.AtSightFlag }},
	{name: "agency", get: func(s *schedule.Schedule) any { return s.Agency }},
	{name: "agency_contract", get: func(s *schedule.Schedule) any { return s.AgencyContract }},
	{name: "warehouse", get: func(s *schedule.Schedule) any { return s.Warehouse }},
	{name: "destination", get: func(s *schedule.Schedule) any { return s.Destination }},
	{name: "note", get: func(s *schedule.Schedule) any { return s.Note }},
	{name: "clearances", get: func(s *schedule.Schedule) any { return jsonList(s.Clearances) }},
	{name: "declarations", get: func(s *schedule.Schedule) any { return jsonList(s.Declarations) }},
	{name: "status", get: func(s *schedule.Schedule) any { return string(s.Status) }, fixed: true},
	{name: "source_row", get: func(s *schedule.Schedule) any { return s.SourceRow }, fixed: true},
	{name: "upload_id", get: func(s *schedule.Schedule) any { return toPgUUID(s.UploadID) }, fixed: true},
}

// selectSchedules reads every column in the order scanSchedule expects.
var selectSchedules = func() string {
	cols := make([]string, 0, len(scheduleColumns)+5)
	cols = append(cols, "s.schedule_id")
	for _, c := range scheduleColumns {
		cols = append(cols, "s."+c.name)
	}
	cols = append(cols, "p.product_name", "p.product_code", "s.created_at", "s.updated_at")
	return "SELECT " + strings.Join(cols, ", ") +
		" FROM import_schedules s JOIN products p ON p.product_id = s.product_id"
}()

func buildInsert() string {
	names := make([]string, len(scheduleColumns))
	marks := make([]string, len(scheduleColumns))
	for i, c := range scheduleColumns {
		names[i] = c.name
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return "INSERT INTO import_schedules (" + strings.Join(names, ", ") + ") VALUES (" +
		strings.Join(marks, ", ") + ") RETURNING schedule_id, created_at, updated_at"
}

var insertSchedule = buildInsert()

func insertArgs(s *schedule.Schedule) []any {
	args := make([]any, len(scheduleColumns))
	for i, c := range scheduleColumns {
		args[i] = c.get(s)
	}
	return args
}

// buildUpdate returns the UPDATE statement and its arguments for s.
// The schedule id is the last placeholder.
func buildUpdate(id int64, s *schedule.Schedule) (string, []any) {
	sets := make([]string, 0, len(scheduleColumns))
	args := make([]any, 0, len(scheduleColumns)+1)
	for _, c := range scheduleColumns {
		if c.fixed {
			continue
		}
		args = append(args, c.get(s))
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}
	args = append(args, id)
	query := "UPDATE import_schedules SET " + strings.Join(sets, ", ") +
		fmt.Sprintf(", updated_at = now() WHERE schedule_id = $%d RETURNING created_at, updated_at", len(args))
	return query, args
}

// jsonList encodes a repeat group as a JSON array, never null.
func jsonList[T any](items []T) []byte {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return []byte("[]")
	}
	return b
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSchedule reads one row produced by selectSchedules.
func scanSchedule(row rowScanner) (*schedule.Schedule, error) {
	var (
		s                          schedule.Schedule
		etd, eta, arrival, broker  pgtype.Date
		lcOpen, maturity, extended pgtype.Date
		acceptance, payment        pgtype.Date
		clearances, declarations   []byte
		status                     string
		uploadID                   pgtype.UUID
	)
	err := row.Scan(
		&s.ID,
		&s.CKCode, &s.GlobalCode, &s.SecondaryCode, &s.Product.ID,
		&s.Supplier, &s.Origin, &s.Size, &s.Packing, &s.SecondaryUnit,
		&s.Quantity, &s.OpenQty, &s.DocQty, &s.BoxQty, &s.ActualQty,
		&s.UnitPrice, &s.OpenAmount, &s.DocAmount, &s.PaymentAmount, &s.ExchangeRate, &s.PaymentRate,
		&etd, &eta, &arrival, &broker, &lcOpen, &maturity, &extended, &acceptance, &payment,
		&s.LCNumber, &s.InvoiceNumber, &s.BLNumber, &s.LGNumber, &s.Insurance, &s.Bank,
		&s.TTFlag, &s.UsanceFlag, &s.AtSightFlag, &s.Agency, &s.AgencyContract,
		&s.Warehouse, &s.Destination, &s.Note,
		&clearances, &declarations,
		&status, &s.SourceRow, &uploadID,
		&s.Product.Name, &s.Product.Code, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.ETD, s.ETA, s.ArrivalDate = fromPgDate(etd), fromPgDate(eta), fromPgDate(arrival)
	s.BrokerHandoffDate, s.LCOpenDate = fromPgDate(broker), fromPgDate(lcOpen)
	s.MaturityDate, s.ExtendedMaturityDate = fromPgDate(maturity), fromPgDate(extended)
	s.DocAcceptanceDate, s.PaymentDate = fromPgDate(acceptance), fromPgDate(payment)
	s.Status = schedule.Status(status)
	s.UploadID = pgUUIDToString(uploadID)

	if err := json.Unmarshal(clearances, &s.Clearances); err != nil {
		return nil, fmt.Errorf("decode clearances: %w", err)
	}
	if err := json.Unmarshal(declarations, &s.Declarations); err != nil {
		return nil, fmt.Errorf("decode declarations: %w", err)
	}
	return &s, nil
}

// Insert stores a new schedule and fills in its id and timestamps.
func (st *Store) Insert(ctx context.Context, s *schedule.Schedule) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	err := st.db.QueryRow(ctx, insertSchedule, insertArgs(s)...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert schedule: %w", err)
	}
	return s.ID, nil
}

// Update replaces the editable fields of schedule id. Status, source row and
// upload id are left as stored.
func (st *Store) Update(ctx context.Context, id int64, s *schedule.Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	query, args := buildUpdate(id, s)
	if err := st.db.QueryRow(ctx, query, args...).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return notFound(err, "schedule", id)
	}
	s.ID = id
	return nil
}

// Delete removes schedule id.
func (st *Store) Delete(ctx context.Context, id int64) error {
	tag, err := st.db.Exec(ctx, "DELETE FROM import_schedules WHERE schedule_id = $1", id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule %d: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns schedule id.
func (st *Store) Get(ctx context.Context, id int64) (*schedule.Schedule, error) {
	s, err := scanSchedule(st.db.QueryRow(ctx, selectSchedules+" WHERE s.schedule_id = $1", id))
	if err != nil {
		return nil, notFound(err, "schedule", id)
	}
	return s, nil
}

// Filter selects schedules. Zero values do not filter.
type Filter struct {
	Status    schedule.Status
	ProductID int64
	CKCode    string
	UploadID  string
	ETAFrom   *time.Time
	ETATo     *time.Time
	// Search matches CK code, product name, invoice, L/C and B/L numbers.
	Search string
	Limit  int
	Offset int
}

func (f Filter) where() *WhereBuilder {
	wb := NewWhereBuilder()
	wb.Add("s.status", string(f.Status))
	wb.AddInt("s.product_id", f.ProductID)
	wb.Add("s.ck_code", f.CKCode)
	if u := toPgUUID(f.UploadID); u.Valid {
		wb.push(fmt.Sprintf("s.upload_id = $%d", wb.NextArgIndex()), u)
	}
	wb.AddDateRange("s.eta", f.ETAFrom, f.ETATo)
	wb.AddSearch(f.Search, "s.ck_code", "p.product_name", "s.invoice_number", "s.lc_number", "s.bl_number")
	return wb
}

// QueryResult is one page of schedules.
type QueryResult struct {
	Schedules  []*schedule.Schedule `json:"schedules"`
	TotalCount int64                `json:"total_count"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
}

// Query lists schedules matching f ordered by ETA (undated last), then id.
func (st *Store) Query(ctx context.Context, f Filter) (*QueryResult, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultQueryLimit
	}
	if f.Limit > MaxQueryLimit {
		f.Limit = MaxQueryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	wb := f.where()
	whereClause, args := wb.Build()

	var total int64
	countQuery := "SELECT COUNT(*) FROM import_schedules s JOIN products p ON p.product_id = s.product_id" + whereClause
	if err := st.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count schedules: %w", err)
	}

	query := selectSchedules + whereClause +
		fmt.Sprintf(" ORDER BY s.eta ASC NULLS LAST, s.schedule_id ASC LIMIT $%d OFFSET $%d", wb.NextArgIndex(), wb.NextArgIndex()+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := st.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	out := make([]*schedule.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}

	return &QueryResult{Schedules: out, TotalCount: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// SetStatus moves schedule id from one status to another. It fails with
// ErrStatusConflict when the stored status is no longer from.
func (st *Store) SetStatus(ctx context.Context, id int64, from, to schedule.Status) error {
	tag, err := st.db.Exec(ctx,
		"UPDATE import_schedules SET status = $1, updated_at = now() WHERE schedule_id = $2 AND status = $3",
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := st.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("schedule %d: %w", id, ErrStatusConflict)
}
