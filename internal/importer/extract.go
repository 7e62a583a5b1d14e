package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/tabular"
)

var textFields = map[Field]func(*schedule.Schedule) *string{
	FieldCKCode:         func(s *schedule.Schedule) *string { return &s.CKCode },
	FieldGlobalCode:     func(s *schedule.Schedule) *string { return &s.GlobalCode },
	FieldSecondaryCode:  func(s *schedule.Schedule) *string { return &s.SecondaryCode },
	FieldSupplier:       func(s *schedule.Schedule) *string { return &s.Supplier },
	FieldOrigin:         func(s *schedule.Schedule) *string { return &s.Origin },
	FieldSize:           func(s *schedule.Schedule) *string { return &s.Size },
	FieldPacking:        func(s *schedule.Schedule) *string { return &s.Packing },
	FieldSecondaryUnit:  func(s *schedule.Schedule) *string { return &s.SecondaryUnit },
	FieldLCNumber:       func(s *schedule.Schedule) *string { return &s.LCNumber },
	FieldInvoiceNumber:  func(s *schedule.Schedule) *string { return &s.InvoiceNumber },
	FieldBLNumber:       func(s *schedule.Schedule) *string { return &s.BLNumber },
	FieldLGNumber:       func(s *schedule.Schedule) *string { return &s.LGNumber },
	FieldInsurance:      func(s *schedule.Schedule) *string { return &s.Insurance },
	FieldBank:           func(s *schedule.Schedule) *string { return &s.Bank },
	FieldTTFlag:         func(s *schedule.Schedule) *string { return &s.TTFlag },
	FieldUsanceFlag:     func(s *schedule.Schedule) *string { return &s.UsanceFlag },
	FieldAtSightFlag:    func(s *schedule.Schedule) *string { return &s.AtSightFlag },
	FieldAgency:         func(s *schedule.Schedule) *string { return &s.Agency },
	FieldAgencyContract: func(s *schedule.Schedule) *string { return &s.AgencyContract },
	FieldWarehouse:      func(s *schedule.Schedule) *string { return &s.Warehouse },
	FieldDestination:    func(s *schedule.Schedule) *string { return &s.Destination },
	FieldNote:           func(s *schedule.Schedule) *string { return &s.Note },
}

var numberFields = map[Field]func(*schedule.Schedule) *float64{
	FieldQuantity:      func(s *schedule.Schedule) *float64 { return &s.Quantity },
	FieldOpenQty:       func(s *schedule.Schedule) *float64 { return &s.OpenQty },
	FieldDocQty:        func(s *schedule.Schedule) *float64 { return &s.DocQty },
	FieldBoxQty:        func(s *schedule.Schedule) *float64 { return &s.BoxQty },
	FieldActualQty:     func(s *schedule.Schedule) *float64 { return &s.ActualQty },
	FieldUnitPrice:     func(s *schedule.Schedule) *float64 { return &s.UnitPrice },
	FieldOpenAmount:    func(s *schedule.Schedule) *float64 { return &s.OpenAmount },
	FieldDocAmount:     func(s *schedule.Schedule) *float64 { return &s.DocAmount },
	FieldPaymentAmount: func(s *schedule.Schedule) *float64 { return &s.PaymentAmount },
	FieldExchangeRate:  func(s *schedule.Schedule) *float64 { return &s.ExchangeRate },
	FieldPaymentRate:   func(s *schedule.Schedule) *float64 { return &s.PaymentRate },
}

var dateFields = map[Field]func(*schedule.Schedule) **time.Time{
	FieldETD:                  func(s *schedule.Schedule) **time.Time { return &s.ETD },
	FieldETA:                  func(s *schedule.Schedule) **time.Time { return &s.ETA },
	FieldArrivalDate:          func(s *schedule.Schedule) **time.Time { return &s.ArrivalDate },
	FieldBrokerHandoffDate:    func(s *schedule.Schedule) **time.Time { return &s.BrokerHandoffDate },
	FieldLCOpenDate:           func(s *schedule.Schedule) **time.Time { return &s.LCOpenDate },
	FieldMaturityDate:         func(s *schedule.Schedule) **time.Time { return &s.MaturityDate },
	FieldExtendedMaturityDate: func(s *schedule.Schedule) **time.Time { return &s.ExtendedMaturityDate },
	FieldDocAcceptanceDate:    func(s *schedule.Schedule) **time.Time { return &s.DocAcceptanceDate },
	FieldPaymentDate:          func(s *schedule.Schedule) **time.Time { return &s.PaymentDate },
}

// extractor turns data rows into schedules for one import.
type extractor struct {
	fields   *FieldTable
	cols     *ColumnMap
	products ProductLookup
	blank    map[string]bool
}

// text reads a cleaned text cell; blank markers read as empty.
func (e *extractor) text(row []any, f Field) string {
	i, ok := e.cols.Index(f)
	if !ok || i >= len(row) {
		return ""
	}
	return e.cleanText(row[i])
}

func (e *extractor) cleanText(v any) string {
	s := CleanCell(tabular.Text(v))
	if e.blank[strings.ToLower(s)] {
		return ""
	}
	return s
}

func (e *extractor) cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	v := row[i]
	if s, ok := v.(string); ok && e.blank[strings.ToLower(strings.TrimSpace(s))] {
		return nil
	}
	return v
}

func (e *extractor) field(row []any, f Field) any {
	i, ok := e.cols.Index(f)
	if !ok {
		return nil
	}
	return e.cell(row, i)
}

// rowOutcome is what one data row produced: a record, a diagnostic, or
// neither for a blank row.
type rowOutcome struct {
	record     *schedule.Schedule
	diagnostic *Diagnostic
}

// extract processes one data row. rowNum is the 1-based diagnostic row number.
func (e *extractor) extract(row []any, rowNum int) (out rowOutcome) {
	name := e.text(row, FieldProductName)
	if name == "" {
		return rowOutcome{}
	}
	ck := e.text(row, FieldCKCode)

	defer func() {
		if r := recover(); r != nil {
			d := parseError(rowNum, ck, name, fmt.Errorf("%v", r))
			out = rowOutcome{diagnostic: &d}
		}
	}()

	ref, ok := e.products.Lookup(NormalizeName(name))
	if !ok {
		d := unknownProduct(rowNum, name, ck)
		return rowOutcome{diagnostic: &d}
	}

	rec, err := e.build(row, ref)
	if err != nil {
		d := parseError(rowNum, ck, name, err)
		return rowOutcome{diagnostic: &d}
	}
	rec.SourceRow = rowNum
	return rowOutcome{record: rec}
}

// build fills every bound field of a new pending schedule.
func (e *extractor) build(row []any, ref schedule.ProductRef) (*schedule.Schedule, error) {
	s := schedule.New(ref)

	for _, f := range e.fields.Fields {
		switch f.Kind {
		case KindText:
			if bind, ok := textFields[f.Key]; ok {
				*bind(s) = e.text(row, f.Key)
			}
		case KindNumber:
			if bind, ok := numberFields[f.Key]; ok {
				*bind(s) = ParseNumber(e.field(row, f.Key))
			}
		case KindDate:
			if bind, ok := dateFields[f.Key]; ok {
				*bind(s) = ParseDate(e.field(row, f.Key))
			}
		}
	}

	if _, ok := e.cols.Index(FieldQuantity); !ok {
		s.Quantity = s.OpenQty
	}

	s.Clearances = e.clearances(row)
	s.Declarations = e.declarations(row)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// slotCells returns the member cells of a slot, and whether any is non-empty.
func (e *extractor) slotCells(row []any, slot Slot) (map[string]any, bool) {
	cells := make(map[string]any, len(slot.Columns))
	filled := false
	for key, i := range slot.Columns {
		v := e.cell(row, i)
		cells[key] = v
		if tabular.Text(v) != "" {
			filled = true
		}
	}
	return cells, filled
}

func (e *extractor) clearances(row []any) []schedule.Clearance {
	var out []schedule.Clearance
	for _, slot := range e.cols.Slots("clearance") {
		cells, filled := e.slotCells(row, slot)
		if !filled {
			continue
		}
		out = append(out, schedule.Clearance{
			Date:     ParseDate(cells["date"]),
			Quantity: ParseNumber(cells["quantity"]),
			Rate:     ParseNumber(cells["rate"]),
		})
	}
	return out
}

func (e *extractor) declarations(row []any) []schedule.Declaration {
	var out []schedule.Declaration
	for _, slot := range e.cols.Slots("declaration") {
		cells, filled := e.slotCells(row, slot)
		if !filled {
			continue
		}
		out = append(out, schedule.Declaration{
			Date:   ParseDate(cells["date"]),
			Number: e.cleanText(cells["number"]),
		})
	}
	return out
}
