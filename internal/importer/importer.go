// Package importer reconciles an arbitrarily laid out schedule spreadsheet
// into typed, catalog-resolved schedule records.
//
// An import runs in five phases over one in-memory table:
//
//  1. Header location. The table's declared columns are used when they look
//     like a schedule header; otherwise the first rows are scored against a
//     keyword set and the best qualifying row becomes the header.
//  2. Column resolution. Header labels are matched against the synonym table
//     in fields.yaml, producing an immutable ColumnMap.
//  3. Row extraction. Each data row is typed field by field; numbers and
//     dates degrade to zero/nil instead of failing.
//  4. Catalog resolution. Product names are normalized and looked up in a
//     catalog snapshot; unknown products are reported, never registered.
//  5. Diagnostics. Per-row problems are collected in row order and never
//     stop the batch. Only a missing header aborts the import.
//
// The importer holds no state between calls and performs no I/O.
package importer

import (
	"strings"

	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/tabular"
)

// MaxHeaderSearchRows is the default number of rows scanned for a header.
const MaxHeaderSearchRows = 20

// Options configures an Importer.
type Options struct {
	// HeaderSearchRows bounds the header scan. Zero uses the field table's
	// scan_rows, or MaxHeaderSearchRows.
	HeaderSearchRows int
	// Fields overrides the built-in field table.
	Fields *FieldTable
}

// Importer converts tables into schedules. It is safe for concurrent use.
type Importer struct {
	fields   *FieldTable
	header   headerKeywords
	scanRows int
	blank    map[string]bool
}

// New creates an Importer.
func New(opts Options) *Importer {
	ft := opts.Fields
	if ft == nil {
		ft = DefaultFieldTable()
	}
	scan := opts.HeaderSearchRows
	if scan <= 0 {
		scan = ft.Header.ScanRows
	}
	if scan <= 0 {
		scan = MaxHeaderSearchRows
	}
	blank := make(map[string]bool, len(ft.BlankMarkers))
	for _, m := range ft.BlankMarkers {
		blank[strings.ToLower(m)] = true
	}
	return &Importer{
		fields:   ft,
		header:   compileHeader(ft.Header),
		scanRows: scan,
		blank:    blank,
	}
}

// Result is the outcome of one import.
type Result struct {
	Records     []*schedule.Schedule `json:"records"`
	Diagnostics []Diagnostic         `json:"diagnostics"`
	// HeaderRow is the 1-based row number of the located header, or 0 when
	// the table's declared columns were used.
	HeaderRow int `json:"header_row"`
	// DataRows counts the rows after the header, blank ones included.
	DataRows int `json:"data_rows"`
	// Skipped counts blank rows.
	Skipped int        `json:"skipped"`
	Columns *ColumnMap `json:"-"`

	structural bool
}

// Err returns ErrHeaderNotFound for a structural failure and nil otherwise.
// Row-level diagnostics are not errors.
func (r *Result) Err() error {
	if r.structural {
		return ErrHeaderNotFound
	}
	return nil
}

// Import runs the reconciler over t with the default options.
func Import(t *tabular.RawTable, products ProductLookup) *Result {
	return New(Options{}).Import(t, products)
}

// Import runs the reconciler over t, resolving products through products.
func (im *Importer) Import(t *tabular.RawTable, products ProductLookup) *Result {
	match, ok := locateHeader(t, im.header, im.scanRows)
	if !ok {
		return &Result{
			Diagnostics: []Diagnostic{headerNotFound(min(im.scanRows, len(t.Rows)))},
			structural:  true,
		}
	}

	cols := resolveColumns(match.Labels, im.fields)
	ex := &extractor{fields: im.fields, cols: cols, products: products, blank: im.blank}

	res := &Result{
		HeaderRow: match.Row + 1,
		Columns:   cols,
	}
	for i := match.dataStart(); i < len(t.Rows); i++ {
		res.DataRows++
		out := ex.extract(t.Rows[i], i+1)
		switch {
		case out.record != nil:
			res.Records = append(res.Records, out.record)
		case out.diagnostic != nil:
			res.Diagnostics = append(res.Diagnostics, *out.diagnostic)
		default:
			res.Skipped++
		}
	}
	return res
}
