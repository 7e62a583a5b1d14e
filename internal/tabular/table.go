// Package tabular reads uploaded spreadsheet payloads into an in-memory
// table of heterogeneous cells.
//
// Two payload formats are supported:
//
//   - Comma-separated text. A UTF-8 BOM is skipped; when the bytes are not
//     valid UTF-8 they are decoded with a legacy regional encoding (EUC-KR by
//     default) before parsing.
//   - XLSX workbooks, read with excelize from the first (or a named) sheet.
//
// In both cases the first record becomes the table's declared column labels.
// Whether those labels are the real header is decided by the importer.
package tabular

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyPayload      = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("invalid csv: unsupported file format")
	ErrEncoding          = errors.New("encoding error")
)

// Format is the payload container format.
type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	default:
		return "csv"
	}
}

// RawTable is an ordered sequence of rows of heterogeneous cells.
// Cells hold string, float64, int, time.Time or nil.
type RawTable struct {
	// Columns are the labels declared by the source format, if any.
	Columns []string
	Rows    [][]any
	// Encoding names the text encoding the payload was decoded from.
	Encoding string
}

// New builds a table from declared labels and rows.
func New(columns []string, rows ...[]any) *RawTable {
	return &RawTable{Columns: columns, Rows: rows}
}

// FromStrings builds a table from string records, using the first record as
// the declared labels when hasHeader is set.
func FromStrings(records [][]string, hasHeader bool) *RawTable {
	t := &RawTable{}
	if hasHeader && len(records) > 0 {
		t.Columns = records[0]
		records = records[1:]
	}
	t.Rows = make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		t.Rows[i] = row
	}
	return t
}

// Cell returns the cell at row, col or nil when out of range.
func (t *RawTable) Cell(row, col int) any {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return nil
	}
	r := t.Rows[row]
	if col >= len(r) {
		return nil
	}
	return r[col]
}

// Options controls payload decoding.
type Options struct {
	// LegacyEncoding is the fallback for text payloads that are not UTF-8.
	// Any WHATWG encoding label is accepted ("euc-kr", "windows-1252", ...).
	LegacyEncoding string
	// Sheet selects a workbook sheet; empty means the first sheet.
	Sheet string
}

// DefaultLegacyEncoding is used when Options.LegacyEncoding is empty.
const DefaultLegacyEncoding = "euc-kr"

// DetectFormat chooses the payload format from magic bytes, then the file
// extension. Legacy binary .xls workbooks are rejected.
func DetectFormat(name string, data []byte) (Format, error) {
	if len(data) >= 4 && string(data[:4]) == "PK\x03\x04" {
		return FormatXLSX, nil
	}
	if len(data) >= 8 && string(data[:8]) == "\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1" {
		return FormatCSV, ErrUnsupportedFormat
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatCSV, ErrUnsupportedFormat
	}
	return FormatCSV, nil
}

// Read parses a payload into a RawTable.
func Read(name string, data []byte, opts Options) (*RawTable, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	format, err := DetectFormat(name, data)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadXLSX(data, opts.Sheet)
	}
	return ReadCSV(data, opts.LegacyEncoding)
}

// Text renders a cell as trimmed text. Whole floats drop their fraction so
// numeric identifiers read back the way they were typed.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02")
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format("2006-01-02")
	}
	return ""
}
