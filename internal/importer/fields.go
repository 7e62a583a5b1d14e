package importer

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is a logical schedule field key.
type Field string

const (
	FieldCKCode               Field = "ck_code"
	FieldProductName          Field = "product_name"
	FieldGlobalCode           Field = "global_code"
	FieldSecondaryCode        Field = "secondary_code"
	FieldSupplier             Field = "supplier"
	FieldOrigin               Field = "origin"
	FieldSize                 Field = "size"
	FieldPacking              Field = "packing"
	FieldOpenQty              Field = "open_qty"
	FieldDocQty               Field = "doc_qty"
	FieldBoxQty               Field = "box_qty"
	FieldActualQty            Field = "actual_qty"
	FieldQuantity             Field = "quantity"
	FieldUnitPrice            Field = "unit_price"
	FieldSecondaryUnit        Field = "secondary_unit"
	FieldOpenAmount           Field = "open_amount"
	FieldDocAmount            Field = "doc_amount"
	FieldPaymentAmount        Field = "payment_amount"
	FieldPaymentRate          Field = "payment_rate"
	FieldExchangeRate         Field = "exchange_rate"
	FieldETD                  Field = "etd"
	FieldETA                  Field = "eta"
	FieldArrivalDate          Field = "arrival_date"
	FieldBrokerHandoffDate    Field = "broker_handoff_date"
	FieldLCOpenDate           Field = "lc_open_date"
	FieldExtendedMaturityDate Field = "extended_maturity_date"
	FieldMaturityDate         Field = "maturity_date"
	FieldDocAcceptanceDate    Field = "doc_acceptance_date"
	FieldPaymentDate          Field = "payment_date"
	FieldLCNumber             Field = "lc_number"
	FieldInvoiceNumber        Field = "invoice_number"
	FieldBLNumber             Field = "bl_number"
	FieldLGNumber             Field = "lg_number"
	FieldInsurance            Field = "insurance"
	FieldBank                 Field = "bank"
	FieldTTFlag               Field = "tt_flag"
	FieldUsanceFlag           Field = "usance_flag"
	FieldAtSightFlag          Field = "at_sight_flag"
	FieldAgency               Field = "agency"
	FieldAgencyContract       Field = "agency_contract"
	FieldWarehouse            Field = "warehouse"
	FieldDestination          Field = "destination"
	FieldNote                 Field = "note"
)

// Kind is how a field's cells are typed.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
)

// FieldSpec describes how one logical field is found in a header.
type FieldSpec struct {
	Key      Field    `yaml:"key"`
	Kind     Kind     `yaml:"kind"`
	Synonyms []string `yaml:"synonyms"`
	Exclude  []string `yaml:"exclude"`
	Follows  Field    `yaml:"follows"`
}

// GroupColumn is one member column of a repeat group.
type GroupColumn struct {
	Key    string   `yaml:"key"`
	Kind   Kind     `yaml:"kind"`
	Labels []string `yaml:"labels"`
}

// GroupSpec describes a repeat group whose slots are numbered by label suffix.
type GroupSpec struct {
	Key     string        `yaml:"key"`
	Slots   int           `yaml:"slots"`
	Anchors []string      `yaml:"anchors"`
	Columns []GroupColumn `yaml:"columns"`
}

// HeaderSpec configures header-row detection.
type HeaderSpec struct {
	// ScanRows of 0 scans MaxHeaderSearchRows rows.
	ScanRows   int      `yaml:"scan_rows"`
	MinScore   int      `yaml:"min_score"`
	Keywords   []string `yaml:"keywords"`
	RequireAny []string `yaml:"require_any"`
	RequireAll []string `yaml:"require_all"`
}

// FieldTable is the complete column vocabulary of a schedule spreadsheet.
type FieldTable struct {
	Header       HeaderSpec  `yaml:"header"`
	BlankMarkers []string    `yaml:"blank_markers"`
	Groups       []GroupSpec `yaml:"repeat_groups"`
	Fields       []FieldSpec `yaml:"fields"`
}

//go:embed fields.yaml
var defaultFieldTableYAML []byte

var defaultFieldTable = mustParseFieldTable(defaultFieldTableYAML)

// DefaultFieldTable returns the built-in field table.
func DefaultFieldTable() *FieldTable {
	return defaultFieldTable
}

// ParseFieldTable decodes and validates a YAML field table.
func ParseFieldTable(data []byte) (*FieldTable, error) {
	var ft FieldTable
	if err := yaml.Unmarshal(data, &ft); err != nil {
		return nil, fmt.Errorf("parse field table: %w", err)
	}
	if err := ft.Validate(); err != nil {
		return nil, err
	}
	return &ft, nil
}

// LoadFieldTable reads and validates a YAML field table from path.
func LoadFieldTable(path string) (*FieldTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field table: %w", err)
	}
	ft, err := ParseFieldTable(data)
	if err != nil {
		return nil, fmt.Errorf("field table %s: %w", path, err)
	}
	return ft, nil
}

func mustParseFieldTable(data []byte) *FieldTable {
	ft, err := ParseFieldTable(data)
	if err != nil {
		panic(err)
	}
	return ft
}

// Validate checks the table for duplicate keys, unknown kinds and dangling
// positional references.
func (ft *FieldTable) Validate() error {
	var errs []string

	if len(ft.Header.Keywords) == 0 {
		errs = append(errs, "header.keywords is empty")
	}
	if ft.Header.ScanRows < 0 {
		errs = append(errs, "header.scan_rows must not be negative")
	}

	seen := make(map[Field]bool, len(ft.Fields))
	for i, f := range ft.Fields {
		if f.Key == "" {
			errs = append(errs, fmt.Sprintf("fields[%d]: missing key", i))
			continue
		}
		if seen[f.Key] {
			errs = append(errs, fmt.Sprintf("fields[%d]: duplicate key %q", i, f.Key))
		}
		seen[f.Key] = true
		if !validKind(f.Kind) {
			errs = append(errs, fmt.Sprintf("field %q: unknown kind %q", f.Key, f.Kind))
		}
		if f.Follows == "" && len(f.Synonyms) == 0 {
			errs = append(errs, fmt.Sprintf("field %q: needs synonyms or follows", f.Key))
		}
		if f.Follows != "" && !seen[f.Follows] {
			errs = append(errs, fmt.Sprintf("field %q: follows %q which is not listed before it", f.Key, f.Follows))
		}
	}
	if !seen[FieldProductName] {
		errs = append(errs, "fields: product_name is required")
	}

	for _, g := range ft.Groups {
		if g.Slots <= 0 {
			errs = append(errs, fmt.Sprintf("group %q: slots must be positive", g.Key))
		}
		members := make(map[string]bool, len(g.Columns))
		for _, c := range g.Columns {
			members[c.Key] = true
			if !validKind(c.Kind) {
				errs = append(errs, fmt.Sprintf("group %q column %q: unknown kind %q", g.Key, c.Key, c.Kind))
			}
		}
		for _, a := range g.Anchors {
			if !members[a] {
				errs = append(errs, fmt.Sprintf("group %q: anchor %q is not a column", g.Key, a))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid field table:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validKind(k Kind) bool {
	return k == KindText || k == KindNumber || k == KindDate
}
