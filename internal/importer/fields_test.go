package importer

import (
	"strings"
	"testing"
)

func TestDefaultFieldTable(t *testing.T) {
	ft := DefaultFieldTable()
	if err := ft.Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	if ft.Header.ScanRows != MaxHeaderSearchRows {
		t.Errorf("scan_rows = %d, want %d", ft.Header.ScanRows, MaxHeaderSearchRows)
	}

	// Every field except the product name must land somewhere on a schedule.
	for _, f := range ft.Fields {
		if f.Key == FieldProductName {
			continue
		}
		var ok bool
		switch f.Kind {
		case KindText:
			_, ok = textFields[f.Key]
		case KindNumber:
			_, ok = numberFields[f.Key]
		case KindDate:
			_, ok = dateFields[f.Key]
		}
		if !ok {
			t.Errorf("field %q (%s) has no schedule binding", f.Key, f.Kind)
		}
	}

	// Generic labels must come after the specific labels that contain them.
	order := map[Field]int{}
	for i, f := range ft.Fields {
		order[f.Key] = i
	}
	before := [][2]Field{
		{FieldOpenQty, FieldQuantity},
		{FieldPaymentRate, FieldExchangeRate},
		{FieldExtendedMaturityDate, FieldMaturityDate},
		{FieldAgency, FieldAgencyContract},
	}
	for _, pair := range before {
		if order[pair[0]] > order[pair[1]] {
			t.Errorf("%s must be listed before %s", pair[0], pair[1])
		}
	}
}

func TestParseFieldTable_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			yaml:    "header: [",
			wantErr: "parse field table",
		},
		{
			name: "duplicate key",
			yaml: `
header: {scan_rows: 5, keywords: [CK]}
fields:
  - {key: product_name, kind: text, synonyms: [품명]}
  - {key: product_name, kind: text, synonyms: [PRODUCT]}
`,
			wantErr: "duplicate key",
		},
		{
			name: "unknown kind",
			yaml: `
header: {scan_rows: 5, keywords: [CK]}
fields:
  - {key: product_name, kind: blob, synonyms: [품명]}
`,
			wantErr: "unknown kind",
		},
		{
			name: "dangling follows",
			yaml: `
header: {scan_rows: 5, keywords: [CK]}
fields:
  - {key: secondary_unit, kind: text, follows: unit_price}
  - {key: product_name, kind: text, synonyms: [품명]}
`,
			wantErr: "not listed before it",
		},
		{
			name: "missing product name",
			yaml: `
header: {scan_rows: 5, keywords: [CK]}
fields:
  - {key: note, kind: text, synonyms: [비고]}
`,
			wantErr: "product_name is required",
		},
		{
			name: "negative scan rows",
			yaml: `
header: {scan_rows: -1, keywords: [CK]}
fields:
  - {key: product_name, kind: text, synonyms: [품명]}
`,
			wantErr: "scan_rows must not be negative",
		},
		{
			name: "anchor is not a column",
			yaml: `
header: {scan_rows: 5, keywords: [CK]}
repeat_groups:
  - key: clearance
    slots: 2
    anchors: [day]
    columns:
      - {key: date, kind: date, labels: [통관일]}
fields:
  - {key: product_name, kind: text, synonyms: [품명]}
`,
			wantErr: "anchor \"day\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFieldTable([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseFieldTable_DefaultScanRows(t *testing.T) {
	ft, err := ParseFieldTable([]byte(`
header:
  keywords: [SKU, ITEM]
  require_any: [SKU]
  require_all: [ITEM]
fields:
  - {key: product_name, kind: text, synonyms: [ITEM]}
`))
	if err != nil {
		t.Fatalf("ParseFieldTable: %v", err)
	}
	if ft.Header.ScanRows != 0 {
		t.Errorf("scan_rows = %d, want 0", ft.Header.ScanRows)
	}
	if got := New(Options{Fields: ft}).scanRows; got != MaxHeaderSearchRows {
		t.Errorf("scanRows = %d, want %d", got, MaxHeaderSearchRows)
	}
}

func TestImporter_CustomFieldTable(t *testing.T) {
	ft, err := ParseFieldTable([]byte(`
header:
  scan_rows: 5
  keywords: [ITEM, REF]
  require_any: [REF]
  require_all: [ITEM]
fields:
  - {key: ck_code, kind: text, synonyms: [REF]}
  - {key: product_name, kind: text, synonyms: [ITEM]}
  - {key: quantity, kind: number, synonyms: [PCS]}
`))
	if err != nil {
		t.Fatal(err)
	}

	res := New(Options{Fields: ft}).Import(
		tableOf([]string{"Ref", "Item", "Pcs"}, []any{"R1", "Widget", "12"}),
		testCatalog("Widget"),
	)
	if len(res.Records) != 1 || res.Records[0].Quantity != 12 || res.Records[0].CKCode != "R1" {
		t.Errorf("records = %+v, diagnostics = %v", res.Records, res.Diagnostics)
	}
}
