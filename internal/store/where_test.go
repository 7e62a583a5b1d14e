package store

import (
	"testing"
	"time"
)

// ============================================================================
// WhereBuilder Tests
// ============================================================================

func TestNewWhereBuilder(t *testing.T) {
	wb := NewWhereBuilder()

	if wb == nil {
		t.Fatal("NewWhereBuilder returned nil")
	}
	if wb.argIndex != 1 {
		t.Errorf("expected argIndex to be 1, got %d", wb.argIndex)
	}
	if len(wb.conditions) != 0 || len(wb.args) != 0 {
		t.Errorf("expected empty builder, got %d conditions, %d args", len(wb.conditions), len(wb.args))
	}
}

func TestWhereBuilder_Build_Empty(t *testing.T) {
	whereClause, args := NewWhereBuilder().Build()

	if whereClause != "" {
		t.Errorf("expected empty string for no conditions, got %q", whereClause)
	}
	if args != nil {
		t.Errorf("expected nil args for no conditions, got %v", args)
	}
}

func TestWhereBuilder_Add(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("s.status", "PENDING")
	wb.Add("s.ck_code", "")
	wb.AddInt("s.product_id", 0)
	wb.AddInt("s.product_id", 7)

	whereClause, args := wb.Build()

	expectedClause := " WHERE s.status = $1 AND s.product_id = $2"
	if whereClause != expectedClause {
		t.Errorf("expected %q, got %q", expectedClause, whereClause)
	}
	if len(args) != 2 || args[0] != "PENDING" || args[1] != int64(7) {
		t.Errorf("unexpected args %v", args)
	}
}

func TestWhereBuilder_AddDateRange(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		from, to   *time.Time
		wantClause string
		wantArgs   int
	}{
		{name: "both bounds", from: &from, to: &to, wantClause: " WHERE s.eta >= $1 AND s.eta <= $2", wantArgs: 2},
		{name: "from only", from: &from, wantClause: " WHERE s.eta >= $1", wantArgs: 1},
		{name: "to only", to: &to, wantClause: " WHERE s.eta <= $1", wantArgs: 1},
		{name: "neither", wantClause: "", wantArgs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddDateRange("s.eta", tt.from, tt.to)
			gotClause, gotArgs := wb.Build()
			if gotClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", gotClause, tt.wantClause)
			}
			if len(gotArgs) != tt.wantArgs {
				t.Errorf("args count = %d, want %d", len(gotArgs), tt.wantArgs)
			}
		})
	}
}

func TestWhereBuilder_AddSearch(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		columns    []string
		wantClause string
		wantArg    string
	}{
		{
			name:       "empty query skipped",
			query:      "  ",
			columns:    []string{"ck_code"},
			wantClause: "",
		},
		{
			name:       "single column",
			query:      "A1",
			columns:    []string{"ck_code"},
			wantClause: ` WHERE ("ck_code" ILIKE $1)`,
			wantArg:    "%A1%",
		},
		{
			name:       "qualified columns share one placeholder",
			query:      "widget",
			columns:    []string{"s.ck_code", "p.product_name"},
			wantClause: ` WHERE ("s"."ck_code" ILIKE $1 OR "p"."product_name" ILIKE $1)`,
			wantArg:    "%widget%",
		},
		{
			name:       "like wildcards escaped",
			query:      "50%_off",
			columns:    []string{"note"},
			wantClause: ` WHERE ("note" ILIKE $1)`,
			wantArg:    `%50\%\_off%`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddSearch(tt.query, tt.columns...)

			gotClause, gotArgs := wb.Build()
			if gotClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", gotClause, tt.wantClause)
			}
			if tt.wantArg != "" && (len(gotArgs) != 1 || gotArgs[0] != tt.wantArg) {
				t.Errorf("args = %v, want [%q]", gotArgs, tt.wantArg)
			}
		})
	}
}

func TestWhereBuilder_NextArgIndex(t *testing.T) {
	wb := NewWhereBuilder()

	if wb.NextArgIndex() != 1 {
		t.Errorf("expected initial NextArgIndex to be 1, got %d", wb.NextArgIndex())
	}

	wb.Add("col1", "val1")
	if wb.NextArgIndex() != 2 {
		t.Errorf("expected NextArgIndex after 1 add to be 2, got %d", wb.NextArgIndex())
	}

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	wb.AddDateRange("eta", &from, &to)
	if wb.NextArgIndex() != 4 {
		t.Errorf("expected NextArgIndex after date range to be 4, got %d", wb.NextArgIndex())
	}

	wb.AddSearch("x", "a", "b")
	if wb.NextArgIndex() != 5 {
		t.Errorf("expected NextArgIndex after search to be 5, got %d", wb.NextArgIndex())
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "name", want: `"name"`},
		{input: "s.ck_code", want: `"s"."ck_code"`},
		{input: `bad"name`, want: `"bad""name"`},
	}

	for _, tt := range tests {
		if got := quoteIdentifier(tt.input); got != tt.want {
			t.Errorf("quoteIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
