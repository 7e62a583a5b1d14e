package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/shipsched/internal/core"
	"github.com/JonMunkholm/shipsched/internal/importer"
	"github.com/JonMunkholm/shipsched/internal/tabular"
)

const (
	catalogCSV = "id,name,code\n" +
		"1,Widget,W-1\n" +
		"2,Gadget,G-2\n"

	scheduleCSV = "관리번호,품명,수량,단가,ETA\n" +
		"CK-1,Widget,10,2.5,2025-03-01\n" +
		"CK-2,Gizmo,5,1,2025-03-02\n" +
		",,,,\n" +
		"CK-3,Gadget,7,,25/03/09\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheck_Text(t *testing.T) {
	dir := t.TempDir()
	catalog := writeFile(t, dir, "products.csv", catalogCSV)
	file := writeFile(t, dir, "schedule.csv", scheduleCSV)

	out, err := execute(t, "check", file, "--catalog", catalog)
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	for _, want := range []string{"schedule.csv", "CK-1", "Widget", "CK-3", "2025-03-09", "[unknown_product]", "Gizmo"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Error:") {
		t.Errorf("unexpected error line:\n%s", out)
	}
	if strings.Contains(out, "Unbound columns:") {
		t.Errorf("every column is bound:\n%s", out)
	}
}

func TestCheck_UnboundColumns(t *testing.T) {
	dir := t.TempDir()
	catalog := writeFile(t, dir, "products.csv", catalogCSV)
	file := writeFile(t, dir, "schedule.csv", "CK,품명,수량,Memo,입고예정일\nCK-1,Widget,10,x,2025-03-01\n")

	out, err := execute(t, "check", file, "--catalog", catalog, "--json")
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	var got core.Preview
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(got.Unbound) != 1 || got.Unbound[0] != "MEMO" {
		t.Errorf("unbound = %q, want [MEMO]", got.Unbound)
	}
	if got.Columns[importer.FieldETA] != "입고예정일" {
		t.Errorf("eta column = %q, want 입고예정일", got.Columns[importer.FieldETA])
	}

	text, err := execute(t, "check", file, "--catalog", catalog)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(text, "Unbound columns:") || !strings.Contains(text, "MEMO") {
		t.Errorf("text output missing unbound columns:\n%s", text)
	}
}

func TestCheck_JSON(t *testing.T) {
	dir := t.TempDir()
	catalog := writeFile(t, dir, "products.csv", catalogCSV)
	file := writeFile(t, dir, "schedule.csv", scheduleCSV)

	out, err := execute(t, "check", file, "--catalog", catalog, "--json")
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	var got core.Preview
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(got.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(got.Records))
	}
	if got.Records[1].Product.ID != 2 || got.Records[1].Product.Code != "G-2" {
		t.Errorf("product = %+v, want Gadget from the catalog", got.Records[1].Product)
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].Kind != importer.KindUnknownProduct {
		t.Errorf("diagnostics = %+v", got.Diagnostics)
	}
	if got.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", got.Skipped)
	}
	if got.Encoding != "utf-8" {
		t.Errorf("encoding = %q", got.Encoding)
	}
}

func TestCheck_HeaderNotFound(t *testing.T) {
	dir := t.TempDir()
	catalog := writeFile(t, dir, "products.csv", catalogCSV)
	file := writeFile(t, dir, "notes.csv", "a,b\n1,2\n")

	out, err := execute(t, "check", file, "--catalog", catalog)
	if !errors.Is(err, importer.ErrHeaderNotFound) {
		t.Fatalf("err = %v, want ErrHeaderNotFound", err)
	}
	if !strings.Contains(out, "Error:") {
		t.Errorf("summary should still be printed:\n%s", out)
	}
}

func TestCheck_Errors(t *testing.T) {
	dir := t.TempDir()
	catalog := writeFile(t, dir, "products.csv", catalogCSV)
	file := writeFile(t, dir, "schedule.csv", scheduleCSV)
	badFields := writeFile(t, dir, "fields.yaml", "fields: [")

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing catalog flag", args: []string{"check", file}},
		{name: "missing file arg", args: []string{"check", "--catalog", catalog}},
		{name: "catalog not found", args: []string{"check", file, "--catalog", filepath.Join(dir, "nope.csv")}},
		{name: "schedule not found", args: []string{"check", filepath.Join(dir, "nope.csv"), "--catalog", catalog}},
		{name: "invalid field table", args: []string{"check", file, "--catalog", catalog, "--fields", badFields}},
		{name: "unknown encoding", args: []string{"check", writeFile(t, dir, "legacy.csv", "\xb0\xfc,x\n"), "--catalog", catalog, "--encoding", "klingon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name      string
		records   [][]string
		wantIDs   []int64
		wantCodes []string
		wantErr   bool
	}{
		{
			name:      "id name code",
			records:   [][]string{{"ID", "Name", "Code"}, {"7", "Widget", "W"}, {"9", " Gadget ", ""}},
			wantIDs:   []int64{7, 9},
			wantCodes: []string{"W", ""},
		},
		{
			name:    "no id column numbers rows",
			records: [][]string{{"product_name"}, {"Widget"}, {""}, {"Gadget"}},
			wantIDs: []int64{1, 3},
		},
		{
			name:    "no name column",
			records: [][]string{{"id", "code"}, {"1", "W"}},
			wantErr: true,
		},
		{
			name:    "invalid id",
			records: [][]string{{"id", "name"}, {"x", "Widget"}},
			wantErr: true,
		},
		{
			name:    "zero id",
			records: [][]string{{"id", "name"}, {"0", "Widget"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := parseCatalog(tabular.FromStrings(tt.records, true))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCatalog: %v", err)
			}
			if len(products) != len(tt.wantIDs) {
				t.Fatalf("products = %+v", products)
			}
			for i, p := range products {
				if p.ID != tt.wantIDs[i] {
					t.Errorf("products[%d].ID = %d, want %d", i, p.ID, tt.wantIDs[i])
				}
				if strings.TrimSpace(p.Name) != p.Name {
					t.Errorf("products[%d].Name = %q not trimmed", i, p.Name)
				}
				if tt.wantCodes != nil && p.Code != tt.wantCodes[i] {
					t.Errorf("products[%d].Code = %q, want %q", i, p.Code, tt.wantCodes[i])
				}
			}
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "Version:    "+Version) {
		t.Errorf("output = %q", out)
	}
}
