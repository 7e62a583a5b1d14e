package importer

import (
	"errors"
	"fmt"
)

// ErrHeaderNotFound is the structural failure: no header row was found in
// the scanned window.
var ErrHeaderNotFound = errors.New("header row not found")

// DiagnosticKind classifies a diagnostic.
type DiagnosticKind string

const (
	KindHeaderNotFound DiagnosticKind = "header_not_found"
	KindUnknownProduct DiagnosticKind = "unknown_product"
	KindParseError     DiagnosticKind = "parse_error"
)

// Diagnostic is a per-row problem report. Row is the 1-based position of the
// row in the table body, so rows after a located header keep the header's
// offset; it is 0 for structural failures.
type Diagnostic struct {
	Row     int            `json:"row"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	CKCode  string         `json:"ck_code,omitempty"`
	Product string         `json:"product,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Row == 0 {
		return d.Message
	}
	return fmt.Sprintf("row %d: %s", d.Row, d.Message)
}

func unknownProduct(row int, name, ck string) Diagnostic {
	msg := fmt.Sprintf("unknown product %q", name)
	if ck != "" {
		msg = fmt.Sprintf("unknown product %q (CK %s)", name, ck)
	}
	return Diagnostic{Row: row, Kind: KindUnknownProduct, Message: msg, CKCode: ck, Product: name}
}

func parseError(row int, ck, name string, err error) Diagnostic {
	return Diagnostic{
		Row:     row,
		Kind:    KindParseError,
		Message: fmt.Sprintf("parse error: %v", err),
		CKCode:  ck,
		Product: name,
	}
}

func headerNotFound(scanned int) Diagnostic {
	return Diagnostic{
		Kind:    KindHeaderNotFound,
		Message: fmt.Sprintf("%v: no row in the first %d has a CK/관리번호 and 품명 column", ErrHeaderNotFound, scanned),
	}
}
