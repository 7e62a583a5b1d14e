package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Windows code page names for Korean that the WHATWG index does not list.
var encodingAliases = map[string]encoding.Encoding{
	"cp949": korean.EUCKR,
	"ms949": korean.EUCKR,
	"uhc":   korean.EUCKR,
}

// LookupEncoding resolves an encoding label: WHATWG names first, then the
// Windows Korean code page aliases.
func LookupEncoding(label string) (encoding.Encoding, error) {
	name := strings.ToLower(strings.TrimSpace(label))
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	if enc, ok := encodingAliases[name]; ok {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: unknown encoding %q", ErrEncoding, label)
}

// ReadCSV parses comma-separated text. The first record is the declared
// header; rows may have differing field counts.
func ReadCSV(data []byte, legacyEncoding string) (*RawTable, error) {
	text, enc, err := DecodeText(data, legacyEncoding)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyPayload
	}

	t := FromStrings(records, true)
	t.Encoding = enc
	return t, nil
}

// DecodeText returns data as UTF-8. Bytes that are already valid UTF-8 pass
// through with any BOM removed; otherwise the legacy encoding is tried once.
// The returned name is the encoding that was used.
func DecodeText(data []byte, legacyEncoding string) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, "utf-8", nil
	}

	if legacyEncoding == "" {
		legacyEncoding = DefaultLegacyEncoding
	}
	enc, err := LookupEncoding(legacyEncoding)
	if err != nil {
		return nil, "", err
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrEncoding, legacyEncoding, err)
	}
	if !utf8.Valid(out) {
		return nil, "", fmt.Errorf("%w: payload is neither utf-8 nor %s", ErrEncoding, legacyEncoding)
	}
	return out, legacyEncoding, nil
}
