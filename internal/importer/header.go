package importer

import (
	"strings"

	"github.com/JonMunkholm/shipsched/internal/tabular"
)

// headerKeywords is the compiled form of HeaderSpec.
type headerKeywords struct {
	keywords   []string
	requireAny []string
	requireAll []string
	minScore   int
}

func compileHeader(h HeaderSpec) headerKeywords {
	minScore := h.MinScore
	if minScore <= 0 {
		minScore = 2
	}
	return headerKeywords{
		keywords:   compactAll(h.Keywords),
		requireAny: compactAll(h.RequireAny),
		requireAll: compactAll(h.RequireAll),
		minScore:   minScore,
	}
}

// score counts the distinct keywords found in the search string.
func (k headerKeywords) score(search string) int {
	n := 0
	for _, kw := range k.keywords {
		if strings.Contains(search, kw) {
			n++
		}
	}
	return n
}

// hasMandatory reports whether search contains one of requireAny and all of
// requireAll.
func (k headerKeywords) hasMandatory(search string) bool {
	if len(k.requireAny) > 0 && !containsAny(search, k.requireAny) {
		return false
	}
	for _, kw := range k.requireAll {
		if !strings.Contains(search, kw) {
			return false
		}
	}
	return true
}

// qualifies returns the score of search and whether it is a header.
func (k headerKeywords) qualifies(search string) (int, bool) {
	s := k.score(search)
	return s, s >= k.minScore && k.hasMandatory(search)
}

// searchString concatenates the non-empty cells of a row in compact form.
func searchString(cells []string) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(compact(c))
	}
	return b.String()
}

// headerMatch is the outcome of header location.
type headerMatch struct {
	// Row is the index into RawTable.Rows of the header, or -1 when the
	// table's declared columns are the header.
	Row    int
	Labels []string
	Score  int
}

// dataStart is the index of the first data row.
func (m headerMatch) dataStart() int {
	return m.Row + 1
}

// locateHeader finds the header of t. The declared columns win when they
// qualify; otherwise the first scanRows rows are scored and the highest
// qualifying row is chosen, earliest on ties.
func locateHeader(t *tabular.RawTable, k headerKeywords, scanRows int) (headerMatch, bool) {
	if len(t.Columns) > 0 {
		if s, ok := k.qualifies(searchString(t.Columns)); ok {
			return headerMatch{Row: -1, Labels: t.Columns, Score: s}, true
		}
	}

	best := headerMatch{Row: -1}
	found := false
	limit := min(scanRows, len(t.Rows))
	for i := 0; i < limit; i++ {
		cells := rowText(t.Rows[i])
		s, ok := k.qualifies(searchString(cells))
		if !ok {
			continue
		}
		if !found || s > best.Score {
			best = headerMatch{Row: i, Labels: cells, Score: s}
			found = true
		}
	}
	return best, found
}

func rowText(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = tabular.Text(v)
	}
	return out
}
