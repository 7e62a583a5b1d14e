package importer

// convert.go turns raw spreadsheet cells into typed schedule values.
//
// Every converter here is total: unparseable input degrades to a zero value
// (0 for numbers, nil for dates, "" for text) and never returns an error.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/shipsched/internal/tabular"
	"github.com/xuri/excelize/v2"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

var (
	shortSlashDate = regexp.MustCompile(`^(\d{2})/(\d{1,2})/(\d{1,2})$`)
	isoDate        = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[ T].*)?$`)
	dotDate        = regexp.MustCompile(`^(\d{4})\s*\.\s*(\d{1,2})\s*\.\s*(\d{1,2})\.?$`)
	compactDate    = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	excelSerial    = regexp.MustCompile(`^\d{5}(\.\d+)?$`)
)

// genericLayouts are tried last, after the fixed patterns above.
var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006/1/2",
	"2006/01/02 15:04:05",
	"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
	"Jan 2, 2006", "2 Jan 2006", "02-Jan-2006", "2-Jan-06",
	"1/2/06", "01/02/06", "1-2-06", "01-02-06",
}

// currencyMarks are stripped from numeric cells.
var currencyMarks = strings.NewReplacer(
	",", "",
	" ", "",
	"\u00a0", "",
	"$", "",
	"€", "", // Euro
	"£", "", // Pound
	"¥", "", // Yen
	"₩", "", // Won
	"￦", "", // Fullwidth won
	"원", "",
)

// CleanCell removes spreadsheet artifacts from a text cell: surrounding
// whitespace, an Excel formula prefix (="...") and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// ParseNumber converts a cell to a float. Thousands separators, whitespace
// and currency marks are ignored and accounting parentheses mean negative.
// Anything else that does not parse yields 0.
func ParseNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}

	s := CleanCell(tabular.Text(v))
	if s == "" {
		return 0
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = currencyMarks.Replace(s)
	if !numericRegex.MatchString(s) {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if negative {
		f = -f
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseDate converts a cell to a calendar date. Formats are tried in order:
// a date value as-is, yy/mm/dd, yyyy-mm-dd, yyyy.mm.dd, yyyymmdd, then a
// best-effort pass over common layouts and Excel serial numbers. Nil means
// no date.
func ParseDate(v any) *time.Time {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return dateOnly(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return dateOnly(*x)
	case float64:
		return numericDate(x)
	case int:
		return numericDate(float64(x))
	case int64:
		return numericDate(float64(x))
	}

	s := CleanCell(tabular.Text(v))
	if s == "" {
		return nil
	}

	if m := shortSlashDate.FindStringSubmatch(s); m != nil {
		return ymd(expandYear(atoi(m[1])), atoi(m[2]), atoi(m[3]))
	}
	if m := isoDate.FindStringSubmatch(s); m != nil {
		return ymd(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := dotDate.FindStringSubmatch(s); m != nil {
		return ymd(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := compactDate.FindStringSubmatch(s); m != nil {
		return ymd(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	return bestEffortDate(s)
}

func bestEffortDate(s string) *time.Time {
	for _, layout := range genericLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if strings.Contains(layout, "06") && !strings.Contains(layout, "2006") {
			t = time.Date(expandYear(t.Year()%100), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return dateOnly(t)
	}
	if excelSerial.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return serialDate(f)
		}
	}
	return nil
}

// numericDate reads a number as yyyymmdd when it has that shape, otherwise
// as an Excel serial date.
func numericDate(f float64) *time.Time {
	if f >= 19000101 && f <= 29991231 && f == math.Trunc(f) {
		n := int(f)
		return ymd(n/10000, n/100%100, n%100)
	}
	return serialDate(f)
}

func serialDate(f float64) *time.Time {
	if f < 1 || f > 2958465 {
		return nil
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return nil
	}
	return dateOnly(t)
}

// expandYear applies the two-digit-year pivot relative to the current year.
func expandYear(yy int) int {
	year := 2000 + yy
	if year > time.Now().Year()+TwoDigitYearPivot {
		year -= 100
	}
	return year
}

// ymd builds a UTC date, rejecting components that would normalize into a
// different date (month 13, February 30, ...).
func ymd(y, m, d int) *time.Time {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return nil
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return nil
	}
	return &t
}

func dateOnly(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
