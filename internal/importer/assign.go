package importer

import (
	"fmt"
	"sort"

	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/tabular"
)

// Assign sets schedule fields from a keyed record, typing each value the way
// an import types a cell. Keys are field keys ("ck_code", "eta", ...);
// "clearances" and "declarations" take lists of keyed entries. Product and
// status are not assignable here.
func Assign(s *schedule.Schedule, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := values[key]
		f := Field(key)

		if bind, ok := textFields[f]; ok {
			*bind(s) = CleanCell(tabular.Text(v))
			continue
		}
		if bind, ok := numberFields[f]; ok {
			*bind(s) = ParseNumber(v)
			continue
		}
		if bind, ok := dateFields[f]; ok {
			*bind(s) = ParseDate(v)
			continue
		}

		switch key {
		case "clearances":
			entries, err := groupEntries(key, v)
			if err != nil {
				return err
			}
			s.Clearances = s.Clearances[:0]
			for _, e := range entries {
				s.Clearances = append(s.Clearances, schedule.Clearance{
					Date:     ParseDate(e["date"]),
					Quantity: ParseNumber(e["quantity"]),
					Rate:     ParseNumber(e["rate"]),
				})
			}
		case "declarations":
			entries, err := groupEntries(key, v)
			if err != nil {
				return err
			}
			s.Declarations = s.Declarations[:0]
			for _, e := range entries {
				s.Declarations = append(s.Declarations, schedule.Declaration{
					Date:   ParseDate(e["date"]),
					Number: CleanCell(tabular.Text(e["number"])),
				})
			}
		default:
			return fmt.Errorf("unknown field %q", key)
		}
	}
	return nil
}

func groupEntries(key string, v any) ([]map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q: expected a list", key)
	}
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: entry %d is not an object", key, i+1)
		}
		out = append(out, m)
	}
	return out, nil
}
