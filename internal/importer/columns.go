package importer

import "strconv"

// Slot is one numbered instance of a repeat group. Columns maps the group's
// member keys to physical column indexes.
type Slot struct {
	N       int            `json:"n"`
	Columns map[string]int `json:"columns"`
}

// ColumnMap binds logical fields and repeat-group slots to physical columns.
// It is immutable once resolved.
type ColumnMap struct {
	labels []string
	fields map[Field]int
	groups map[string][]Slot
}

// Index returns the column bound to f.
func (m *ColumnMap) Index(f Field) (int, bool) {
	i, ok := m.fields[f]
	return i, ok
}

// Label returns the normalized header label of the column bound to f.
func (m *ColumnMap) Label(f Field) string {
	i, ok := m.fields[f]
	if !ok {
		return ""
	}
	return m.labels[i]
}

// Unbound returns the non-empty header labels that no field or repeat-group
// slot claimed, in column order.
func (m *ColumnMap) Unbound() []string {
	used := make(map[int]bool, len(m.fields))
	for _, i := range m.fields {
		used[i] = true
	}
	for _, slots := range m.groups {
		for _, s := range slots {
			for _, i := range s.Columns {
				used[i] = true
			}
		}
	}
	var out []string
	for i, l := range m.labels {
		if l != "" && !used[i] {
			out = append(out, l)
		}
	}
	return out
}

// Slots returns the resolved slots of a repeat group in slot order.
func (m *ColumnMap) Slots(group string) []Slot {
	return m.groups[group]
}

// Bound returns a field-to-label view of the map, for previews and logs.
func (m *ColumnMap) Bound() map[Field]string {
	out := make(map[Field]string, len(m.fields))
	for f, i := range m.fields {
		out[f] = m.labels[i]
	}
	return out
}

// resolveColumns builds the ColumnMap for a header. Repeat-group slots claim
// their columns first; fields are then bound in table order to the first
// unclaimed label containing one of their synonyms and none of their exclude
// tokens; positional fields are bound last.
func resolveColumns(header []string, ft *FieldTable) *ColumnMap {
	m := &ColumnMap{
		labels: make([]string, len(header)),
		fields: make(map[Field]int),
		groups: make(map[string][]Slot),
	}
	keys := make([]string, len(header))
	for i, h := range header {
		m.labels[i] = NormalizeLabel(h)
		keys[i] = compact(h)
	}
	claimed := make([]bool, len(header))

	claimExact := func(target string) (int, bool) {
		for i, k := range keys {
			if !claimed[i] && k != "" && k == target {
				claimed[i] = true
				return i, true
			}
		}
		return 0, false
	}

	for _, g := range ft.Groups {
		for n := 1; n <= g.Slots; n++ {
			suffix := ""
			if n > 1 {
				suffix = strconv.Itoa(n)
			}
			slot := Slot{N: n, Columns: make(map[string]int)}
			for _, c := range g.Columns {
				for _, label := range c.Labels {
					if i, ok := claimExact(compact(label) + suffix); ok {
						slot.Columns[c.Key] = i
						break
					}
				}
			}
			if hasAnchor(slot, g.Anchors) {
				m.groups[g.Key] = append(m.groups[g.Key], slot)
			} else {
				for _, i := range slot.Columns {
					claimed[i] = false
				}
			}
		}
	}

	for _, f := range ft.Fields {
		if f.Follows != "" {
			continue
		}
		syn := compactAll(f.Synonyms)
		excl := compactAll(f.Exclude)
		for i, k := range keys {
			if claimed[i] || k == "" {
				continue
			}
			if containsAny(k, syn) && !containsAny(k, excl) {
				claimed[i] = true
				m.fields[f.Key] = i
				break
			}
		}
	}

	// Positional fields take the column after their anchor field, unless a
	// labelled field already claimed it.
	for _, f := range ft.Fields {
		if f.Follows == "" {
			continue
		}
		prev, ok := m.fields[f.Follows]
		if ok && prev+1 < len(keys) && !claimed[prev+1] {
			claimed[prev+1] = true
			m.fields[f.Key] = prev + 1
		}
	}
	return m
}

func hasAnchor(s Slot, anchors []string) bool {
	if len(anchors) == 0 {
		return len(s.Columns) > 0
	}
	for _, a := range anchors {
		if _, ok := s.Columns[a]; ok {
			return true
		}
	}
	return false
}
