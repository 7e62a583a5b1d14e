package importer

import "github.com/JonMunkholm/shipsched/internal/schedule"

// ProductLookup resolves a normalized product name to a catalog product.
type ProductLookup interface {
	Lookup(normalizedName string) (schedule.ProductRef, bool)
}

// NameIndex is an in-memory catalog snapshot keyed by normalized name.
type NameIndex map[string]schedule.ProductRef

// NewNameIndex indexes products by NormalizeName. When two products share a
// normalized name the first one wins.
func NewNameIndex(products []schedule.ProductRef) NameIndex {
	idx := make(NameIndex, len(products))
	for _, p := range products {
		key := NormalizeName(p.Name)
		if key == "" {
			continue
		}
		if _, exists := idx[key]; !exists {
			idx[key] = p
		}
	}
	return idx
}

// Lookup implements ProductLookup.
func (idx NameIndex) Lookup(normalizedName string) (schedule.ProductRef, bool) {
	p, ok := idx[normalizedName]
	return p, ok
}
