package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/JonMunkholm/shipsched/internal/tabular"
)

var errCatalogNoName = errors.New("catalog has no name column")

// loadCatalog reads a product catalog from a CSV or XLSX file with a header
// row naming id, name and code columns. Only name is required; rows without
// an id column are numbered from 1.
func loadCatalog(path string) ([]schedule.ProductRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	t, err := tabular.Read(filepath.Base(path), data, tabular.Options{})
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return parseCatalog(t)
}

func parseCatalog(t *tabular.RawTable) ([]schedule.ProductRef, error) {
	idCol, nameCol, codeCol := -1, -1, -1
	for i, label := range t.Columns {
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "id", "product_id":
			idCol = i
		case "name", "product", "product_name":
			nameCol = i
		case "code", "product_code":
			codeCol = i
		}
	}
	if nameCol < 0 {
		return nil, errCatalogNoName
	}

	products := make([]schedule.ProductRef, 0, len(t.Rows))
	for i := range t.Rows {
		name := strings.TrimSpace(tabular.Text(t.Cell(i, nameCol)))
		if name == "" {
			continue
		}
		p := schedule.ProductRef{ID: int64(i + 1), Name: name}
		if idCol >= 0 {
			raw := strings.TrimSpace(tabular.Text(t.Cell(i, idCol)))
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				// Data rows start on line 2, after the header.
				return nil, fmt.Errorf("catalog line %d: invalid id %q", i+2, raw)
			}
			p.ID = id
		}
		if codeCol >= 0 {
			p.Code = strings.TrimSpace(tabular.Text(t.Cell(i, codeCol)))
		}
		products = append(products, p)
	}
	return products, nil
}
