package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/shipsched/internal/schedule"
	"github.com/jackc/pgx/v5"
)

// ListActive returns active catalog products ordered by name.
func (s *Store) ListActive(ctx context.Context) ([]schedule.ProductRef, error) {
	rows, err := s.db.Query(ctx, `SELECT product_id, product_name, product_code
		FROM products WHERE is_active ORDER BY product_name, product_id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]schedule.ProductRef, 0)
	for rows.Next() {
		var p schedule.ProductRef
		if err := rows.Scan(&p.ID, &p.Name, &p.Code); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Lookup finds an active product by normalized name (whitespace removed,
// lowercased). The lowest id wins when names collide.
func (s *Store) Lookup(ctx context.Context, normalizedName string) (schedule.ProductRef, bool, error) {
	var p schedule.ProductRef
	err := s.db.QueryRow(ctx, `SELECT product_id, product_name, product_code
		FROM products
		WHERE is_active AND lower(regexp_replace(product_name, '\s', '', 'g')) = $1
		ORDER BY product_id LIMIT 1`, normalizedName).Scan(&p.ID, &p.Name, &p.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.ProductRef{}, false, nil
		}
		return schedule.ProductRef{}, false, fmt.Errorf("lookup product: %w", err)
	}
	return p, true, nil
}

// GetProduct returns a product by id, active or not.
func (s *Store) GetProduct(ctx context.Context, id int64) (schedule.ProductRef, error) {
	var p schedule.ProductRef
	err := s.db.QueryRow(ctx, `SELECT product_id, product_name, product_code
		FROM products WHERE product_id = $1`, id).Scan(&p.ID, &p.Name, &p.Code)
	if err != nil {
		return schedule.ProductRef{}, notFound(err, "product", id)
	}
	return p, nil
}

// CreateProduct adds an active product and returns it with its id.
func (s *Store) CreateProduct(ctx context.Context, name, code string) (schedule.ProductRef, error) {
	p := schedule.ProductRef{Name: name, Code: code}
	err := s.db.QueryRow(ctx, `INSERT INTO products (product_name, product_code)
		VALUES ($1, $2) RETURNING product_id`, name, code).Scan(&p.ID)
	if err != nil {
		return schedule.ProductRef{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}
