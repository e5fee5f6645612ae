package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/caiovls/merch-admin/internal/postgres"
)

var ErrNotFound = errors.New("catalog: not found")

type Repo struct{ Q postgres.Querier }

func (r *Repo) ListActiveProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.Q.Query(ctx, `
		SELECT id, json_key, name, price_cents, cost_cents, active, display_order, created_at, updated_at
		FROM products WHERE active ORDER BY display_order, json_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.JSONKey, &p.Name, &p.PriceCents, &p.CostCents,
			&p.Active, &p.DisplayOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) VariantsByProduct(ctx context.Context, productID int64) ([]SizeVariant, error) {
	rows, err := r.Q.Query(ctx, `
		SELECT id, product_id, size, quantity, available
		FROM product_sizes WHERE product_id=$1
		ORDER BY array_position(ARRAY['P','M','G','GG'], size), size`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SizeVariant
	for rows.Next() {
		var v SizeVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Quantity, &v.Available); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ResolveVariant looks a variant up by the legacy scalar pair
// (product json_key, size label).
func (r *Repo) ResolveVariant(ctx context.Context, productKey, size string) (*SizeVariant, error) {
	var v SizeVariant
	err := r.Q.QueryRow(ctx, `
		SELECT ps.id, ps.product_id, ps.size, ps.quantity, ps.available
		FROM product_sizes ps JOIN products p ON p.id = ps.product_id
		WHERE p.json_key=$1 AND ps.size=$2`, productKey, size).
		Scan(&v.ID, &v.ProductID, &v.Size, &v.Quantity, &v.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repo) VariantRefs(ctx context.Context) ([]VariantRef, error) {
	rows, err := r.Q.Query(ctx, `
		SELECT ps.id, ps.product_id, ps.size, ps.quantity, ps.available, p.json_key, p.name
		FROM product_sizes ps JOIN products p ON p.id = ps.product_id
		ORDER BY p.display_order, p.json_key, array_position(ARRAY['P','M','G','GG'], ps.size)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VariantRef
	for rows.Next() {
		var ref VariantRef
		if err := rows.Scan(&ref.Variant.ID, &ref.Variant.ProductID, &ref.Variant.Size,
			&ref.Variant.Quantity, &ref.Variant.Available, &ref.ProductKey, &ref.ProductName); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}
