package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/caiovls/merch-admin/internal/catalog"
	"github.com/caiovls/merch-admin/internal/postgres"
)

var ErrVariantNotFound = errors.New("stock: variant not found")

// PgStore implements Store over a pool or transaction.
type PgStore struct{ Q postgres.Querier }

var _ Store = (*PgStore)(nil)

func (s *PgStore) Variant(ctx context.Context, id int64) (*catalog.SizeVariant, error) {
	var v catalog.SizeVariant
	err := s.Q.QueryRow(ctx, `
		SELECT id, product_id, size, quantity, available
		FROM product_sizes WHERE id=$1`, id).
		Scan(&v.ID, &v.ProductID, &v.Size, &v.Quantity, &v.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PgStore) SaveVariant(ctx context.Context, v *catalog.SizeVariant) error {
	ct, err := s.Q.Exec(ctx, `
		UPDATE product_sizes SET quantity=$2, available=$3 WHERE id=$1`,
		v.ID, v.Quantity, v.Available)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrVariantNotFound
	}
	return nil
}

func (s *PgStore) AppendMovement(ctx context.Context, m *Movement) error {
	return s.Q.QueryRow(ctx, `
		INSERT INTO stock_movements
			(product_size_id, kind, quantity, quantity_before, quantity_after, order_id, actor, origin, note)
		VALUES ($1,$2,$3,$4,$5, NULLIF($6,'')::uuid, $7,$8,$9)
		RETURNING id, created_at`,
		m.VariantID, m.Kind, m.Quantity, m.QuantityBefore, m.QuantityAfter,
		m.OrderID, m.Actor, m.Origin, m.Note).
		Scan(&m.ID, &m.CreatedAt)
}

// MovementFilter narrows ListMovements; zero values mean "any".
type MovementFilter struct {
	VariantID int64
	OrderID   string
	Kind      Kind
	Limit     int
}

// ListMovements returns ledger rows oldest first, suitable for Audit.
func (s *PgStore) ListMovements(ctx context.Context, f MovementFilter) ([]Movement, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.Q.Query(ctx, `
		SELECT id, product_size_id, kind, quantity, quantity_before, quantity_after,
		       COALESCE(order_id::text, ''), actor, origin, note, created_at
		FROM stock_movements
		WHERE ($1 = 0 OR product_size_id = $1)
		  AND ($2 = '' OR order_id = NULLIF($2,'')::uuid)
		  AND ($3 = '' OR kind = $3)
		ORDER BY id
		LIMIT $4`, f.VariantID, f.OrderID, string(f.Kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.VariantID, &m.Kind, &m.Quantity, &m.QuantityBefore,
			&m.QuantityAfter, &m.OrderID, &m.Actor, &m.Origin, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
