package reconcile

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caiovls/merch-admin/internal/catalog"
	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/stock"
)

// PgStore implements Store over Postgres. Outside a transaction it runs on
// the pool; Transact produces a tx-bound copy.
type PgStore struct {
	stock.PgStore
	pool *pgxpool.Pool
}

var _ Store = (*PgStore)(nil)

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{PgStore: stock.PgStore{Q: pool}, pool: pool}
}

const orderColumns = `
	id, buyer_id, external_reference,
	COALESCE(payment_id,''), COALESCE(preference_id,''), COALESCE(merchant_order_id,''),
	payment_method, payment_status, stock_decremented,
	product_size_id, COALESCE(product_key,''), COALESCE(size,''),
	price_cents, COALESCE(notes,''), created_at, updated_at`

func scanOrder(row pgx.Row) (orders.Order, error) {
	var o orders.Order
	err := row.Scan(&o.ID, &o.BuyerID, &o.ExternalReference,
		&o.PaymentID, &o.PreferenceID, &o.MerchantOrderID,
		&o.PaymentMethod, &o.PaymentStatus, &o.StockDecremented,
		&o.VariantID, &o.ProductKey, &o.Size,
		&o.PriceCents, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (s *PgStore) queryOrders(ctx context.Context, sql string, args ...any) ([]orders.Order, error) {
	rows, err := s.Q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PgStore) CandidateOrders(ctx context.Context, since time.Time, reprocess bool) ([]orders.Order, error) {
	return s.queryOrders(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE (payment_status='approved' OR payment_method='in_person')
		  AND (NOT stock_decremented OR $2)
		  AND created_at >= $1
		ORDER BY created_at, id`, since, reprocess)
}

func (s *PgStore) LinesByOrder(ctx context.Context, orderID string) ([]orders.OrderLine, error) {
	rows, err := s.Q.Query(ctx, `
		SELECT id, order_id, product_key, size, quantity, unit_price_cents, product_size_id
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.OrderLine
	for rows.Next() {
		var ln orders.OrderLine
		if err := rows.Scan(&ln.ID, &ln.OrderID, &ln.ProductKey, &ln.Size,
			&ln.Quantity, &ln.UnitPriceCents, &ln.VariantID); err != nil {
			return nil, err
		}
		out = append(out, ln)
	}
	return out, rows.Err()
}

func (s *PgStore) ResolveVariant(ctx context.Context, productKey, size string) (*catalog.SizeVariant, error) {
	cat := catalog.Repo{Q: s.Q}
	return cat.ResolveVariant(ctx, productKey, size)
}

func (s *PgStore) VariantRefs(ctx context.Context) ([]catalog.VariantRef, error) {
	cat := catalog.Repo{Q: s.Q}
	return cat.VariantRefs(ctx)
}

func (s *PgStore) MarkDecremented(ctx context.Context, orderID string) error {
	_, err := s.Q.Exec(ctx, `
		UPDATE orders SET stock_decremented=true, updated_at=now() WHERE id=$1`, orderID)
	return err
}

func (s *PgStore) ClearDecremented(ctx context.Context) (int64, error) {
	ct, err := s.Q.Exec(ctx, `
		UPDATE orders SET stock_decremented=false, updated_at=now() WHERE stock_decremented`)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (s *PgStore) CountDecremented(ctx context.Context) (int64, error) {
	var n int64
	err := s.Q.QueryRow(ctx, `SELECT count(*) FROM orders WHERE stock_decremented`).Scan(&n)
	return n, err
}

func (s *PgStore) UnassociatedLegacyOrders(ctx context.Context) ([]orders.Order, error) {
	return s.queryOrders(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE product_size_id IS NULL
		  AND COALESCE(product_key,'') <> ''
		  AND NOT EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id)
		ORDER BY created_at, id`)
}

func (s *PgStore) SetOrderVariant(ctx context.Context, orderID string, variantID int64) error {
	_, err := s.Q.Exec(ctx, `
		UPDATE orders SET product_size_id=$2, updated_at=now() WHERE id=$1`, orderID, variantID)
	return err
}

func (s *PgStore) UnassociatedLines(ctx context.Context) ([]orders.OrderLine, error) {
	rows, err := s.Q.Query(ctx, `
		SELECT id, order_id, product_key, size, quantity, unit_price_cents, product_size_id
		FROM order_items WHERE product_size_id IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.OrderLine
	for rows.Next() {
		var ln orders.OrderLine
		if err := rows.Scan(&ln.ID, &ln.OrderID, &ln.ProductKey, &ln.Size,
			&ln.Quantity, &ln.UnitPriceCents, &ln.VariantID); err != nil {
			return nil, err
		}
		out = append(out, ln)
	}
	return out, rows.Err()
}

func (s *PgStore) SetLineVariant(ctx context.Context, lineID, variantID int64) error {
	_, err := s.Q.Exec(ctx, `
		UPDATE order_items SET product_size_id=$2 WHERE id=$1`, lineID, variantID)
	return err
}

func (s *PgStore) Transact(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// already inside a transaction
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inner := &PgStore{PgStore: stock.PgStore{Q: tx}}
	if err := fn(inner); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
