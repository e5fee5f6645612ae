package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("orders: not found")

type ItemInput struct {
	ProductKey string `json:"product_key"`
	Size       string `json:"size"`
	Qty        int    `json:"qty"`
}

type Repo struct{ DB *pgxpool.Pool }

// CreateOrder is idempotent via external_reference: if the reference already
// exists the stored order id and total are returned (existed=true). Prices
// come from the products table, never from the client; each item is linked to
// its variant at creation so the reconciliation pass never needs legacy
// resolution for new orders.
func (r *Repo) CreateOrder(ctx context.Context, externalRef string, buyerID int64, method PaymentMethod, items []ItemInput) (orderID string, total int, existed bool, err error) {
	row := r.DB.QueryRow(ctx, `SELECT id, price_cents FROM orders WHERE external_reference=$1`, externalRef)
	if err = row.Scan(&orderID, &total); err == nil {
		return orderID, total, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", 0, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	type resolved struct {
		variantID int64
		price     int
	}
	byItem := make(map[string]resolved, len(items))
	for _, it := range items {
		if it.Qty <= 0 {
			return "", 0, false, fmt.Errorf("invalid qty for %s (%s)", it.ProductKey, it.Size)
		}
		var rv resolved
		err := tx.QueryRow(ctx, `
			SELECT ps.id, p.price_cents
			FROM product_sizes ps JOIN products p ON p.id = ps.product_id
			WHERE p.json_key=$1 AND ps.size=$2`, it.ProductKey, it.Size).
			Scan(&rv.variantID, &rv.price)
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, false, fmt.Errorf("product not found: %s (%s)", it.ProductKey, it.Size)
		}
		if err != nil {
			return "", 0, false, err
		}
		byItem[it.ProductKey+"/"+it.Size] = rv
		total += rv.price * it.Qty
	}

	orderID = uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, buyer_id, external_reference, payment_method, payment_status, price_cents)
		VALUES ($1, $2, $3, $4, 'pending', $5)`,
		orderID, buyerID, externalRef, method, total)
	if err != nil {
		return "", 0, false, err
	}

	for _, it := range items {
		rv := byItem[it.ProductKey+"/"+it.Size]
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_key, size, quantity, unit_price_cents, product_size_id)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			orderID, it.ProductKey, it.Size, it.Qty, rv.price, rv.variantID)
		if err != nil {
			return "", 0, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", 0, false, err
	}
	return orderID, total, false, nil
}

// CreateSimpleOrder creates a single-variant order (the direct-reference
// path), also idempotent via external_reference.
func (r *Repo) CreateSimpleOrder(ctx context.Context, externalRef string, buyerID int64, method PaymentMethod, productKey, size string) (orderID string, total int, existed bool, err error) {
	row := r.DB.QueryRow(ctx, `SELECT id, price_cents FROM orders WHERE external_reference=$1`, externalRef)
	if err = row.Scan(&orderID, &total); err == nil {
		return orderID, total, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", 0, false, err
	}

	var variantID int64
	err = r.DB.QueryRow(ctx, `
		SELECT ps.id, p.price_cents
		FROM product_sizes ps JOIN products p ON p.id = ps.product_id
		WHERE p.json_key=$1 AND ps.size=$2`, productKey, size).
		Scan(&variantID, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, false, fmt.Errorf("product not found: %s (%s)", productKey, size)
	}
	if err != nil {
		return "", 0, false, err
	}

	orderID = uuid.NewString()
	_, err = r.DB.Exec(ctx, `
		INSERT INTO orders(id, buyer_id, external_reference, payment_method, payment_status,
		                   product_size_id, product_key, size, price_cents)
		VALUES ($1,$2,$3,$4,'pending',$5,$6,$7,$8)`,
		orderID, buyerID, externalRef, method, variantID, productKey, size, total)
	if err != nil {
		return "", 0, false, err
	}
	return orderID, total, false, nil
}

func (r *Repo) EnsureBuyer(ctx context.Context, name, email, phone string) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO buyers(name, email, phone) VALUES ($1,$2,$3)
		ON CONFLICT (email) DO UPDATE SET name=EXCLUDED.name, phone=EXCLUDED.phone
		RETURNING id`, name, email, phone).Scan(&id)
	return id, err
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, buyer_id, external_reference,
		       COALESCE(payment_id,''), COALESCE(preference_id,''), COALESCE(merchant_order_id,''),
		       payment_method, payment_status, stock_decremented,
		       product_size_id, COALESCE(product_key,''), COALESCE(size,''),
		       price_cents, COALESCE(notes,''), created_at, updated_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.BuyerID, &o.ExternalReference,
			&o.PaymentID, &o.PreferenceID, &o.MerchantOrderID,
			&o.PaymentMethod, &o.PaymentStatus, &o.StockDecremented,
			&o.VariantID, &o.ProductKey, &o.Size,
			&o.PriceCents, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ApplyPaymentUpdate records the provider references and status reported for
// an order, addressed by external_reference. The stock_decremented flag is
// never touched here; that belongs to the reconciliation pass alone.
func (r *Repo) ApplyPaymentUpdate(ctx context.Context, externalRef string, status PaymentStatus, paymentID, merchantOrderID string) (string, error) {
	var orderID string
	err := r.DB.QueryRow(ctx, `
		UPDATE orders
		SET payment_status=$2,
		    payment_id=COALESCE(NULLIF($3,''), payment_id),
		    merchant_order_id=COALESCE(NULLIF($4,''), merchant_order_id),
		    updated_at=now()
		WHERE external_reference=$1
		RETURNING id`, externalRef, status, paymentID, merchantOrderID).
		Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return orderID, err
}
