package reconcile

import (
	"context"
	"time"

	"github.com/caiovls/merch-admin/internal/catalog"
	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/stock"
)

// Store is everything the reconciliation engine needs from persistence. The
// Postgres implementation is PgStore; dry-run wraps any Store in a shadow
// that buffers writes in memory.
type Store interface {
	stock.Store

	// CandidateOrders returns orders eligible for stock processing: approved
	// or in-person, created at/after since, and not yet decremented unless
	// reprocess is set.
	CandidateOrders(ctx context.Context, since time.Time, reprocess bool) ([]orders.Order, error)
	LinesByOrder(ctx context.Context, orderID string) ([]orders.OrderLine, error)

	ResolveVariant(ctx context.Context, productKey, size string) (*catalog.SizeVariant, error)
	VariantRefs(ctx context.Context) ([]catalog.VariantRef, error)

	MarkDecremented(ctx context.Context, orderID string) error
	ClearDecremented(ctx context.Context) (int64, error)
	CountDecremented(ctx context.Context) (int64, error)

	// Legacy association backfill.
	UnassociatedLegacyOrders(ctx context.Context) ([]orders.Order, error)
	SetOrderVariant(ctx context.Context, orderID string, variantID int64) error
	UnassociatedLines(ctx context.Context) ([]orders.OrderLine, error)
	SetLineVariant(ctx context.Context, lineID, variantID int64) error

	// Transact runs fn atomically. The engine opens one transaction per
	// order, so a late failure loses only the order in flight.
	Transact(ctx context.Context, fn func(Store) error) error
}
