package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/stock"
)

var testNow = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

func testOpts() Options {
	return Options{now: func() time.Time { return testNow }}
}

func int64p(v int64) *int64 { return &v }

func approvedOrder(id string, variantID *int64) orders.Order {
	return orders.Order{
		ID:            id,
		PaymentStatus: orders.StatusApproved,
		VariantID:     variantID,
		CreatedAt:     testNow.Add(-48 * time.Hour),
	}
}

func TestRunSimpleOrder(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 10)
	st.addOrder(approvedOrder("ord-1", int64p(11)))

	eng := &Engine{Store: st}
	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Candidates)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.ByShape[orders.ShapeSimple])

	assert.Equal(t, 9, st.variants[11].Quantity)
	assert.True(t, st.orders["ord-1"].StockDecremented)

	require.Len(t, st.movements, 1)
	m := st.movements[0]
	assert.Equal(t, stock.KindExit, m.Kind)
	assert.Equal(t, -1, m.Quantity)
	assert.Equal(t, "ord-1", m.OrderID)
	assert.Equal(t, "system", m.Actor)
	assert.Equal(t, "stocksync", m.Origin)
}

func TestRunIsIdempotent(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 10)
	st.addOrder(approvedOrder("ord-1", int64p(11)))

	eng := &Engine{Store: st}
	_, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Candidates)
	assert.Equal(t, 9, st.variants[11].Quantity)
	assert.Len(t, st.movements, 1)
}

func TestRunReprocess(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 10)
	st.addOrder(approvedOrder("ord-1", int64p(11)))

	eng := &Engine{Store: st}
	_, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	opts := testOpts()
	opts.Reprocess = true
	sum, err := eng.Run(context.Background(), opts)
	require.NoError(t, err)

	// reprocess deliberately decrements again
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 8, st.variants[11].Quantity)
}

func TestRunLegacyOrder(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-marrom", "Camiseta Marrom", "GG", 8)
	o := approvedOrder("ord-1", nil)
	o.ProductKey = "camiseta-marrom"
	o.Size = "GG"
	st.addOrder(o)

	eng := &Engine{Store: st}
	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.ByShape[orders.ShapeLegacy])
	assert.Equal(t, 7, st.variants[11].Quantity)
}

func TestRunUnresolvedLegacySkipped(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-marrom", "Camiseta Marrom", "GG", 8)
	o := approvedOrder("ord-1", nil)
	o.ProductKey = "produto-desconhecido"
	o.Size = "M"
	st.addOrder(o)

	eng := &Engine{Store: st}
	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Processed)
	assert.Equal(t, 1, sum.UnresolvedLegacy)
	assert.False(t, st.orders["ord-1"].StockDecremented)
	assert.Empty(t, st.movements)
}

func TestRunMultiItemAllOrNothing(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 10)
	st.addVariant(12, "camiseta-jesus", "Camiseta Jesus", "G", 1)
	st.addOrder(approvedOrder("ord-1", nil),
		orders.OrderLine{ID: 1, OrderID: "ord-1", ProductKey: "camiseta-jesus", Size: "M", Quantity: 2, VariantID: int64p(11)},
		orders.OrderLine{ID: 2, OrderID: "ord-1", ProductKey: "camiseta-jesus", Size: "G", Quantity: 3, VariantID: int64p(12)},
	)

	eng := &Engine{Store: st}
	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.InsufficientStock)
	assert.Equal(t, 0, sum.Processed)

	// the sufficient line must be untouched too
	assert.Equal(t, 10, st.variants[11].Quantity)
	assert.Equal(t, 1, st.variants[12].Quantity)
	assert.False(t, st.orders["ord-1"].StockDecremented)
	assert.Empty(t, st.movements)
}

func TestRunMultiItem(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 10)
	st.addVariant(12, "camiseta-the-way", "The Way", "P", 5)
	st.addOrder(approvedOrder("ord-1", nil),
		orders.OrderLine{ID: 1, OrderID: "ord-1", ProductKey: "camiseta-jesus", Size: "M", Quantity: 2, VariantID: int64p(11)},
		orders.OrderLine{ID: 2, OrderID: "ord-1", ProductKey: "camiseta-the-way", Size: "P", Quantity: 1},
	)

	eng := &Engine{Store: st}
	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.ByShape[orders.ShapeMulti])
	assert.Equal(t, 8, st.variants[11].Quantity)
	// second line resolved via the legacy pair
	assert.Equal(t, 4, st.variants[12].Quantity)
	assert.Len(t, st.movements, 2)
}

func TestRunInsufficientIsRetried(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 0)
	st.addOrder(approvedOrder("ord-1", int64p(11)))

	eng := &Engine{Store: st}
	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.InsufficientStock)
	assert.False(t, st.orders["ord-1"].StockDecremented)

	// restock and run again: the order is still a candidate
	v := st.variants[11]
	v.Quantity = 5
	v.Available = true
	st.variants[11] = v

	sum, err = eng.Run(context.Background(), testOpts())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 4, st.variants[11].Quantity)
	assert.True(t, st.orders["ord-1"].StockDecremented)
}

func TestRunFailedOrderDoesNotBlockOthers(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 1)
	st.addVariant(12, "camiseta-marrom", "Camiseta Marrom", "P", 3)
	st.addOrder(approvedOrder("ord-1", nil),
		orders.OrderLine{ID: 1, OrderID: "ord-1", ProductKey: "camiseta-jesus", Size: "M", Quantity: 5, VariantID: int64p(11)})
	st.addOrder(approvedOrder("ord-2", int64p(12)))

	eng := &Engine{Store: st}
	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.InsufficientStock)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 2, st.variants[12].Quantity)
	assert.True(t, st.orders["ord-2"].StockDecremented)
}

func TestRunLookbackWindow(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 10)
	old := approvedOrder("ord-old", int64p(11))
	old.CreatedAt = testNow.AddDate(0, 0, -45)
	st.addOrder(old)
	st.addOrder(approvedOrder("ord-new", int64p(11)))

	eng := &Engine{Store: st}
	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Candidates)
	assert.True(t, st.orders["ord-new"].StockDecremented)
	assert.False(t, st.orders["ord-old"].StockDecremented)

	// widening the window picks the old order up
	opts := testOpts()
	opts.LookbackDays = 60
	sum, err = eng.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Candidates)
	assert.True(t, st.orders["ord-old"].StockDecremented)
}

func TestRunZeroAndLowStockReporting(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 1)
	st.addVariant(12, "camiseta-marrom", "Camiseta Marrom", "P", 9)
	st.addOrder(approvedOrder("ord-1", int64p(11)))

	eng := &Engine{Store: st}
	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	require.Len(t, sum.ZeroStock, 1)
	assert.Equal(t, int64(11), sum.ZeroStock[0].Variant.ID)
	assert.Empty(t, sum.LowStock)
}

func TestRunInPersonOrderWithoutApproval(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 4)
	o := approvedOrder("ord-1", int64p(11))
	o.PaymentStatus = orders.StatusPending
	o.PaymentMethod = orders.MethodInPerson
	st.addOrder(o)

	eng := &Engine{Store: st}
	sum, err := eng.Run(context.Background(), testOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 3, st.variants[11].Quantity)
}

func TestRunDryRunPersistsNothing(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 10)
	st.addOrder(approvedOrder("ord-1", int64p(11)))

	eng := &Engine{Store: st}
	opts := testOpts()
	opts.DryRun = true
	sum, err := eng.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.True(t, sum.DryRun)
	assert.Equal(t, 1, sum.Processed)

	assert.Equal(t, 10, st.variants[11].Quantity)
	assert.False(t, st.orders["ord-1"].StockDecremented)
	assert.Empty(t, st.movements)
}

func TestRunDryRunSimulatesCumulatively(t *testing.T) {
	st := newMemStore()
	st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 1)
	st.addOrder(approvedOrder("ord-1", int64p(11)))
	st.addOrder(approvedOrder("ord-2", int64p(11)))

	eng := &Engine{Store: st}
	opts := testOpts()
	opts.DryRun = true
	sum, err := eng.Run(context.Background(), opts)
	require.NoError(t, err)

	// the second order must see the first simulated decrement
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.InsufficientStock)
	assert.Equal(t, 1, st.variants[11].Quantity)
}

func TestRunDryRunMatchesRealRun(t *testing.T) {
	build := func() *memStore {
		st := newMemStore()
		st.addVariant(11, "camiseta-jesus", "Camiseta Jesus", "M", 3)
		st.addVariant(12, "camiseta-marrom", "Camiseta Marrom", "P", 1)
		st.addOrder(approvedOrder("ord-1", int64p(11)))
		st.addOrder(approvedOrder("ord-2", nil),
			orders.OrderLine{ID: 1, OrderID: "ord-2", ProductKey: "camiseta-marrom", Size: "P", Quantity: 2, VariantID: int64p(12)})
		return st
	}

	dryStore := build()
	opts := testOpts()
	opts.DryRun = true
	drySum, err := (&Engine{Store: dryStore}).Run(context.Background(), opts)
	require.NoError(t, err)

	realStore := build()
	realSum, err := (&Engine{Store: realStore}).Run(context.Background(), testOpts())
	require.NoError(t, err)

	assert.Equal(t, realSum.Processed, drySum.Processed)
	assert.Equal(t, realSum.InsufficientStock, drySum.InsufficientStock)
	assert.Equal(t, realSum.UnresolvedLegacy, drySum.UnresolvedLegacy)
}
