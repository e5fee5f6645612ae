package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caiovls/merch-admin/internal/catalog"
	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/stock"
)

var (
	// ErrInsufficientStock: the order stays un-decremented and is retried on
	// the next pass. Never fatal to the invocation.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrUnresolvedLegacy: the legacy scalar pair did not resolve against the
	// catalog. The order is skipped until an association backfill runs.
	ErrUnresolvedLegacy = errors.New("unresolved legacy mapping")
)

type Options struct {
	DryRun       bool
	LookbackDays int // default 30
	Reprocess    bool
	Actor        string // ledger actor, default "system"
	Origin       string // ledger origin, default "stocksync"

	// now is injectable for tests.
	now func() time.Time
}

type Engine struct {
	Store Store
}

// Run executes one reconciliation pass: classify candidates into their one
// shape, then process each order in its own transaction, decrementing stock
// all-or-nothing per order and flipping its stock_decremented flag.
func (e *Engine) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 30
	}
	if opts.Actor == "" {
		opts.Actor = "system"
	}
	if opts.Origin == "" {
		opts.Origin = "stocksync"
	}
	if opts.now == nil {
		opts.now = time.Now
	}

	st := e.Store
	if opts.DryRun {
		st = NewShadow(e.Store)
	}

	since := opts.now().AddDate(0, 0, -opts.LookbackDays)
	cands, err := st.CandidateOrders(ctx, since, opts.Reprocess)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	sum := newSummary(opts.DryRun)
	sum.Candidates = len(cands)

	for _, o := range cands {
		lines, err := st.LinesByOrder(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("load lines for order %s: %w", o.ID, err)
		}
		c := orders.Classify(o, lines)
		sum.ByShape[c.Shape]++

		err = st.Transact(ctx, func(tx Store) error {
			return e.process(ctx, tx, c, opts)
		})
		switch {
		case err == nil:
			sum.Processed++
			sum.addOutcome("order %s (%s): processed", o.ID, c.Shape)
		case errors.Is(err, ErrInsufficientStock):
			sum.InsufficientStock++
			sum.addOutcome("order %s: %v", o.ID, err)
		case errors.Is(err, ErrUnresolvedLegacy):
			sum.UnresolvedLegacy++
			sum.addOutcome("order %s: %v (run a legacy association first)", o.ID, err)
		default:
			sum.Errored++
			sum.addOutcome("order %s: error: %v", o.ID, err)
		}
	}

	refs, err := st.VariantRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("variant stats: %w", err)
	}
	for _, ref := range refs {
		switch {
		case ref.Variant.Quantity == 0:
			sum.ZeroStock = append(sum.ZeroStock, ref)
		case ref.Variant.Quantity <= LowStockThreshold:
			sum.LowStock = append(sum.LowStock, ref)
		}
	}
	return sum, nil
}

// process handles one classified order inside tx. Every requirement is
// resolved and checked for sufficiency before any decrement, so an order with
// one short line leaves all its lines untouched.
func (e *Engine) process(ctx context.Context, tx Store, c orders.Classified, opts Options) error {
	reqs := c.Requirements()

	type planned struct {
		variantID int64
		qty       int
		label     string
	}
	plan := make([]planned, 0, len(reqs))
	for _, req := range reqs {
		var (
			v   *catalog.SizeVariant
			err error
		)
		if req.VariantID != nil {
			v, err = tx.Variant(ctx, *req.VariantID)
		} else {
			v, err = tx.ResolveVariant(ctx, req.ProductKey, req.Size)
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("%w: %s (%s)", ErrUnresolvedLegacy, req.ProductKey, req.Size)
			}
		}
		if err != nil {
			return err
		}
		if v.Quantity < req.Quantity {
			return fmt.Errorf("%w: %s needs %d, has %d", ErrInsufficientStock, req.Label, req.Quantity, v.Quantity)
		}
		plan = append(plan, planned{variantID: v.ID, qty: req.Quantity, label: req.Label})
	}

	counter := &stock.Counter{Store: tx}
	for _, p := range plan {
		ok, err := counter.Decrement(ctx, p.variantID, p.qty, stock.Mutation{
			Actor:   opts.Actor,
			Origin:  opts.Origin,
			Note:    fmt.Sprintf("order %s - %s", c.Order.ID, p.label),
			OrderID: c.Order.ID,
		})
		if err != nil {
			return err
		}
		if !ok {
			// raced below the planned quantity; roll the whole order back
			return fmt.Errorf("%w: %s", ErrInsufficientStock, p.label)
		}
	}

	return tx.MarkDecremented(ctx, c.Order.ID)
}
