package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/caiovls/merch-admin/internal/catalog"
	"github.com/caiovls/merch-admin/internal/stock"
)

type ResetOptions struct {
	DryRun bool
	// Setup writes first-time "setup" movements instead of "reset" ones and
	// leaves the stock_decremented flags alone.
	Setup  bool
	Actor  string
	Origin string
}

type ResetSummary struct {
	DryRun          bool
	VariantsChanged int
	Unmatched       []string
	OrdersCleared   int64
	Outcomes        []string
}

func (s *ResetSummary) String() string {
	var b strings.Builder
	title := "stock reset summary"
	if s.DryRun {
		title += " (dry-run: nothing persisted)"
	}
	fmt.Fprintf(&b, "=== %s ===\n", title)
	fmt.Fprintf(&b, "variants changed: %d\n", s.VariantsChanged)
	fmt.Fprintf(&b, "orders cleared for reprocessing: %d\n", s.OrdersCleared)
	for _, line := range s.Outcomes {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	for _, u := range s.Unmatched {
		fmt.Fprintf(&b, "  not in catalog: %s\n", u)
	}
	return b.String()
}

// Reset restores every baseline-listed variant to its baseline quantity and
// availability, writing one reset movement per changed counter, then clears
// the stock_decremented flag on all orders so a full pass can re-run from a
// known state. One transaction for the whole operation: the write set is
// small and bounded by the catalog.
func (e *Engine) Reset(ctx context.Context, b Baseline, opts ResetOptions) (*ResetSummary, error) {
	if opts.Actor == "" {
		opts.Actor = "system"
	}
	if opts.Origin == "" {
		opts.Origin = "stockreset"
	}
	kind := stock.KindReset
	if opts.Setup {
		kind = stock.KindSetup
		opts.Origin = "stocksetup"
	}

	st := e.Store
	if opts.DryRun {
		st = NewShadow(e.Store)
	}

	sum := &ResetSummary{DryRun: opts.DryRun}
	err := st.Transact(ctx, func(tx Store) error {
		counter := &stock.Counter{Store: tx}
		for _, key := range sortedKeys(b) {
			for _, size := range sortedKeys(b[key]) {
				entry := b[key][size]
				v, err := tx.ResolveVariant(ctx, key, size)
				if errors.Is(err, catalog.ErrNotFound) {
					sum.Unmatched = append(sum.Unmatched, fmt.Sprintf("%s (%s)", key, size))
					continue
				}
				if err != nil {
					return err
				}

				prev := v.Quantity
				prevAvail := v.Available
				if err := counter.AdjustTo(ctx, v.ID, entry.Quantity, kind, stock.Mutation{
					Actor:  opts.Actor,
					Origin: opts.Origin,
					Note:   fmt.Sprintf("baseline restore %s (%s)", key, size),
				}); err != nil {
					return err
				}

				// The counter derives availability from quantity; the
				// baseline may still pin a stocked size unavailable.
				want := entry.Available && entry.Quantity > 0
				cur, err := tx.Variant(ctx, v.ID)
				if err != nil {
					return err
				}
				if cur.Available != want {
					cur.Available = want
					if err := tx.SaveVariant(ctx, cur); err != nil {
						return err
					}
				}

				if prev != entry.Quantity || prevAvail != want {
					sum.VariantsChanged++
					sum.Outcomes = append(sum.Outcomes,
						fmt.Sprintf("%s (%s): %d -> %d", key, size, prev, entry.Quantity))
				}
			}
		}

		if !opts.Setup {
			n, err := tx.ClearDecremented(ctx)
			if err != nil {
				return err
			}
			sum.OrdersCleared = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}
