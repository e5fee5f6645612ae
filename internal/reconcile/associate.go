package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/caiovls/merch-admin/internal/catalog"
)

type AssociateSummary struct {
	DryRun         bool
	OrdersLinked   int
	OrdersUnmapped int
	LinesLinked    int
	LinesUnmapped  int
	Outcomes       []string
}

func (s *AssociateSummary) String() string {
	var b strings.Builder
	title := "legacy association summary"
	if s.DryRun {
		title += " (dry-run: nothing persisted)"
	}
	fmt.Fprintf(&b, "=== %s ===\n", title)
	fmt.Fprintf(&b, "orders linked: %d (unmapped: %d)\n", s.OrdersLinked, s.OrdersUnmapped)
	fmt.Fprintf(&b, "lines linked: %d (unmapped: %d)\n", s.LinesLinked, s.LinesUnmapped)
	for _, line := range s.Outcomes {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return b.String()
}

// AssociateLegacy backfills the direct variant reference on legacy orders and
// on order lines that only carry the scalar product_key/size pair. Orders the
// reconciliation pass reported as unresolved become processable after this.
func (e *Engine) AssociateLegacy(ctx context.Context, dryRun bool) (*AssociateSummary, error) {
	st := e.Store
	if dryRun {
		st = NewShadow(e.Store)
	}

	sum := &AssociateSummary{DryRun: dryRun}
	err := st.Transact(ctx, func(tx Store) error {
		os, err := tx.UnassociatedLegacyOrders(ctx)
		if err != nil {
			return err
		}
		for _, o := range os {
			v, err := tx.ResolveVariant(ctx, o.ProductKey, o.Size)
			if errors.Is(err, catalog.ErrNotFound) {
				sum.OrdersUnmapped++
				sum.Outcomes = append(sum.Outcomes,
					fmt.Sprintf("order %s: no variant for %s (%s)", o.ID, o.ProductKey, o.Size))
				continue
			}
			if err != nil {
				return err
			}
			if err := tx.SetOrderVariant(ctx, o.ID, v.ID); err != nil {
				return err
			}
			sum.OrdersLinked++
		}

		lines, err := tx.UnassociatedLines(ctx)
		if err != nil {
			return err
		}
		for _, ln := range lines {
			v, err := tx.ResolveVariant(ctx, ln.ProductKey, ln.Size)
			if errors.Is(err, catalog.ErrNotFound) {
				sum.LinesUnmapped++
				sum.Outcomes = append(sum.Outcomes,
					fmt.Sprintf("order %s line %d: no variant for %s (%s)", ln.OrderID, ln.ID, ln.ProductKey, ln.Size))
				continue
			}
			if err != nil {
				return err
			}
			if err := tx.SetLineVariant(ctx, ln.ID, v.ID); err != nil {
				return err
			}
			sum.LinesLinked++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}
