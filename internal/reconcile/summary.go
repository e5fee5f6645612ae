package reconcile

import (
	"fmt"
	"strings"

	"github.com/caiovls/merch-admin/internal/catalog"
	"github.com/caiovls/merch-admin/internal/orders"
)

// LowStockThreshold marks variants worth flagging in the run summary.
const LowStockThreshold = 2

// Summary is the human-readable outcome of one reconciliation pass.
type Summary struct {
	DryRun            bool
	Candidates        int
	Processed         int
	InsufficientStock int
	UnresolvedLegacy  int
	Errored           int
	ByShape           map[orders.Shape]int
	Outcomes          []string
	ZeroStock         []catalog.VariantRef
	LowStock          []catalog.VariantRef
}

func newSummary(dryRun bool) *Summary {
	return &Summary{
		DryRun:  dryRun,
		ByShape: make(map[orders.Shape]int),
	}
}

func (s *Summary) addOutcome(format string, args ...any) {
	s.Outcomes = append(s.Outcomes, fmt.Sprintf(format, args...))
}

func (s *Summary) String() string {
	var b strings.Builder
	title := "stock sync summary"
	if s.DryRun {
		title += " (dry-run: nothing persisted)"
	}
	fmt.Fprintf(&b, "=== %s ===\n", title)
	fmt.Fprintf(&b, "candidates: %d (legacy %d, simple %d, multi-item %d)\n",
		s.Candidates, s.ByShape[orders.ShapeLegacy], s.ByShape[orders.ShapeSimple], s.ByShape[orders.ShapeMulti])
	fmt.Fprintf(&b, "processed: %d\n", s.Processed)
	fmt.Fprintf(&b, "insufficient stock: %d\n", s.InsufficientStock)
	fmt.Fprintf(&b, "unresolved legacy: %d\n", s.UnresolvedLegacy)
	fmt.Fprintf(&b, "errors: %d\n", s.Errored)
	for _, line := range s.Outcomes {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	if len(s.ZeroStock) > 0 {
		b.WriteString("sold out:\n")
		for _, ref := range s.ZeroStock {
			fmt.Fprintf(&b, "  - %s\n", ref.Label())
		}
	}
	if len(s.LowStock) > 0 {
		fmt.Fprintf(&b, "low stock (<=%d):\n", LowStockThreshold)
		for _, ref := range s.LowStock {
			fmt.Fprintf(&b, "  - %s: %d left\n", ref.Label(), ref.Variant.Quantity)
		}
	}
	return b.String()
}
