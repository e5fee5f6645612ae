package stock

import "fmt"

// Inconsistency describes one ledger row that fails verification.
type Inconsistency struct {
	MovementID int64
	VariantID  int64
	Problem    string
}

func (i Inconsistency) String() string {
	return fmt.Sprintf("movement #%d (variant %d): %s", i.MovementID, i.VariantID, i.Problem)
}

// Audit verifies a slice of movements: each row's before/after arithmetic,
// and per-variant chain continuity (each row's quantity_before must equal the
// previous row's quantity_after). Movements must be ordered oldest first, as
// returned by the movement queries.
func Audit(movements []Movement) []Inconsistency {
	var out []Inconsistency
	lastAfter := make(map[int64]int)
	seen := make(map[int64]bool)

	for _, m := range movements {
		if !m.Consistent() {
			out = append(out, Inconsistency{
				MovementID: m.ID,
				VariantID:  m.VariantID,
				Problem: fmt.Sprintf("arithmetic: %d%+d != %d",
					m.QuantityBefore, m.Quantity, m.QuantityAfter),
			})
		}
		if seen[m.VariantID] && m.QuantityBefore != lastAfter[m.VariantID] {
			out = append(out, Inconsistency{
				MovementID: m.ID,
				VariantID:  m.VariantID,
				Problem: fmt.Sprintf("chain: quantity_before=%d, previous quantity_after=%d",
					m.QuantityBefore, lastAfter[m.VariantID]),
			})
		}
		seen[m.VariantID] = true
		lastAfter[m.VariantID] = m.QuantityAfter
	}
	return out
}
