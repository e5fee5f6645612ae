package reconcile

import (
	"context"
	"time"

	"github.com/caiovls/merch-admin/internal/catalog"
	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/stock"
)

// Shadow wraps a Store for dry-run mode: reads fall through to the base
// store, every write lands in an in-memory overlay. The engine runs its
// normal code path and cumulative effects across orders are still simulated,
// but nothing is persisted. No write-then-rollback trickery involved.
type Shadow struct {
	base Store

	variants    map[int64]catalog.SizeVariant
	movements   []stock.Movement
	nextMoveID  int64
	decremented map[string]bool
	cleared     bool
	orderLinks  map[string]int64
	lineLinks   map[int64]int64
}

var _ Store = (*Shadow)(nil)

func NewShadow(base Store) *Shadow {
	return &Shadow{
		base:        base,
		variants:    make(map[int64]catalog.SizeVariant),
		nextMoveID:  -1, // synthetic ids, never collide with persisted ones
		decremented: make(map[string]bool),
		orderLinks:  make(map[string]int64),
		lineLinks:   make(map[int64]int64),
	}
}

// Movements returns the writes the run would have made.
func (s *Shadow) Movements() []stock.Movement { return s.movements }

func (s *Shadow) Variant(ctx context.Context, id int64) (*catalog.SizeVariant, error) {
	if v, ok := s.variants[id]; ok {
		cp := v
		return &cp, nil
	}
	v, err := s.base.Variant(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *v
	return &cp, nil
}

func (s *Shadow) SaveVariant(ctx context.Context, v *catalog.SizeVariant) error {
	s.variants[v.ID] = *v
	return nil
}

func (s *Shadow) AppendMovement(ctx context.Context, m *stock.Movement) error {
	m.ID = s.nextMoveID
	s.nextMoveID--
	m.CreatedAt = time.Now()
	s.movements = append(s.movements, *m)
	return nil
}

func (s *Shadow) CandidateOrders(ctx context.Context, since time.Time, reprocess bool) ([]orders.Order, error) {
	// After a simulated reset every flag is clear, so ask the base for the
	// wider set and rewrite the flags here.
	base, err := s.base.CandidateOrders(ctx, since, reprocess || s.cleared)
	if err != nil {
		return nil, err
	}
	out := make([]orders.Order, 0, len(base))
	for _, o := range base {
		if s.cleared {
			o.StockDecremented = false
		}
		if s.decremented[o.ID] {
			o.StockDecremented = true
			if !reprocess {
				continue
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *Shadow) LinesByOrder(ctx context.Context, orderID string) ([]orders.OrderLine, error) {
	lines, err := s.base.LinesByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if id, ok := s.lineLinks[lines[i].ID]; ok {
			v := id
			lines[i].VariantID = &v
		}
	}
	return lines, nil
}

func (s *Shadow) ResolveVariant(ctx context.Context, productKey, size string) (*catalog.SizeVariant, error) {
	v, err := s.base.ResolveVariant(ctx, productKey, size)
	if err != nil {
		return nil, err
	}
	if ov, ok := s.variants[v.ID]; ok {
		cp := ov
		return &cp, nil
	}
	cp := *v
	return &cp, nil
}

func (s *Shadow) VariantRefs(ctx context.Context) ([]catalog.VariantRef, error) {
	refs, err := s.base.VariantRefs(ctx)
	if err != nil {
		return nil, err
	}
	for i := range refs {
		if ov, ok := s.variants[refs[i].Variant.ID]; ok {
			refs[i].Variant = ov
		}
	}
	return refs, nil
}

func (s *Shadow) MarkDecremented(ctx context.Context, orderID string) error {
	s.decremented[orderID] = true
	return nil
}

func (s *Shadow) ClearDecremented(ctx context.Context) (int64, error) {
	n, err := s.base.CountDecremented(ctx)
	if err != nil {
		return 0, err
	}
	n += int64(len(s.decremented))
	s.decremented = make(map[string]bool)
	s.cleared = true
	return n, nil
}

func (s *Shadow) CountDecremented(ctx context.Context) (int64, error) {
	if s.cleared {
		return int64(len(s.decremented)), nil
	}
	n, err := s.base.CountDecremented(ctx)
	if err != nil {
		return 0, err
	}
	return n + int64(len(s.decremented)), nil
}

func (s *Shadow) UnassociatedLegacyOrders(ctx context.Context) ([]orders.Order, error) {
	base, err := s.base.UnassociatedLegacyOrders(ctx)
	if err != nil {
		return nil, err
	}
	out := base[:0]
	for _, o := range base {
		if _, ok := s.orderLinks[o.ID]; !ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Shadow) SetOrderVariant(ctx context.Context, orderID string, variantID int64) error {
	s.orderLinks[orderID] = variantID
	return nil
}

func (s *Shadow) UnassociatedLines(ctx context.Context) ([]orders.OrderLine, error) {
	base, err := s.base.UnassociatedLines(ctx)
	if err != nil {
		return nil, err
	}
	out := base[:0]
	for _, ln := range base {
		if _, ok := s.lineLinks[ln.ID]; !ok {
			out = append(out, ln)
		}
	}
	return out, nil
}

func (s *Shadow) SetLineVariant(ctx context.Context, lineID, variantID int64) error {
	s.lineLinks[lineID] = variantID
	return nil
}

// Transact snapshots the overlay and restores it when fn fails, giving the
// same per-order rollback semantics the real store has.
func (s *Shadow) Transact(ctx context.Context, fn func(Store) error) error {
	saved := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

type shadowState struct {
	variants    map[int64]catalog.SizeVariant
	movements   []stock.Movement
	nextMoveID  int64
	decremented map[string]bool
	cleared     bool
	orderLinks  map[string]int64
	lineLinks   map[int64]int64
}

func (s *Shadow) snapshot() shadowState {
	st := shadowState{
		variants:    make(map[int64]catalog.SizeVariant, len(s.variants)),
		movements:   append([]stock.Movement(nil), s.movements...),
		nextMoveID:  s.nextMoveID,
		decremented: make(map[string]bool, len(s.decremented)),
		cleared:     s.cleared,
		orderLinks:  make(map[string]int64, len(s.orderLinks)),
		lineLinks:   make(map[int64]int64, len(s.lineLinks)),
	}
	for k, v := range s.variants {
		st.variants[k] = v
	}
	for k, v := range s.decremented {
		st.decremented[k] = v
	}
	for k, v := range s.orderLinks {
		st.orderLinks[k] = v
	}
	for k, v := range s.lineLinks {
		st.lineLinks[k] = v
	}
	return st
}

func (s *Shadow) restore(st shadowState) {
	s.variants = st.variants
	s.movements = st.movements
	s.nextMoveID = st.nextMoveID
	s.decremented = st.decremented
	s.cleared = st.cleared
	s.orderLinks = st.orderLinks
	s.lineLinks = st.lineLinks
}
