package reconcile

import (
	"context"
	"sort"
	"time"

	"github.com/caiovls/merch-admin/internal/catalog"
	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/stock"
)

// memStore is the in-memory Store used throughout the engine tests. Transact
// restores the previous state when fn fails, matching the per-order rollback
// of the Postgres implementation.
type memStore struct {
	variants  map[int64]catalog.SizeVariant
	refs      map[int64]struct{ key, name string }
	byKey     map[string]int64 // "productKey/size" -> variant id
	orders    map[string]orders.Order
	lines     map[string][]orders.OrderLine
	movements []stock.Movement
	nextMove  int64
}

func newMemStore() *memStore {
	return &memStore{
		variants: make(map[int64]catalog.SizeVariant),
		refs:     make(map[int64]struct{ key, name string }),
		byKey:    make(map[string]int64),
		orders:   make(map[string]orders.Order),
		lines:    make(map[string][]orders.OrderLine),
	}
}

func (s *memStore) addVariant(id int64, key, name, size string, qty int) {
	s.variants[id] = catalog.SizeVariant{ID: id, ProductID: id / 10, Size: size, Quantity: qty, Available: qty > 0}
	s.refs[id] = struct{ key, name string }{key, name}
	s.byKey[key+"/"+size] = id
}

func (s *memStore) addOrder(o orders.Order, lines ...orders.OrderLine) {
	if o.PaymentMethod == "" {
		o.PaymentMethod = orders.MethodPix
	}
	s.orders[o.ID] = o
	if len(lines) > 0 {
		s.lines[o.ID] = lines
	}
}

func (s *memStore) Variant(_ context.Context, id int64) (*catalog.SizeVariant, error) {
	v, ok := s.variants[id]
	if !ok {
		return nil, stock.ErrVariantNotFound
	}
	return &v, nil
}

func (s *memStore) SaveVariant(_ context.Context, v *catalog.SizeVariant) error {
	if _, ok := s.variants[v.ID]; !ok {
		return stock.ErrVariantNotFound
	}
	s.variants[v.ID] = *v
	return nil
}

func (s *memStore) AppendMovement(_ context.Context, m *stock.Movement) error {
	s.nextMove++
	m.ID = s.nextMove
	m.CreatedAt = time.Now()
	s.movements = append(s.movements, *m)
	return nil
}

func (s *memStore) CandidateOrders(_ context.Context, since time.Time, reprocess bool) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range s.orders {
		if o.Eligible(since, reprocess) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) LinesByOrder(_ context.Context, orderID string) ([]orders.OrderLine, error) {
	return append([]orders.OrderLine(nil), s.lines[orderID]...), nil
}

func (s *memStore) ResolveVariant(_ context.Context, productKey, size string) (*catalog.SizeVariant, error) {
	id, ok := s.byKey[productKey+"/"+size]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	v := s.variants[id]
	return &v, nil
}

func (s *memStore) VariantRefs(_ context.Context) ([]catalog.VariantRef, error) {
	ids := make([]int64, 0, len(s.variants))
	for id := range s.variants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]catalog.VariantRef, 0, len(ids))
	for _, id := range ids {
		r := s.refs[id]
		out = append(out, catalog.VariantRef{Variant: s.variants[id], ProductKey: r.key, ProductName: r.name})
	}
	return out, nil
}

func (s *memStore) MarkDecremented(_ context.Context, orderID string) error {
	o := s.orders[orderID]
	o.StockDecremented = true
	s.orders[orderID] = o
	return nil
}

func (s *memStore) ClearDecremented(_ context.Context) (int64, error) {
	var n int64
	for id, o := range s.orders {
		if o.StockDecremented {
			o.StockDecremented = false
			s.orders[id] = o
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountDecremented(_ context.Context) (int64, error) {
	var n int64
	for _, o := range s.orders {
		if o.StockDecremented {
			n++
		}
	}
	return n, nil
}

func (s *memStore) UnassociatedLegacyOrders(_ context.Context) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range s.orders {
		if o.VariantID == nil && o.ProductKey != "" && len(s.lines[o.ID]) == 0 {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) SetOrderVariant(_ context.Context, orderID string, variantID int64) error {
	o := s.orders[orderID]
	v := variantID
	o.VariantID = &v
	s.orders[orderID] = o
	return nil
}

func (s *memStore) UnassociatedLines(_ context.Context) ([]orders.OrderLine, error) {
	var out []orders.OrderLine
	for _, lns := range s.lines {
		for _, ln := range lns {
			if ln.VariantID == nil {
				out = append(out, ln)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) SetLineVariant(_ context.Context, lineID, variantID int64) error {
	for orderID, lns := range s.lines {
		for i := range lns {
			if lns[i].ID == lineID {
				v := variantID
				lns[i].VariantID = &v
				s.lines[orderID] = lns
				return nil
			}
		}
	}
	return nil
}

func (s *memStore) Transact(_ context.Context, fn func(Store) error) error {
	saved := s.clone()
	if err := fn(s); err != nil {
		*s = *saved
		return err
	}
	return nil
}

func (s *memStore) clone() *memStore {
	cp := newMemStore()
	for k, v := range s.variants {
		cp.variants[k] = v
	}
	for k, v := range s.refs {
		cp.refs[k] = v
	}
	for k, v := range s.byKey {
		cp.byKey[k] = v
	}
	for k, v := range s.orders {
		cp.orders[k] = v
	}
	for k, v := range s.lines {
		cp.lines[k] = append([]orders.OrderLine(nil), v...)
	}
	cp.movements = append([]stock.Movement(nil), s.movements...)
	cp.nextMove = s.nextMove
	return cp
}

var _ Store = (*memStore)(nil)
