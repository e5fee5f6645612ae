package stock

import (
	"context"

	"github.com/caiovls/merch-admin/internal/catalog"
)

// Store is the persistence surface the counter mutates. Implementations run
// on a pool or inside a transaction; the counter itself does not open one.
type Store interface {
	Variant(ctx context.Context, id int64) (*catalog.SizeVariant, error)
	SaveVariant(ctx context.Context, v *catalog.SizeVariant) error
	AppendMovement(ctx context.Context, m *Movement) error
}

// Counter applies stock mutations to a single variant at a time: the ledger
// row is appended first, then the live counter is saved. The counter field is
// authoritative for sellability; the ledger is the audit trail.
type Counter struct {
	Store Store
}

// Decrement takes qty units off the variant. Returns false with no mutation
// at all when stock is insufficient (or qty is not positive).
func (c *Counter) Decrement(ctx context.Context, variantID int64, qty int, mut Mutation) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	v, err := c.Store.Variant(ctx, variantID)
	if err != nil {
		return false, err
	}
	if v.Quantity < qty {
		return false, nil
	}

	m := &Movement{
		VariantID:      v.ID,
		Kind:           KindExit,
		Quantity:       -qty,
		QuantityBefore: v.Quantity,
		QuantityAfter:  v.Quantity - qty,
		OrderID:        mut.OrderID,
		Actor:          mut.Actor,
		Origin:         mut.Origin,
		Note:           mut.Note,
	}
	if err := c.Store.AppendMovement(ctx, m); err != nil {
		return false, err
	}

	v.Quantity -= qty
	if v.Quantity == 0 {
		v.Available = false
	}
	if err := c.Store.SaveVariant(ctx, v); err != nil {
		return false, err
	}
	return true, nil
}

// Increment adds qty units. Re-enables availability when leaving zero.
func (c *Counter) Increment(ctx context.Context, variantID int64, qty int, mut Mutation) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	v, err := c.Store.Variant(ctx, variantID)
	if err != nil {
		return false, err
	}

	m := &Movement{
		VariantID:      v.ID,
		Kind:           KindEntry,
		Quantity:       qty,
		QuantityBefore: v.Quantity,
		QuantityAfter:  v.Quantity + qty,
		OrderID:        mut.OrderID,
		Actor:          mut.Actor,
		Origin:         mut.Origin,
		Note:           mut.Note,
	}
	if err := c.Store.AppendMovement(ctx, m); err != nil {
		return false, err
	}

	wasEmpty := v.Quantity == 0
	v.Quantity += qty
	if wasEmpty && !v.Available {
		v.Available = true
	}
	if err := c.Store.SaveVariant(ctx, v); err != nil {
		return false, err
	}
	return true, nil
}

// AdjustTo sets the counter to newQty, recording the delta. No-op when the
// counter already matches. The kind is normally KindAdjustment; reset and
// setup flows pass their own.
func (c *Counter) AdjustTo(ctx context.Context, variantID int64, newQty int, kind Kind, mut Mutation) error {
	v, err := c.Store.Variant(ctx, variantID)
	if err != nil {
		return err
	}
	delta := newQty - v.Quantity
	if delta == 0 {
		return nil
	}

	m := &Movement{
		VariantID:      v.ID,
		Kind:           kind,
		Quantity:       delta,
		QuantityBefore: v.Quantity,
		QuantityAfter:  newQty,
		OrderID:        mut.OrderID,
		Actor:          mut.Actor,
		Origin:         mut.Origin,
		Note:           mut.Note,
	}
	if err := c.Store.AppendMovement(ctx, m); err != nil {
		return err
	}

	v.Quantity = newQty
	v.Available = newQty > 0
	return c.Store.SaveVariant(ctx, v)
}
