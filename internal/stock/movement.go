package stock

import "time"

type Kind string

const (
	KindEntry      Kind = "entry"
	KindExit       Kind = "exit"
	KindAdjustment Kind = "adjustment"
	KindReset      Kind = "reset"
	KindSetup      Kind = "setup"
)

// Movement is one append-only ledger row. Rows are written before the live
// counter is mutated and are never updated or deleted afterwards.
type Movement struct {
	ID             int64     `json:"id"`
	VariantID      int64     `json:"product_size_id"`
	Kind           Kind      `json:"kind"`
	Quantity       int       `json:"quantity"` // signed: positive entry, negative exit
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	OrderID        string    `json:"order_id,omitempty"`
	Actor          string    `json:"actor"`
	Origin         string    `json:"origin"`
	Note           string    `json:"note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Consistent reports whether the row's arithmetic holds.
func (m *Movement) Consistent() bool {
	return m.QuantityAfter == m.QuantityBefore+m.Quantity
}

// Mutation identifies who performed a stock change and why. It is passed
// explicitly into every counter operation so the ledger stays queryable by
// caller.
type Mutation struct {
	Actor   string
	Origin  string
	Note    string
	OrderID string
}
