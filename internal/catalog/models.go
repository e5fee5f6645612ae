package catalog

import "time"

type Product struct {
	ID           int64  `json:"id"`
	JSONKey      string `json:"json_key"` // external storefront key, e.g. "camiseta-jesus"
	Name         string `json:"name"`
	PriceCents   int    `json:"price_cents"`
	CostCents    int    `json:"cost_cents"`
	Active       bool   `json:"active"`
	DisplayOrder int    `json:"display_order"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SizeVariant is the unit at which stock is tracked: one size of one product.
type SizeVariant struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
}

// IsPurchasable: available may be manually switched off even with stock on
// hand, so both checks are required.
func (v *SizeVariant) IsPurchasable() bool {
	return v.Available && v.Quantity > 0
}

// VariantRef carries a variant together with its product identity, for
// summaries and the storefront snapshot.
type VariantRef struct {
	Variant     SizeVariant
	ProductKey  string
	ProductName string
}

func (r VariantRef) Label() string {
	return r.ProductName + " (" + r.Variant.Size + ")"
}
