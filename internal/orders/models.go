package orders

import "time"

type Buyer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	CreatedAt time.Time
}

// Order is one checkout attempt. Three shapes coexist: legacy orders carry
// the scalar ProductKey/Size pair, simple orders a direct VariantID, and
// multi-item orders child OrderLines. Exactly one shape feeds stock.
type Order struct {
	ID                string        `json:"id"`
	BuyerID           int64         `json:"buyer_id"`
	ExternalReference string        `json:"external_reference"`
	PaymentID         string        `json:"payment_id,omitempty"`
	PreferenceID      string        `json:"preference_id,omitempty"`
	MerchantOrderID   string        `json:"merchant_order_id,omitempty"`
	PaymentMethod     PaymentMethod `json:"payment_method"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	StockDecremented  bool          `json:"stock_decremented"`
	VariantID         *int64        `json:"product_size_id,omitempty"`
	ProductKey        string        `json:"product_key,omitempty"` // legacy
	Size              string        `json:"size,omitempty"`        // legacy
	PriceCents        int           `json:"price_cents"`
	Notes             string        `json:"notes,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// OrderLine is one item of a multi-item order.
type OrderLine struct {
	ID             int64  `json:"id"`
	OrderID        string `json:"order_id"`
	ProductKey     string `json:"product_key"`
	Size           string `json:"size"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
	VariantID      *int64 `json:"product_size_id,omitempty"`
}

// Eligible: an order feeds stock once approved, or immediately when paid in
// person, as long as it is inside the lookback window and not already
// decremented (reprocess relaxes the flag).
func (o *Order) Eligible(since time.Time, reprocess bool) bool {
	if o.PaymentStatus != StatusApproved && o.PaymentMethod != MethodInPerson {
		return false
	}
	if o.StockDecremented && !reprocess {
		return false
	}
	return !o.CreatedAt.Before(since)
}
