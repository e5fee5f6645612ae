package payments

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventPaymentUpdated = "payment.updated"
	EventOrderCreated   = "order.created"
	EventStockAlert     = "stock.alert"
)

// Envelope is the wire format shared by every event on the bus.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, producer, correlationID string, payload any) Envelope {
	raw, _ := json.Marshal(payload)
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       uuid.NewString(),
		CorrelationID: correlationID,
		Payload:       raw,
	}
}

type PaymentUpdatedPayload struct {
	ExternalReference string `json:"external_reference"`
	PaymentID         string `json:"payment_id"`
	MerchantOrderID   string `json:"merchant_order_id,omitempty"`
	Status            string `json:"status"`
	Provider          string `json:"provider,omitempty"`
}

type OrderCreatedPayload struct {
	OrderID           string `json:"order_id"`
	ExternalReference string `json:"external_reference"`
	BuyerID           int64  `json:"buyer_id"`
	TotalCents        int    `json:"total_cents"`
	PaymentMethod     string `json:"payment_method"`
}

// StockAlertPayload is emitted after a stock sync pass for variants at or
// below the low-stock threshold. Level is "zero" or "low".
type StockAlertPayload struct {
	ProductKey string `json:"product_key"`
	Size       string `json:"size"`
	VariantID  int64  `json:"variant_id"`
	Quantity   int    `json:"quantity"`
	Level      string `json:"level"`
}
