package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/caiovls/merch-admin/internal/kafka"
	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/payments"
)

// WebhookHandler accepts provider payment notifications and republishes them
// on the bus. The worker applies them, so a webhook burst never blocks here.
type WebhookHandler struct {
	Producer *kafkax.Producer
	Service  string
}

type PaymentWebhookReq struct {
	ExternalReference string `json:"external_reference"`
	PaymentID         string `json:"payment_id"`
	MerchantOrderID   string `json:"merchant_order_id"`
	Status            string `json:"status"`
	Provider          string `json:"provider"`
}

func (h *WebhookHandler) Register(r *chi.Mux) {
	r.Post("/webhooks/payment", h.paymentWebhook)
}

func (h *WebhookHandler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req PaymentWebhookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ExternalReference == "" || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	if !orders.PaymentStatus(req.Status).Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}

	ev := payments.NewEnvelope(payments.EventPaymentUpdated, h.Service, req.ExternalReference,
		payments.PaymentUpdatedPayload{
			ExternalReference: req.ExternalReference,
			PaymentID:         req.PaymentID,
			MerchantOrderID:   req.MerchantOrderID,
			Status:            req.Status,
			Provider:          req.Provider,
		})
	if tid := r.Header.Get("X-Request-Id"); tid != "" {
		ev.TraceID = tid
	}
	h.Producer.Publish(payments.PartitionKey(req.ExternalReference), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(payments.EventPaymentUpdated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
