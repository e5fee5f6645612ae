package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/caiovls/merch-admin/internal/kafka"
	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/payments"
	"github.com/caiovls/merch-admin/internal/redisx"
)

type OrdersHandler struct {
	Repo     *orders.Repo
	Producer *kafkax.Producer
	Redis    *redis.Client
	Service  string
}

type buyerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreateOrderReq struct {
	ExternalReference string             `json:"external_reference"`
	Buyer             buyerInput         `json:"buyer"`
	PaymentMethod     string             `json:"payment_method"`
	Items             []orders.ItemInput `json:"items"`
}

type CreateSimpleOrderReq struct {
	ExternalReference string     `json:"external_reference"`
	Buyer             buyerInput `json:"buyer"`
	PaymentMethod     string     `json:"payment_method"`
	ProductKey        string     `json:"product_key"`
	Size              string     `json:"size"`
}

type CreateOrderResp struct {
	OrderID    string `json:"order_id"`
	TotalCents int    `json:"total_cents"`
	Idempotent bool   `json:"idempotent"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Post("/orders/simple", h.createSimpleOrder)
	r.Get("/orders/{id}", h.getOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ExternalReference == "" || req.Buyer.Email == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	buyerID, err := h.Repo.EnsureBuyer(ctx, req.Buyer.Name, req.Buyer.Email, req.Buyer.Phone)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	orderID, total, existed, err := h.Repo.CreateOrder(ctx, req.ExternalReference, buyerID,
		orders.PaymentMethod(req.PaymentMethod), req.Items)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.afterCreate(ctx, r, orderID, req.ExternalReference, buyerID, total, req.PaymentMethod, existed)
	writeJSON(w, http.StatusAccepted, CreateOrderResp{OrderID: orderID, TotalCents: total, Idempotent: existed})
}

func (h *OrdersHandler) createSimpleOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateSimpleOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ExternalReference == "" || req.Buyer.Email == "" || req.ProductKey == "" || req.Size == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	buyerID, err := h.Repo.EnsureBuyer(ctx, req.Buyer.Name, req.Buyer.Email, req.Buyer.Phone)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	orderID, total, existed, err := h.Repo.CreateSimpleOrder(ctx, req.ExternalReference, buyerID,
		orders.PaymentMethod(req.PaymentMethod), req.ProductKey, req.Size)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.afterCreate(ctx, r, orderID, req.ExternalReference, buyerID, total, req.PaymentMethod, existed)
	writeJSON(w, http.StatusAccepted, CreateOrderResp{OrderID: orderID, TotalCents: total, Idempotent: existed})
}

// afterCreate records the idempotency shortcut and the status cache, then
// publishes the created event. Existed orders already published once.
func (h *OrdersHandler) afterCreate(ctx context.Context, r *http.Request, orderID, externalRef string, buyerID int64, total int, method string, existed bool) {
	idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, externalRef)
	_ = h.Redis.Set(ctx, idemKey, orderID, redisx.TTLIdempotency).Err()
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, statusKey, string(orders.StatusPending), redisx.TTLStatusCache).Err()

	if existed {
		return
	}

	ev := payments.NewEnvelope(payments.EventOrderCreated, h.Service, orderID, payments.OrderCreatedPayload{
		OrderID:           orderID,
		ExternalReference: externalRef,
		BuyerID:           buyerID,
		TotalCents:        total,
		PaymentMethod:     method,
	})
	if tid := r.Header.Get("X-Request-Id"); tid != "" {
		ev.TraceID = tid
	}
	h.Producer.Publish(payments.PartitionKey(externalRef), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(payments.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, orderID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, statusKey, string(o.PaymentStatus), redisx.TTLStatusCache).Err()
	writeJSON(w, http.StatusOK, o)
}
