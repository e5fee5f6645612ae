package payments

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/caiovls/merch-admin/internal/kafka"
	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/redisx"
)

// Service consumes payment events and applies the resulting status to the
// matching order. Deduplication keys on (event_type, event_id) so a redelivered
// message is committed without touching the order again.
type Service struct {
	Orders *orders.Repo
	Redis  *redis.Client
}

func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env Envelope
	if err := kafka.UnmarshalEnvelope(m.Value, &env); err != nil {
		log.Printf("payments: malformed envelope, skipping: %v", err)
		return nil
	}
	if env.EventType != EventPaymentUpdated {
		return nil
	}

	dedupKey := fmt.Sprintf(redisx.KeyDedup, "paymentworker", env.EventID)
	seen, err := redisx.Exists(ctx, s.Redis, dedupKey)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	p, err := kafka.UnwrapPayload[PaymentUpdatedPayload](env.Payload)
	if err != nil {
		log.Printf("payments: bad payload for event %s, skipping: %v", env.EventID, err)
		return nil
	}

	status := orders.PaymentStatus(p.Status)
	if !status.Valid() {
		log.Printf("payments: unknown status %q for ref %s, skipping", p.Status, p.ExternalReference)
		return nil
	}

	orderID, err := s.Orders.ApplyPaymentUpdate(ctx, p.ExternalReference, status, p.PaymentID, p.MerchantOrderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			// order may arrive via a later webhook; do not poison the topic
			log.Printf("payments: no order for ref %s, skipping", p.ExternalReference)
			return nil
		}
		return err
	}

	if err := s.Redis.Set(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID), string(status), redisx.TTLStatusCache).Err(); err != nil {
		log.Printf("payments: status cache write for %s: %v", orderID, err)
	}
	if err := s.Redis.Set(ctx, dedupKey, 1, redisx.TTLDedup).Err(); err != nil {
		log.Printf("payments: dedup write for %s: %v", env.EventID, err)
	}

	log.Printf("payments: order %s -> %s (ref %s)", orderID, status, p.ExternalReference)
	return nil
}
