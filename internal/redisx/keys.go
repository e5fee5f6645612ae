package redisx

import "time"

const (
	// Idempotency create order: idem:order:create:{external_reference} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Denormalized storefront catalog (availability + quantity per product/size).
	KeyCatalogSnapshot = "catalog:snapshot"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLSnapshot    = 10 * time.Minute
)
