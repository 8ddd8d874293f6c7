package redisx

import "time"

const (
	// Cache of a committed order's JSON body: order:{order_id}
	KeyOrder = "order:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
