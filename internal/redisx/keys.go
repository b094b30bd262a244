package redisx

import "time"

const (
	// Cache of an order's aggregate status: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup of consumed notification events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Unread notification counter per user: notif_unread:{user_id}
	KeyUnreadCount = "notif_unread:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
