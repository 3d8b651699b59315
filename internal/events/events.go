package events

import (
	"time"
)

const (
	EventCartCreated = "CartCreated"
	EventCartUpdated = "CartUpdated"
	EventCartDeleted = "CartDeleted"
)

// Kafkaに流すイベントの外枠
type Envelope struct {
	EventID      string           `json:"event_id"`      // uuid
	EventType    string           `json:"event_type"`    // 上のconstのいずれか
	EventVersion int              `json:"event_version"` // 1
	OccurredAt   time.Time        `json:"occurred_at"`   // RFC3339
	Producer     string           `json:"producer"`      // e.g., "cart-api"
	Payload      CartEventPayload `json:"payload"`
}

// カートのライフサイクルイベント本体
type CartEventPayload struct {
	CartID        int64   `json:"cart_id"`
	UserID        int64   `json:"user_id"`
	Total         float64 `json:"total"`
	TotalQuantity int64   `json:"total_quantity"`
}

type Publisher interface {
	Publish(eventType string, payload CartEventPayload)
}

// Kafka未設定時のダミー
type NopPublisher struct{}

func (NopPublisher) Publish(eventType string, payload CartEventPayload) {}
