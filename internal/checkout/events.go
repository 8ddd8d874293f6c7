package checkout

import (
	"encoding/json"
	"time"
)

const (
	EventCheckoutCommitted = "CheckoutCommitted"
	EventCheckoutRejected  = "CheckoutRejected"
	EventRestockRequested  = "RestockRequested"
)

// Envelope wraps every published event. EventID is a uuid, EventType one of
// the consts above, CorrelationID the order or product the event is about.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload types per event ----

type OrderLine struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
	Qty        int    `json:"qty"`
}

type CheckoutCommittedPayload struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Items      []OrderLine `json:"items"`
	TotalCents int         `json:"total_cents"`
}

type CheckoutRejectedPayload struct {
	UserID string      `json:"user_id"`
	Reason string      `json:"reason"` // e.g., OUT_OF_STOCK
	Short  []ShortItem `json:"short,omitempty"`
}

type RestockRequestedPayload struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
}

func OrderLines(items []LineItem) []OrderLine {
	out := make([]OrderLine, 0, len(items))
	for _, it := range items {
		out = append(out, OrderLine{
			ProductID:  it.ProductID,
			Name:       it.Name,
			PriceCents: it.PriceCents,
			Qty:        it.Qty,
		})
	}
	return out
}
