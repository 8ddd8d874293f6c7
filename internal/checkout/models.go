package checkout

import (
	"sort"
	"time"
)

type Product struct {
	ID         string
	Name       string
	PriceCents int
	Stock      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Cart maps product id -> requested quantity. It is owned by the caller's
// session; the engine only reads it.
type Cart map[string]int

// Add merges quantity into the cart: re-adding a product increases its
// quantity instead of creating a duplicate line. Non-positive qty is ignored.
func (c Cart) Add(productID string, qty int) {
	if qty <= 0 {
		return
	}
	c[productID] += qty
}

func (c Cart) IsEmpty() bool { return len(c) == 0 }

// ProductIDs returns the cart's product ids in ascending order. Reservations
// are always taken in this order so two concurrent checkouts can never wait
// on each other in a cycle.
func (c Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LineItem carries the name and price as they were at reservation time;
// later catalog changes never show through.
type LineItem struct {
	ProductID  string
	Name       string
	PriceCents int
	Qty        int
}

type Order struct {
	ID         string
	UserID     string
	Items      []LineItem
	TotalCents int
	CreatedAt  time.Time
}

// Reservation is a transient claim of Qty units against one product's stock,
// handed out by a Ledger. It is either finalized (the decrement becomes
// permanent) or released (the quantity goes back).
type Reservation struct {
	ID        string
	ProductID string
	Qty       int
}
