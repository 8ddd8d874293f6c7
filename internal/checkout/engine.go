package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine runs one checkout attempt end-to-end with all-or-nothing semantics:
// either every line item is reserved, the order is persisted and the
// reservations finalized, or every reservation taken during the attempt is
// released and the ledger ends up exactly where it started.
type Engine struct {
	Ledger  Ledger
	Catalog Catalog
	Orders  OrderStore

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// CommitOrder validates the cart against the ledger and, on success, returns
// the created immutable order.
//
// Line items are reserved in ascending product-id order, so concurrent
// checkouts over overlapping carts always contend in the same order and
// cannot deadlock. A shortfall on one item does not abort the pass: the
// remaining items are still checked so the caller gets every short item in
// one *OutOfStockError, then everything acquired is released.
func (e *Engine) CommitOrder(ctx context.Context, userID string, cart Cart) (*Order, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	for id, qty := range cart {
		if qty <= 0 {
			return nil, fmt.Errorf("invalid quantity %d for product %s", qty, id)
		}
	}

	var (
		held  []Reservation
		items []LineItem
		short []ShortItem
	)

	for _, id := range cart.ProductIDs() {
		qty := cart[id]

		res, err := e.Ledger.Reserve(ctx, id, qty)
		if err != nil {
			var se *StockError
			if errors.As(err, &se) {
				short = append(short, ShortItem{
					ProductID: id,
					Name:      e.productName(ctx, id),
					Requested: se.Requested,
					Available: se.Available,
				})
				continue
			}
			e.releaseAll(ctx, held)
			if errors.Is(err, ErrProductNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
			}
			return nil, err
		}

		// Snapshot name/price while the reservation pins the stock.
		p, err := e.Catalog.GetProduct(ctx, id)
		if err != nil {
			e.releaseAll(ctx, append(held, res))
			return nil, err
		}

		held = append(held, res)
		items = append(items, LineItem{
			ProductID:  id,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Qty:        qty,
		})
	}

	if len(short) > 0 {
		e.releaseAll(ctx, held)
		return nil, &OutOfStockError{Short: short}
	}

	total := 0
	for _, it := range items {
		total += it.PriceCents * it.Qty
	}

	order := &Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Items:      items,
		TotalCents: total,
		CreatedAt:  e.now(),
	}

	if err := e.Orders.SaveOrder(ctx, order); err != nil {
		e.releaseAll(ctx, held)
		return nil, &PersistenceError{Err: err}
	}

	for _, res := range held {
		// Reserve already decremented; this only pins the claim.
		_ = e.Ledger.Finalize(ctx, res)
	}
	return order, nil
}

// Restock is the administrative stock-increase path, passed through to the
// ledger untouched.
func (e *Engine) Restock(ctx context.Context, productID string, delta int) error {
	return e.Ledger.Restock(ctx, productID, delta)
}

func (e *Engine) releaseAll(ctx context.Context, held []Reservation) {
	for _, res := range held {
		_ = e.Ledger.Release(ctx, res)
	}
}

func (e *Engine) productName(ctx context.Context, id string) string {
	p, err := e.Catalog.GetProduct(ctx, id)
	if err != nil {
		return ""
	}
	return p.Name
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}
