package checkout

import "context"

// Ledger is the single source of truth for per-product available stock.
// Reserve must be an atomic check-and-decrement: no two concurrent calls on
// the same product may together claim more than the stock either of them
// observed. Calls on different products must not block each other.
type Ledger interface {
	// Reserve claims qty units of a product's stock. Fails with a *StockError
	// if stock < qty, or ErrProductNotFound.
	Reserve(ctx context.Context, productID string, qty int) (Reservation, error)

	// Release reverses a reservation, restoring its quantity. Releasing an
	// already-released or finalized reservation is a no-op; stock is never
	// credited twice.
	Release(ctx context.Context, res Reservation) error

	// Finalize makes a reservation's decrement permanent. After Finalize,
	// Release can no longer restore the quantity.
	Finalize(ctx context.Context, res Reservation) error

	// Restock adds delta units to a product's stock (administrative path,
	// no reservation involved).
	Restock(ctx context.Context, productID string, delta int) error
}

// Catalog provides name/price snapshots. Stock is only authoritative when
// read through the Ledger.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

type OrderStore interface {
	SaveOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}
