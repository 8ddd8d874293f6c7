// Package inventory is the in-memory single logical store: inventory ledger,
// product catalog and order store in one process.
package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dimaspram/go-shop-checkout/internal/checkout"
	"github.com/google/uuid"
)

const (
	resReserved  = "RESERVED"
	resReleased  = "RELEASED"
	resFinalized = "FINALIZED"
)

// entry owns one product. Its mutex serializes every stock read/write and
// every reservation state flip for that product; entries for different
// products never share a lock.
type entry struct {
	mu  sync.Mutex
	p   checkout.Product
	res map[string]string // reservation id -> status
}

type Store struct {
	mu       sync.RWMutex // guards products map membership only
	products map[string]*entry

	orderMu sync.RWMutex
	orders  map[string]*checkout.Order
}

func NewStore() *Store {
	return &Store{
		products: make(map[string]*entry),
		orders:   make(map[string]*checkout.Order),
	}
}

// Put inserts or replaces a product record. Stock of an existing product is
// only written through Reserve/Release/Restock, so Put on an existing id
// keeps the current stock and updates name/price.
func (s *Store) Put(p checkout.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.products[p.ID]; ok {
		e.mu.Lock()
		stock := e.p.Stock
		e.p = p
		e.p.Stock = stock
		e.mu.Unlock()
		return
	}
	s.products[p.ID] = &entry{p: p, res: make(map[string]string)}
}

func (s *Store) entry(productID string) (*entry, bool) {
	s.mu.RLock()
	e, ok := s.products[productID]
	s.mu.RUnlock()
	return e, ok
}

// ---- checkout.Ledger ----

func (s *Store) Reserve(ctx context.Context, productID string, qty int) (checkout.Reservation, error) {
	if qty <= 0 {
		return checkout.Reservation{}, fmt.Errorf("invalid quantity %d", qty)
	}
	e, ok := s.entry(productID)
	if !ok {
		return checkout.Reservation{}, checkout.ErrProductNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.p.Stock < qty {
		return checkout.Reservation{}, &checkout.StockError{
			ProductID: productID, Requested: qty, Available: e.p.Stock,
		}
	}
	e.p.Stock -= qty

	res := checkout.Reservation{ID: uuid.NewString(), ProductID: productID, Qty: qty}
	e.res[res.ID] = resReserved
	return res, nil
}

func (s *Store) Release(ctx context.Context, res checkout.Reservation) error {
	e, ok := s.entry(res.ProductID)
	if !ok {
		return checkout.ErrInvalidReservation
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.res[res.ID] {
	case resReserved:
		e.p.Stock += res.Qty
		e.res[res.ID] = resReleased
		return nil
	case resReleased, resFinalized:
		// idempotent: never credit twice
		return nil
	default:
		return checkout.ErrInvalidReservation
	}
}

func (s *Store) Finalize(ctx context.Context, res checkout.Reservation) error {
	e, ok := s.entry(res.ProductID)
	if !ok {
		return checkout.ErrInvalidReservation
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.res[res.ID] {
	case resReserved:
		e.res[res.ID] = resFinalized
		return nil
	case resFinalized:
		return nil
	default:
		return checkout.ErrInvalidReservation
	}
}

func (s *Store) Restock(ctx context.Context, productID string, delta int) error {
	if delta < 0 {
		return fmt.Errorf("invalid restock delta %d", delta)
	}
	e, ok := s.entry(productID)
	if !ok {
		return checkout.ErrProductNotFound
	}
	e.mu.Lock()
	e.p.Stock += delta
	e.mu.Unlock()
	return nil
}

// ---- checkout.Catalog ----

func (s *Store) GetProduct(ctx context.Context, productID string) (checkout.Product, error) {
	e, ok := s.entry(productID)
	if !ok {
		return checkout.Product{}, checkout.ErrProductNotFound
	}
	e.mu.Lock()
	p := e.p
	e.mu.Unlock()
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]checkout.Product, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.products))
	for _, e := range s.products {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]checkout.Product, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.p)
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- checkout.OrderStore ----

func (s *Store) SaveOrder(ctx context.Context, o *checkout.Order) error {
	s.orderMu.Lock()
	defer s.orderMu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return fmt.Errorf("order already exists: %s", o.ID)
	}
	s.orders[o.ID] = o
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*checkout.Order, error) {
	s.orderMu.RLock()
	o, ok := s.orders[orderID]
	s.orderMu.RUnlock()
	if !ok {
		return nil, checkout.ErrOrderNotFound
	}
	return o, nil
}
