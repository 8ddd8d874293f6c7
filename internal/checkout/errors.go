package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductNotFound    = errors.New("product not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidReservation = errors.New("invalid reservation")
	ErrOrderNotFound      = errors.New("order not found")
)

// StockError is returned by Ledger.Reserve when a single product cannot
// cover the requested quantity.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// ShortItem is one line item a checkout attempt could not reserve.
type ShortItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// OutOfStockError aggregates every short line item of one checkout attempt.
// Callers see the full list, never the per-item reservation mechanics.
type OutOfStockError struct {
	Short []ShortItem
}

func (e *OutOfStockError) Error() string {
	ids := make([]string, 0, len(e.Short))
	for _, s := range e.Short {
		ids = append(ids, s.ProductID)
	}
	return "out of stock: " + strings.Join(ids, ", ")
}

func (e *OutOfStockError) Unwrap() error { return ErrInsufficientStock }

// PersistenceError wraps a storage failure that aborted a checkout after all
// reservations had been taken. The reservations are released before it is
// returned.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "order persistence failed: " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }
