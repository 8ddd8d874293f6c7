// Package postgres backs the checkout core with a single database: products,
// orders + order_items, and a reservations table whose status column guards
// against double-credit on release.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimaspram/go-shop-checkout/internal/checkout"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct{ DB *pgxpool.Pool }

// ---- checkout.Ledger ----

// Reserve is a single conditional decrement: the WHERE stock >= $2 clause is
// the atomic check-and-decrement, so no two reservations can together take
// more than the row held.
func (s *Store) Reserve(ctx context.Context, productID string, qty int) (checkout.Reservation, error) {
	if qty <= 0 {
		return checkout.Reservation{}, fmt.Errorf("invalid quantity %d", qty)
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return checkout.Reservation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return checkout.Reservation{}, err
	}
	if ct.RowsAffected() == 0 {
		var available int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			return checkout.Reservation{}, checkout.ErrProductNotFound
		}
		if err != nil {
			return checkout.Reservation{}, err
		}
		return checkout.Reservation{}, &checkout.StockError{
			ProductID: productID, Requested: qty, Available: available,
		}
	}

	res := checkout.Reservation{ID: uuid.NewString(), ProductID: productID, Qty: qty}
	if _, err := tx.Exec(ctx, `
		INSERT INTO reservations(id, product_id, qty, status)
		VALUES ($1, $2, $3, 'RESERVED')`, res.ID, res.ProductID, res.Qty); err != nil {
		return checkout.Reservation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return checkout.Reservation{}, err
	}
	return res, nil
}

// Release credits stock back only when it wins the RESERVED->RELEASED flip;
// a second release sees zero rows affected and becomes a no-op.
func (s *Store) Release(ctx context.Context, res checkout.Reservation) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var qty int
	err = tx.QueryRow(ctx, `
		UPDATE reservations SET status = 'RELEASED'
		WHERE id = $1 AND status = 'RESERVED'
		RETURNING qty`, res.ID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.reservationNoop(ctx, res.ID)
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1`, res.ProductID, qty); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Finalize(ctx context.Context, res checkout.Reservation) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE reservations SET status = 'FINALIZED'
		WHERE id = $1 AND status = 'RESERVED'`, res.ID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var status string
	err = s.DB.QueryRow(ctx, `SELECT status FROM reservations WHERE id = $1`, res.ID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return checkout.ErrInvalidReservation
	}
	if err != nil {
		return err
	}
	if status == "FINALIZED" {
		return nil
	}
	// a released reservation cannot be made permanent
	return checkout.ErrInvalidReservation
}

func (s *Store) Restock(ctx context.Context, productID string, delta int) error {
	if delta < 0 {
		return fmt.Errorf("invalid restock delta %d", delta)
	}
	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1`, productID, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return checkout.ErrProductNotFound
	}
	return nil
}

// reservationNoop distinguishes "already released/finalized" (fine) from an
// unknown reservation id.
func (s *Store) reservationNoop(ctx context.Context, resID string) error {
	var status string
	err := s.DB.QueryRow(ctx, `SELECT status FROM reservations WHERE id = $1`, resID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return checkout.ErrInvalidReservation
	}
	return err
}

// ---- checkout.Catalog ----

func (s *Store) GetProduct(ctx context.Context, productID string) (checkout.Product, error) {
	var p checkout.Product
	err := s.DB.QueryRow(ctx, `
		SELECT id, name, price_cents, stock, created_at, updated_at
		FROM products WHERE id = $1`, productID).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return checkout.Product{}, checkout.ErrProductNotFound
	}
	if err != nil {
		return checkout.Product{}, err
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]checkout.Product, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, price_cents, stock, created_at, updated_at
		FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []checkout.Product
	for rows.Next() {
		var p checkout.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---- checkout.OrderStore ----

func (s *Store) SaveOrder(ctx context.Context, o *checkout.Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, total_cents, created_at)
		VALUES ($1, $2, $3, $4)`, o.ID, o.UserID, o.TotalCents, o.CreatedAt); err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, name, price_cents, qty)
			VALUES ($1, $2, $3, $4, $5)`,
			o.ID, it.ProductID, it.Name, it.PriceCents, it.Qty); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*checkout.Order, error) {
	var o checkout.Order
	err := s.DB.QueryRow(ctx, `
		SELECT id, user_id, total_cents, created_at
		FROM orders WHERE id = $1`, orderID).
		Scan(&o.ID, &o.UserID, &o.TotalCents, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, checkout.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
		SELECT product_id, name, price_cents, qty
		FROM order_items WHERE order_id = $1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it checkout.LineItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.PriceCents, &it.Qty); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}
