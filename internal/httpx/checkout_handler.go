package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dimaspram/go-shop-checkout/internal/checkout"
	kafkax "github.com/dimaspram/go-shop-checkout/internal/kafka"
	"github.com/dimaspram/go-shop-checkout/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type CheckoutHandler struct {
	Engine  *checkout.Engine
	Catalog checkout.Catalog
	Orders  checkout.OrderStore

	// optional wiring; nil disables caching / event publishing
	Redis          *redis.Client
	ProducerCommit *kafkax.Producer
	ProducerReject *kafkax.Producer

	Service string
}

type CheckoutItemReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type CheckoutReq struct {
	UserID string            `json:"user_id"`
	Items  []CheckoutItemReq `json:"items"`
}

type OrderItemResp struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
	Qty        int    `json:"qty"`
}

type OrderResp struct {
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	Items      []OrderItemResp `json:"items"`
	TotalCents int             `json:"total_cents"`
	CreatedAt  time.Time       `json:"created_at"`
}

type RestockReq struct {
	Delta int `json:"delta"`
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.commitOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/products", h.listProducts)
	r.Post("/products/{id}/restock", h.restock)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *CheckoutHandler) commitOrder(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}

	cart := checkout.Cart{}
	for _, it := range req.Items {
		if it.Qty <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("invalid qty for product %s", it.ProductID),
			})
			return
		}
		cart.Add(it.ProductID, it.Qty)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Engine.CommitOrder(ctx, req.UserID, cart)
	if err != nil {
		h.writeCheckoutError(w, req.UserID, err)
		return
	}

	resp := toOrderResp(order)
	h.cacheOrder(ctx, resp)
	h.publishCommitted(order)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, userID string, err error) {
	var oos *checkout.OutOfStockError
	var pe *checkout.PersistenceError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
	case errors.Is(err, checkout.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &oos):
		h.publishRejected(userID, oos.Short)
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "out_of_stock",
			"short": oos.Short,
		})
	case errors.As(err, &pe):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "order persistence failed"})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
}

func (h *CheckoutHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache fast path; orders are immutable so a hit is always current
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrder, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	order, err := h.Orders.GetOrder(ctx, orderID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	resp := toOrderResp(order)
	h.cacheOrder(ctx, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *CheckoutHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.ListProducts(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CheckoutHandler) restock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	var req RestockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Delta < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must be >= 0"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Engine.Restock(ctx, productID, req.Delta); err != nil {
		if errors.Is(err, checkout.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) cacheOrder(ctx context.Context, resp OrderResp) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrder, resp.OrderID)
	_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(resp), redisx.TTLOrderCache).Err()
}

func (h *CheckoutHandler) publishCommitted(order *checkout.Order) {
	if h.ProducerCommit == nil {
		return
	}
	ev := checkout.Envelope{
		EventID:       uuid.NewString(),
		EventType:     checkout.EventCheckoutCommitted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: order.ID,
		Payload: kafkax.MustMarshal(checkout.CheckoutCommittedPayload{
			OrderID:    order.ID,
			UserID:     order.UserID,
			Items:      checkout.OrderLines(order.Items),
			TotalCents: order.TotalCents,
		}),
	}
	h.ProducerCommit.Publish(checkout.PartitionKey(order.UserID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(checkout.EventCheckoutCommitted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *CheckoutHandler) publishRejected(userID string, short []checkout.ShortItem) {
	if h.ProducerReject == nil {
		return
	}
	ev := checkout.Envelope{
		EventID:       uuid.NewString(),
		EventType:     checkout.EventCheckoutRejected,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: userID,
		Payload: kafkax.MustMarshal(checkout.CheckoutRejectedPayload{
			UserID: userID,
			Reason: "OUT_OF_STOCK",
			Short:  short,
		}),
	}
	h.ProducerReject.Publish(checkout.PartitionKey(userID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(checkout.EventCheckoutRejected)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func toOrderResp(o *checkout.Order) OrderResp {
	items := make([]OrderItemResp, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResp{
			ProductID:  it.ProductID,
			Name:       it.Name,
			PriceCents: it.PriceCents,
			Qty:        it.Qty,
		})
	}
	return OrderResp{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Items:      items,
		TotalCents: o.TotalCents,
		CreatedAt:  o.CreatedAt,
	}
}
