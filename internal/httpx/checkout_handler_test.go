package httpx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimaspram/go-shop-checkout/internal/checkout"
	"github.com/dimaspram/go-shop-checkout/internal/httpx"
	"github.com/dimaspram/go-shop-checkout/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, products ...checkout.Product) (*httptest.Server, *inventory.Store) {
	t.Helper()
	st := inventory.NewStore()
	for _, p := range products {
		st.Put(p)
	}
	engine := &checkout.Engine{Ledger: st, Catalog: st, Orders: st}
	h := &httpx.CheckoutHandler{
		Engine:  engine,
		Catalog: st,
		Orders:  st,
		Service: "checkout-api-test",
	}
	router := httpx.NewRouter()
	h.Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestCheckoutEndpointHappyPath(t *testing.T) {
	srv, st := newTestServer(t,
		checkout.Product{ID: "p-1", Name: "Kettle", PriceCents: 2500, Stock: 5},
	)

	resp := postJSON(t, srv.URL+"/checkout", httpx.CheckoutReq{
		UserID: "alice",
		Items: []httpx.CheckoutItemReq{
			{ProductID: "p-1", Qty: 1},
			{ProductID: "p-1", Qty: 1}, // merged into one line of qty 2
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[httpx.OrderResp](t, resp)
	assert.NotEmpty(t, got.OrderID)
	assert.Equal(t, "alice", got.UserID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Qty)
	assert.Equal(t, 5000, got.TotalCents)

	p, err := st.GetProduct(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestCheckoutEndpointOutOfStock(t *testing.T) {
	srv, st := newTestServer(t,
		checkout.Product{ID: "p-1", Name: "Kettle", PriceCents: 2500, Stock: 5},
		checkout.Product{ID: "p-2", Name: "Mug", PriceCents: 700, Stock: 0},
	)

	resp := postJSON(t, srv.URL+"/checkout", httpx.CheckoutReq{
		UserID: "alice",
		Items: []httpx.CheckoutItemReq{
			{ProductID: "p-1", Qty: 1},
			{ProductID: "p-2", Qty: 1},
		},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decode[struct {
		Error string               `json:"error"`
		Short []checkout.ShortItem `json:"short"`
	}](t, resp)
	assert.Equal(t, "out_of_stock", body.Error)
	require.Len(t, body.Short, 1)
	assert.Equal(t, "p-2", body.Short[0].ProductID)

	p, err := st.GetProduct(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock, "reservation on p-1 must have been released")
}

func TestCheckoutEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t,
		checkout.Product{ID: "p-1", Name: "Kettle", PriceCents: 2500, Stock: 5},
	)

	resp := postJSON(t, srv.URL+"/checkout", httpx.CheckoutReq{UserID: "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/checkout", httpx.CheckoutReq{
		UserID: "alice",
		Items:  []httpx.CheckoutItemReq{{ProductID: "p-1", Qty: 0}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/checkout", httpx.CheckoutReq{
		UserID: "alice",
		Items:  []httpx.CheckoutItemReq{{ProductID: "p-9", Qty: 1}},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGetOrderEndpoint(t *testing.T) {
	srv, _ := newTestServer(t,
		checkout.Product{ID: "p-1", Name: "Kettle", PriceCents: 2500, Stock: 5},
	)

	created := decode[httpx.OrderResp](t, postJSON(t, srv.URL+"/checkout", httpx.CheckoutReq{
		UserID: "alice",
		Items:  []httpx.CheckoutItemReq{{ProductID: "p-1", Qty: 1}},
	}))

	resp, err := http.Get(fmt.Sprintf("%s/orders/%s", srv.URL, created.OrderID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[httpx.OrderResp](t, resp)
	assert.Equal(t, created.OrderID, got.OrderID)
	assert.Equal(t, created.TotalCents, got.TotalCents)

	resp, err = http.Get(srv.URL + "/orders/does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestRestockEndpoint(t *testing.T) {
	srv, _ := newTestServer(t,
		checkout.Product{ID: "p-1", Name: "Kettle", PriceCents: 2500, Stock: 0},
	)

	resp := postJSON(t, srv.URL+"/checkout", httpx.CheckoutReq{
		UserID: "alice",
		Items:  []httpx.CheckoutItemReq{{ProductID: "p-1", Qty: 1}},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/products/p-1/restock", httpx.RestockReq{Delta: 3})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/checkout", httpx.CheckoutReq{
		UserID: "alice",
		Items:  []httpx.CheckoutItemReq{{ProductID: "p-1", Qty: 1}},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/products/nope/restock", httpx.RestockReq{Delta: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/products/p-1/restock", httpx.RestockReq{Delta: -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
