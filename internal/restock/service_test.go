package restock

import (
	"context"
	"testing"
	"time"

	"github.com/dimaspram/go-shop-checkout/internal/checkout"
	kafkax "github.com/dimaspram/go-shop-checkout/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimaspram/go-shop-checkout/internal/inventory"
)

func restockMessage(t *testing.T, productID string, delta int) kafkago.Message {
	t.Helper()
	env := checkout.Envelope{
		EventID:       uuid.NewString(),
		EventType:     checkout.EventRestockRequested,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      "admin-cli",
		CorrelationID: productID,
		Payload: kafkax.MustMarshal(checkout.RestockRequestedPayload{
			ProductID: productID,
			Delta:     delta,
		}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandleRestockRequested(t *testing.T) {
	st := inventory.NewStore()
	st.Put(checkout.Product{ID: "p-1", Name: "Kettle", Stock: 2})
	svc := &Service{Ledger: st, ServiceName: "restocker-test"}
	ctx := context.Background()

	require.NoError(t, svc.HandleRestockRequested(ctx, restockMessage(t, "p-1", 8)))

	p, err := st.GetProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestHandleRestockRequestedUnknownProduct(t *testing.T) {
	st := inventory.NewStore()
	svc := &Service{Ledger: st, ServiceName: "restocker-test"}

	err := svc.HandleRestockRequested(context.Background(), restockMessage(t, "ghost", 1))
	assert.ErrorIs(t, err, checkout.ErrProductNotFound)
}

func TestHandleIgnoresForeignEvents(t *testing.T) {
	st := inventory.NewStore()
	st.Put(checkout.Product{ID: "p-1", Name: "Kettle", Stock: 2})
	svc := &Service{Ledger: st, ServiceName: "restocker-test"}
	ctx := context.Background()

	env := checkout.Envelope{
		EventID:      uuid.NewString(),
		EventType:    checkout.EventCheckoutCommitted,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Payload:      kafkax.MustMarshal(map[string]string{}),
	}
	require.NoError(t, svc.HandleRestockRequested(ctx, kafkago.Message{Value: kafkax.MustMarshal(env)}))

	p, err := st.GetProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock, "foreign event types must not touch stock")
}
