// Package restock applies administrative stock increases delivered over
// Kafka against the inventory ledger.
package restock

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/dimaspram/go-shop-checkout/internal/checkout"
	kafkax "github.com/dimaspram/go-shop-checkout/internal/kafka"
	"github.com/dimaspram/go-shop-checkout/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type Service struct {
	Ledger      checkout.Ledger
	Redis       *redis.Client
	ServiceName string
}

// HandleRestockRequested is wired as the consumer handler for the
// inventory.restock.requested topic.
func (s *Service) HandleRestockRequested(ctx context.Context, m kafkago.Message) error {
	var env checkout.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != checkout.EventRestockRequested {
		return nil // ignore
	}

	// dedup via Redis so a redelivered event never double-credits stock
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "restocker", env.EventID)
		exists, _ := redisx.Exists(ctx, s.Redis, dkey)
		if exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[checkout.RestockRequestedPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Ledger.Restock(ctx, p.ProductID, p.Delta); err != nil {
		log.Printf("restock %s by %d failed: %v", p.ProductID, p.Delta, err)
		return err
	}
	log.Printf("restocked %s by %d (event %s)", p.ProductID, p.Delta, env.EventID)
	return nil
}
