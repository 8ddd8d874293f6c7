package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dimaspram/go-shop-checkout/internal/checkout"
	"github.com/dimaspram/go-shop-checkout/internal/config"
	kafkax "github.com/dimaspram/go-shop-checkout/internal/kafka"
	"github.com/dimaspram/go-shop-checkout/internal/postgres"
	"github.com/dimaspram/go-shop-checkout/internal/redisx"
	"github.com/dimaspram/go-shop-checkout/internal/restock"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// restocks always land in the shared store
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &restock.Service{
		Ledger:      &postgres.Store{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-restocker",
	}

	group := getenv("RESTOCK_GROUP", "restocker")
	workers := mustAtoi(os.Getenv("RESTOCK_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, checkout.TopicRestockRequested, workers)

	go func() {
		log.Printf("restock consumer started: group=%s topic=%s workers=%d",
			group, checkout.TopicRestockRequested, workers)
		if err := cons.Start(ctx, svc.HandleRestockRequested); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
