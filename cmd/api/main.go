package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimaspram/go-shop-checkout/internal/checkout"
	"github.com/dimaspram/go-shop-checkout/internal/config"
	"github.com/dimaspram/go-shop-checkout/internal/httpx"
	"github.com/dimaspram/go-shop-checkout/internal/inventory"
	kafkax "github.com/dimaspram/go-shop-checkout/internal/kafka"
	"github.com/dimaspram/go-shop-checkout/internal/postgres"
	"github.com/dimaspram/go-shop-checkout/internal/redisx"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		ledger  checkout.Ledger
		catalog checkout.Catalog
		orders  checkout.OrderStore
	)
	switch cfg.StoreBackend {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer db.Close()
		st := &postgres.Store{DB: db}
		ledger, catalog, orders = st, st, st
	default:
		st := inventory.NewStore()
		if cfg.SeedFile != "" {
			if err := seedProducts(st, cfg.SeedFile); err != nil {
				log.Fatalf("seed products: %v", err)
			}
		}
		ledger, catalog, orders = st, st, st
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pCommit := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicCheckoutCommitted, 1024)
	pCommit.Start(ctx)
	pReject := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicCheckoutRejected, 1024)
	pReject.Start(ctx)

	engine := &checkout.Engine{Ledger: ledger, Catalog: catalog, Orders: orders}

	router := httpx.NewRouter()
	h := &httpx.CheckoutHandler{
		Engine:         engine,
		Catalog:        catalog,
		Orders:         orders,
		Redis:          rdb,
		ProducerCommit: pCommit,
		ProducerReject: pReject,
		Service:        cfg.ServiceName,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("HTTP listening at %s (backend=%s)", cfg.HTTPAddr, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
			log.Println("shutting down...")
		case <-gctx.Done():
		}
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		return srv.Shutdown(shutCtx)
	})
	if err := g.Wait(); err != nil {
		log.Printf("serve: %v", err)
	}

	pCommit.Close() // stop intake -> flush & close writer
	pReject.Close()
	cancel()
	pCommit.WaitClosed()
	pReject.WaitClosed()
}

type seedProduct struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int    `json:"price_cents"`
	Stock      int    `json:"stock"`
}

func seedProducts(st *inventory.Store, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seeds []seedProduct
	if err := json.Unmarshal(b, &seeds); err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, sp := range seeds {
		st.Put(checkout.Product{
			ID:         sp.ID,
			Name:       sp.Name,
			PriceCents: sp.PriceCents,
			Stock:      sp.Stock,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	log.Printf("seeded %d products from %s", len(seeds), path)
	return nil
}
