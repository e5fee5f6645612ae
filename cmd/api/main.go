package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/caiovls/merch-admin/internal/catalog"
	"github.com/caiovls/merch-admin/internal/config"
	"github.com/caiovls/merch-admin/internal/httpx"
	kafkax "github.com/caiovls/merch-admin/internal/kafka"
	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/payments"
	"github.com/caiovls/merch-admin/internal/postgres"
	"github.com/caiovls/merch-admin/internal/redisx"
	"github.com/caiovls/merch-admin/internal/stock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// one producer per topic, same async flush loop
	prodOrders := kafkax.NewProducer(cfg.KafkaBrokers, payments.TopicOrdersCreated, 1024)
	prodOrders.Start(ctx)
	prodPayments := kafkax.NewProducer(cfg.KafkaBrokers, payments.TopicPaymentsUpdated, 1024)
	prodPayments.Start(ctx)

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{
		Repo:     &orders.Repo{DB: db},
		Producer: prodOrders,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}).Register(router)
	(&httpx.CatalogHandler{
		Repo:  &catalog.Repo{Q: db},
		Redis: rdb,
	}).Register(router)
	(&httpx.AdminHandler{
		Store: &stock.PgStore{Q: db},
		Redis: rdb,
	}).Register(router)
	(&httpx.WebhookHandler{
		Producer: prodPayments,
		Service:  cfg.ServiceName,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prodOrders.Close()
	prodPayments.Close()
	cancel()
	prodOrders.WaitClosed()
	prodPayments.WaitClosed()
}
