package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/caiovls/merch-admin/internal/config"
	kafkax "github.com/caiovls/merch-admin/internal/kafka"
	"github.com/caiovls/merch-admin/internal/orders"
	"github.com/caiovls/merch-admin/internal/payments"
	"github.com/caiovls/merch-admin/internal/postgres"
	"github.com/caiovls/merch-admin/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &payments.Service{
		Orders: &orders.Repo{DB: db},
		Redis:  rdb,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.PaymentsGroup, payments.TopicPaymentsUpdated, cfg.PaymentsWorkers)

	go func() {
		log.Printf("payment consumer started: group=%s topic=%s workers=%d", cfg.PaymentsGroup, payments.TopicPaymentsUpdated, cfg.PaymentsWorkers)
		if err := cons.Start(ctx, svc.Handle); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
