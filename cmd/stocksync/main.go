package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/caiovls/merch-admin/internal/catalog"
	"github.com/caiovls/merch-admin/internal/config"
	kafkax "github.com/caiovls/merch-admin/internal/kafka"
	"github.com/caiovls/merch-admin/internal/payments"
	"github.com/caiovls/merch-admin/internal/postgres"
	"github.com/caiovls/merch-admin/internal/reconcile"
	"github.com/caiovls/merch-admin/internal/redisx"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "simulate the pass without persisting anything")
	days := flag.Int("days", 30, "lookback window in days for candidate orders")
	reprocess := flag.Bool("reprocess", false, "include orders already marked as decremented")
	associate := flag.Bool("associate", false, "backfill variant links on legacy orders before the pass")
	emitCatalog := flag.Bool("emit-catalog", false, "write the storefront catalog snapshot after the pass")
	catalogOut := flag.String("catalog-out", "catalog_snapshot.json", "snapshot output path")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	store := reconcile.NewPgStore(db)
	eng := &reconcile.Engine{Store: store}

	if *associate {
		asum, err := eng.AssociateLegacy(ctx, *dryRun)
		if err != nil {
			log.Fatalf("legacy association: %v", err)
		}
		fmt.Print(asum.String())
	}

	sum, err := eng.Run(ctx, reconcile.Options{
		DryRun:       *dryRun,
		LookbackDays: *days,
		Reprocess:    *reprocess,
	})
	if err != nil {
		log.Fatalf("stock sync: %v", err)
	}
	fmt.Print(sum.String())

	if !*dryRun {
		publishAlerts(ctx, cfg, sum)
	}

	if !*dryRun {
		if *emitCatalog {
			if err := emitSnapshot(ctx, cfg, db, *catalogOut); err != nil {
				log.Fatalf("emit catalog: %v", err)
			}
			fmt.Printf("catalog snapshot written to %s\n", *catalogOut)
		} else {
			// counters moved; drop the cached snapshot so /catalog rebuilds
			rdb := redisx.New(cfg.RedisAddr)
			if err := rdb.Del(ctx, redisx.KeyCatalogSnapshot).Err(); err != nil {
				log.Printf("snapshot cache invalidation: %v", err)
			}
			_ = rdb.Close()
		}
	}

	if sum.Errored > 0 {
		os.Exit(1)
	}
}

// publishAlerts emits one stock.alert event per sold-out or low variant so
// downstream channels (storefront banner, staff notifications) can react.
func publishAlerts(ctx context.Context, cfg config.Config, sum *reconcile.Summary) {
	if len(sum.ZeroStock) == 0 && len(sum.LowStock) == 0 {
		return
	}

	pctx, cancel := context.WithCancel(ctx)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, payments.TopicStockAlert, 256)
	prod.Start(pctx)

	emit := func(ref catalog.VariantRef, level string) {
		ev := payments.NewEnvelope(payments.EventStockAlert, cfg.ServiceName+"-stocksync", ref.ProductKey,
			payments.StockAlertPayload{
				ProductKey: ref.ProductKey,
				Size:       ref.Variant.Size,
				VariantID:  ref.Variant.ID,
				Quantity:   ref.Variant.Quantity,
				Level:      level,
			})
		prod.Publish(payments.PartitionKey(ref.ProductKey), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(payments.EventStockAlert)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
	for _, ref := range sum.ZeroStock {
		emit(ref, "zero")
	}
	for _, ref := range sum.LowStock {
		emit(ref, "low")
	}

	prod.Close()
	cancel()
	prod.WaitClosed()
}

// emitSnapshot rebuilds the storefront snapshot from the freshly synced
// counters, writes it to disk and refreshes the Redis copy.
func emitSnapshot(ctx context.Context, cfg config.Config, db postgres.Querier, path string) error {
	repo := &catalog.Repo{Q: db}
	snap, err := repo.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	if err := snap.WriteFile(path); err != nil {
		return err
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	b, _ := json.Marshal(snap)
	if err := rdb.Set(ctx, redisx.KeyCatalogSnapshot, b, redisx.TTLSnapshot).Err(); err != nil {
		log.Printf("snapshot cache refresh: %v", err)
	}
	return nil
}
