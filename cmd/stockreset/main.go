package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/caiovls/merch-admin/internal/config"
	"github.com/caiovls/merch-admin/internal/postgres"
	"github.com/caiovls/merch-admin/internal/reconcile"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report the reset without persisting anything")
	confirm := flag.Bool("confirm", false, "required for a real run: this rewrites every counter")
	baselinePath := flag.String("baseline", "", "baseline file (default from STOCK_BASELINE_PATH)")
	setup := flag.Bool("setup", false, "initial seeding: keeps order flags, ledger kind 'setup'")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	path := *baselinePath
	if path == "" {
		path = cfg.BaselinePath
	}
	baseline, err := reconcile.LoadBaseline(path)
	if err != nil {
		log.Fatalf("baseline: %v", err)
	}

	if !*dryRun && !*confirm {
		fmt.Fprintln(os.Stderr, "refusing to reset stock without -confirm (use -dry-run to preview)")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	eng := &reconcile.Engine{Store: reconcile.NewPgStore(db)}
	sum, err := eng.Reset(ctx, baseline, reconcile.ResetOptions{
		DryRun: *dryRun,
		Setup:  *setup,
	})
	if err != nil {
		log.Fatalf("stock reset: %v", err)
	}
	fmt.Print(sum.String())
}
