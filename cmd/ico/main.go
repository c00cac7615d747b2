package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/dotshell-org/ico-sub000/internal/bridge"
	"github.com/dotshell-org/ico-sub000/internal/config"
	"github.com/dotshell-org/ico-sub000/internal/database"
	"github.com/dotshell-org/ico-sub000/internal/database/repository"
	"github.com/dotshell-org/ico-sub000/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := database.Init(db); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	// repositories
	creditRepo := repository.NewCreditRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	stockRepo := repository.NewStockRepo(db)
	salesRepo := repository.NewSalesRepo(db)
	reportsRepo := repository.NewReportsRepo(db)
	presetRepo := repository.NewPresetRepo(db)

	b := bridge.New(bridge.Deps{
		Credits:       creditRepo,
		Invoices:      invoiceRepo,
		Stock:         stockRepo,
		Sales:         salesRepo,
		Reports:       reportsRepo,
		Presets:       presetRepo,
		Linker:        &service.StockLinker{Stock: stockRepo},
		Maintenance:   &service.MaintenanceService{DB: db},
		CategoryLimit: cfg.Reports.CategoryLimit,
	})

	if err := b.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
