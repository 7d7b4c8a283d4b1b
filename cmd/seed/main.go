// Package main seeds a development database with a small but realistic
// pharmacy data set: lots split across both bins, suppliers with WhatsApp
// contacts and a purchase history for the resolution index.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"pharmstock/internal/domain/purchase"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/domain/supplier"
	"pharmstock/internal/infrastructure/storage/postgres"
	"pharmstock/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	lotRepo := postgres.NewLotRepo(txm)
	supplierRepo := postgres.NewSupplierRepo(txm)
	purchaseRepo := postgres.NewPurchaseRepo(txm)

	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := seedLots(ctx, lotRepo); err != nil {
			return err
		}
		if err := seedSuppliers(ctx, supplierRepo); err != nil {
			return err
		}
		return seedPurchases(ctx, purchaseRepo)
	})
	if err != nil {
		log.Fatalw("seed failed", "error", err)
	}

	log.Info("seed complete")
}

func seedLots(ctx context.Context, repo *postgres.LotRepo) error {
	expiry := func(months int) *time.Time {
		t := time.Now().AddDate(0, months, 0)
		return &t
	}

	lots := []*stock.Lot{
		stock.NewLot("Paracétamol 500mg", "L2401", "Pharma Distrib", 12, 24),
		stock.NewLot("Paracétamol 500mg", "L2407", "Pharma Distrib", 0, 36),
		stock.NewLot("Amoxicilline 1g", "AMX88", "MediSud", 8, 10),
		stock.NewLot("Ibuprofène 400mg", "", "Pharma Distrib", 20, 0),
		stock.NewLot("Doliprane sirop", "DS119", "Laborex", 5, 7),
	}
	lots[0].DatePeremption = expiry(6)
	lots[1].DatePeremption = expiry(14)
	lots[2].DatePeremption = expiry(9)
	lots[4].DatePeremption = expiry(3)

	for _, lot := range lots {
		if err := lot.Validate(ctx); err != nil {
			return err
		}
		if err := repo.Create(ctx, lot); err != nil {
			return err
		}
	}
	return nil
}

func seedSuppliers(ctx context.Context, repo *postgres.SupplierRepo) error {
	type contact struct{ nom, tel string }
	seeds := []struct {
		nom      string
		contacts []contact
	}{
		{"Pharma Distrib", []contact{{"Karim", "+212600000001"}, {"Sofia", "+212600000002"}}},
		{"MediSud", []contact{{"Rachid", "+212600000003"}}},
		{"Laborex", nil},
	}

	for _, s := range seeds {
		sup := supplier.NewSupplier(s.nom)
		for _, c := range s.contacts {
			if err := sup.AddCommercial(supplier.Commercial{Nom: c.nom, Telephone: c.tel}); err != nil {
				return err
			}
		}
		if err := repo.Create(ctx, sup); err != nil {
			return err
		}
	}
	return nil
}

func seedPurchases(ctx context.Context, repo *postgres.PurchaseRepo) error {
	articles, err := json.Marshal([]map[string]any{
		{"produit": "Smecta sachets", "quantite": 30, "numeroLot": "SM774"},
		{"produit": "Doliprane sirop", "quantite": 12},
	})
	if err != nil {
		return err
	}

	p := purchase.New("Laborex", time.Now().AddDate(0, -1, 0), articles)
	return repo.Create(ctx, p)
}
