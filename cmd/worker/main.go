// Package main is the entry point for the pharmstock background worker. It
// listens for newly ingested sales and applies them to stock; the polling
// fallback catches sales the server processed while the worker was down or
// that failed on a transient error.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pharmstock/internal/domain/ledger"
	"pharmstock/internal/domain/realtime"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/infrastructure/storage/postgres"
	"pharmstock/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting pharmstock worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	auditor, err := postgres.NewAuditService(txm)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	saleRepo := postgres.NewSaleRepo(txm)
	lotRepo := postgres.NewLotRepo(txm)
	ledgerSvc := ledger.NewService(postgres.NewLedgerRepo(txm))
	engine := stock.NewEngine(lotRepo, ledgerSvc, auditor, txm)
	sync_ := realtime.NewSyncService(engine, nil)

	pollInterval := getEnvDuration("SALES_POLL_INTERVAL", 30*time.Second)
	listener := postgres.NewSaleListener(pool, saleRepo, sync_, pollInterval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("sales listener stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
