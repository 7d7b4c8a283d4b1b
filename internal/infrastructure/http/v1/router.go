// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"pharmstock/internal/domain/ledger"
	"pharmstock/internal/domain/orders"
	"pharmstock/internal/domain/realtime"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/domain/supplier"
	"pharmstock/internal/infrastructure/http/v1/handlers"
	"pharmstock/internal/infrastructure/http/v1/middleware"
	"pharmstock/internal/infrastructure/storage/postgres"
	"pharmstock/pkg/logger"
)

// RouterConfig wires the router's dependencies.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Auditor   *postgres.AuditService
	Logger    *logger.Logger
	Registry  *realtime.Registry

	// Sync overrides the default sync service; the worker binary shares
	// its own instance when it embeds the API.
	Sync *realtime.SyncService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestContext())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	txm := cfg.TxManager
	auditor := cfg.Auditor

	// Repositories
	saleRepo := postgres.NewSaleRepo(txm)
	lotRepo := postgres.NewLotRepo(txm)
	ledgerRepo := postgres.NewLedgerRepo(txm)
	orderRepo := postgres.NewOrderRepo(txm)
	supplierRepo := postgres.NewSupplierRepo(txm)
	purchaseRepo := postgres.NewPurchaseRepo(txm)

	// Services
	ledgerSvc := ledger.NewService(ledgerRepo)
	supplierSvc := supplier.NewService(supplierRepo, txm)
	orderSvc := orders.NewService(orderRepo, ledgerSvc, saleRepo, lotRepo, purchaseRepo, supplierSvc, txm)

	sync := cfg.Sync
	if sync == nil {
		engine := stock.NewEngine(lotRepo, ledgerSvc, auditor, txm)
		sync = realtime.NewSyncService(engine, cfg.Registry)
	}

	baseHandler := handlers.NewBaseHandler()
	ordersHandler := handlers.NewOrdersHandler(baseHandler, orderSvc, cfg.Registry)
	stockHandler := handlers.NewStockHandler(baseHandler, lotRepo, auditor, txm)
	salesHandler := handlers.NewSalesHandler(baseHandler, saleRepo, purchaseRepo, sync)
	supplierHandler := handlers.NewSupplierHandler(baseHandler, supplierSvc)

	api := router.Group("/api/v1")
	{
		ordersGroup := api.Group("/orders")
		{
			ordersGroup.GET("", ordersHandler.List)
			ordersGroup.GET("/events", ordersHandler.Events)
			ordersGroup.POST("/send", ordersHandler.Send)
			ordersGroup.POST("/validate", ordersHandler.Validate)
			ordersGroup.POST("/clean", ordersHandler.Clean)
			ordersGroup.POST("/remove", ordersHandler.Remove)
			ordersGroup.POST("/duplicate", ordersHandler.Duplicate)
			ordersGroup.POST("/manual", ordersHandler.AddManual)
		}

		stockGroup := api.Group("/stock")
		{
			stockGroup.GET("/lots", stockHandler.List)
			stockGroup.POST("/lots", stockHandler.Create)
			stockGroup.GET("/lots/:id", stockHandler.Get)
			stockGroup.GET("/lots/:id/history", stockHandler.History)
		}

		api.POST("/sales", salesHandler.Ingest)
		api.GET("/sales/:id", salesHandler.Get)
		api.POST("/purchases", salesHandler.IngestPurchase)
		api.GET("/purchases", salesHandler.ListPurchases)

		suppliersGroup := api.Group("/suppliers")
		{
			suppliersGroup.GET("", supplierHandler.List)
			suppliersGroup.POST("/:nom/contacts", supplierHandler.AddContact)
			suppliersGroup.DELETE("/:nom/contacts/:telephone", supplierHandler.RemoveContact)
		}
	}

	return router
}
