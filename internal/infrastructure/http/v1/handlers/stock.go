package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/tx"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/infrastructure/http/v1/dto"
	"pharmstock/internal/infrastructure/storage/postgres"
)

// StockHandler serves the lot inventory.
type StockHandler struct {
	*BaseHandler
	repo    stock.Repository
	auditor *postgres.AuditService
	txm     tx.Manager
}

// NewStockHandler creates a stock handler.
func NewStockHandler(base *BaseHandler, repo stock.Repository, auditor *postgres.AuditService, txm tx.Manager) *StockHandler {
	return &StockHandler{BaseHandler: base, repo: repo, auditor: auditor, txm: txm}
}

// List returns every lot.
// GET /api/v1/stock/lots
func (h *StockHandler) List(c *gin.Context) {
	lots, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: lots, Count: len(lots)})
}

// Get returns one lot.
// GET /api/v1/stock/lots/:id
func (h *StockHandler) Get(c *gin.Context) {
	lotID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid lot id").WithDetail("id", c.Param("id")))
		return
	}

	lot, err := h.repo.GetByID(c.Request.Context(), lotID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, lot)
}

// Create inserts a lot.
// POST /api/v1/stock/lots
func (h *StockHandler) Create(c *gin.Context) {
	var req dto.CreateLotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lot := stock.NewLot(req.Nom, req.NumeroLot, req.Fournisseur, req.Stock1, req.Stock2)
	lot.DatePeremption = req.DatePeremption
	if err := lot.Validate(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}

	err := h.txm.RunInTransaction(c.Request.Context(), func(ctx context.Context) error {
		return h.repo.Create(ctx, lot)
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, lot.ID.String())
}

// History returns the audit trail of one lot, newest first.
// GET /api/v1/stock/lots/:id/history
func (h *StockHandler) History(c *gin.Context) {
	lotID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid lot id").WithDetail("id", c.Param("id")))
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	entries, err := h.auditor.GetEntityHistory(c.Request.Context(), "stock_lot", lotID.String(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: entries, Count: len(entries)})
}
