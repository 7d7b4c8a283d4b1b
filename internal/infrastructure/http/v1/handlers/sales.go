package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmstock/internal/domain/purchase"
	"pharmstock/internal/domain/realtime"
	"pharmstock/internal/domain/sales"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// SalesHandler ingests sale and purchase documents from the point of sale.
type SalesHandler struct {
	*BaseHandler
	saleRepo     sales.Repository
	purchaseRepo purchase.Repository
	sync         *realtime.SyncService
}

// NewSalesHandler creates a sales handler.
func NewSalesHandler(base *BaseHandler, saleRepo sales.Repository, purchaseRepo purchase.Repository, sync *realtime.SyncService) *SalesHandler {
	return &SalesHandler{
		BaseHandler:  base,
		saleRepo:     saleRepo,
		purchaseRepo: purchaseRepo,
		sync:         sync,
	}
}

// Ingest stores a sale and applies its lines to stock in the same request,
// so the counter sees quantities move immediately. The worker's listener
// re-checks the sale later; the ledger makes that overlap harmless.
// POST /api/v1/sales
func (h *SalesHandler) Ingest(c *gin.Context) {
	var req dto.IngestSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale := sales.NewSale(req.ID, req.Date, req.Payload)
	if err := sale.Validate(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.saleRepo.Create(c.Request.Context(), sale); err != nil {
		h.Error(c, err)
		return
	}

	summary, err := h.sync.HandleSale(c.Request.Context(), sale)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// Get returns one sale document.
// GET /api/v1/sales/:id
func (h *SalesHandler) Get(c *gin.Context) {
	sale, err := h.saleRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

// IngestPurchase records a purchase document; it feeds the supplier
// resolution index.
// POST /api/v1/purchases
func (h *SalesHandler) IngestPurchase(c *gin.Context) {
	var req dto.IngestPurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := purchase.New(req.Fournisseur, req.Date, req.Articles)
	if err := h.purchaseRepo.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID.String())
}

// ListPurchases returns every purchase, newest first.
// GET /api/v1/purchases
func (h *SalesHandler) ListPurchases(c *gin.Context) {
	purchases, err := h.purchaseRepo.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: purchases, Count: len(purchases)})
}
