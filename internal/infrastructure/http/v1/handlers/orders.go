package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/orders"
	"pharmstock/internal/domain/realtime"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// OrdersHandler serves the ordering screen: the reconciled list, the send
// flow and the line lifecycle.
type OrdersHandler struct {
	*BaseHandler
	service  *orders.Service
	registry *realtime.Registry
}

// NewOrdersHandler creates an orders handler.
func NewOrdersHandler(base *BaseHandler, service *orders.Service, registry *realtime.Registry) *OrdersHandler {
	return &OrdersHandler{BaseHandler: base, service: service, registry: registry}
}

// List returns the "to order" list grouped by supplier.
// GET /api/v1/orders
func (h *OrdersHandler) List(c *gin.Context) {
	groups, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.OrderListResponse{Groups: groups})
}

// Send freezes a supplier's sendable lines and returns the WhatsApp link.
// POST /api/v1/orders/send
func (h *OrdersHandler) Send(c *gin.Context) {
	var req dto.SendOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := orders.SendInput{
		Fournisseur: req.Fournisseur,
		Telephone:   req.Telephone,
	}
	if len(req.Overrides) > 0 {
		in.Overrides = make(map[string]orders.LineOverride, len(req.Overrides))
		for key, ov := range req.Overrides {
			converted, err := convertOverride(ov)
			if err != nil {
				h.Error(c, err)
				return
			}
			in.Overrides[key] = converted
		}
	}

	result, err := h.service.Send(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Validate marks a line as received.
// POST /api/v1/orders/validate
func (h *OrdersHandler) Validate(c *gin.Context) {
	var req dto.LineKeyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.Validate(c.Request.Context(), req.LineKey); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "line validated")
}

// Clean drops a validated line from the list.
// POST /api/v1/orders/clean
func (h *OrdersHandler) Clean(c *gin.Context) {
	var req dto.LineKeyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.Clean(c.Request.Context(), req.LineKey); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "line cleaned")
}

// Remove deletes a line and dismisses its source operations. Irreversible.
// POST /api/v1/orders/remove
func (h *OrdersHandler) Remove(c *gin.Context) {
	var req dto.LineKeyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.Remove(c.Request.Context(), req.LineKey); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "line removed; its operations will not reappear")
}

// Duplicate copies a line into a fresh manual line.
// POST /api/v1/orders/duplicate
func (h *OrdersHandler) Duplicate(c *gin.Context) {
	var req dto.LineKeyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	line, err := h.service.Duplicate(c.Request.Context(), req.LineKey)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, line)
}

// AddManual creates a desk-entered line.
// POST /api/v1/orders/manual
func (h *OrdersHandler) AddManual(c *gin.Context) {
	var req dto.ManualLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	remise, err := parseRemise(req.Remise)
	if err != nil {
		h.Error(c, err)
		return
	}

	line, err := h.service.AddManual(c.Request.Context(), orders.ManualInput{
		Nom:         req.Nom,
		NumeroLot:   req.NumeroLot,
		Fournisseur: req.Fournisseur,
		Quantite:    req.Quantite,
		Remise:      remise,
		Urgent:      req.Urgent,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, line)
}

// Events streams refresh events to the ordering screen over SSE. The
// subscription is released when the client goes away.
// GET /api/v1/orders/events
func (h *OrdersHandler) Events(c *gin.Context) {
	ch, token := h.registry.Attach()
	defer h.registry.Detach(token)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Kind, ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func convertOverride(ov dto.LineOverrideRequest) (orders.LineOverride, error) {
	out := orders.LineOverride{
		Quantite: ov.Quantite,
		Urgent:   ov.Urgent,
	}
	if ov.Remise != nil {
		remise, err := parseRemise(*ov.Remise)
		if err != nil {
			return out, err
		}
		out.Remise = &remise
	}
	return out, nil
}

func parseRemise(s string) (types.Remise, error) {
	if s == "" {
		return types.ZeroRemise(), nil
	}
	remise, err := types.ParseRemise(s)
	if err != nil {
		return types.ZeroRemise(), apperror.NewValidation("invalid remise").WithDetail("remise", s)
	}
	return remise, nil
}
