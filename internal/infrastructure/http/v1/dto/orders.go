package dto

import (
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/orders"
)

// OrderListResponse is the grouped "to order" list.
type OrderListResponse struct {
	Groups []orders.SupplierGroup `json:"groups"`
}

// LineOverrideRequest carries desk edits for one line at send time.
type LineOverrideRequest struct {
	Quantite *types.Quantity `json:"quantite"`
	Remise   *string         `json:"remise"`
	Urgent   *bool           `json:"urgent"`
}

// SendOrderRequest selects supplier and contact for a send.
type SendOrderRequest struct {
	Fournisseur string                         `json:"fournisseur" binding:"required"`
	Telephone   string                         `json:"telephone" binding:"required"`
	Overrides   map[string]LineOverrideRequest `json:"overrides"`
}

// LineKeyRequest addresses one order line. Keys carry pipes and hash signs,
// so they travel in the body rather than the path.
type LineKeyRequest struct {
	LineKey string `json:"lineKey" binding:"required"`
}

// ManualLineRequest creates a desk-entered line.
type ManualLineRequest struct {
	Nom         string         `json:"nom" binding:"required"`
	NumeroLot   string         `json:"numeroLot"`
	Fournisseur string         `json:"fournisseur"`
	Quantite    types.Quantity `json:"quantite"`
	Remise      string         `json:"remise"`
	Urgent      bool           `json:"urgent"`
}
