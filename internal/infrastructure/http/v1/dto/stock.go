package dto

import (
	"time"

	"pharmstock/internal/core/types"
)

// CreateLotRequest creates a stock entry.
type CreateLotRequest struct {
	Nom            string         `json:"nom" binding:"required"`
	NumeroLot      string         `json:"numeroLot"`
	Fournisseur    string         `json:"fournisseur"`
	Stock1         types.Quantity `json:"stock1"`
	Stock2         types.Quantity `json:"stock2"`
	DatePeremption *time.Time     `json:"datePeremption"`
}
