package stock

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// DecrementAudit is the impact record written alongside every decrement:
// which sale line hit which lot, what was asked and what was taken, and the
// bin levels before and after.
type DecrementAudit struct {
	OperationID string         `json:"operationId"`
	SaleID      string         `json:"saleId"`
	LineIndex   int            `json:"lineIndex"`
	LotID       id.ID          `json:"lotId"`
	Produit     string         `json:"produit"`
	NumeroLot   string         `json:"numeroLot"`
	Requested   types.Quantity `json:"requested"`
	Taken       types.Quantity `json:"taken"`
	Stock1Avant types.Quantity `json:"stock1Avant"`
	Stock2Avant types.Quantity `json:"stock2Avant"`
	Stock1      types.Quantity `json:"stock1"`
	Stock2      types.Quantity `json:"stock2"`
	Actor       string         `json:"actor"`
	At          time.Time      `json:"at"`
}

// Partial reports whether the decrement fulfilled less than requested.
func (a DecrementAudit) Partial() bool {
	return a.Taken < a.Requested
}

// Auditor persists decrement impacts. Implemented by the storage layer;
// failures there must fail the transaction, the audit trail is not
// best-effort.
type Auditor interface {
	LogDecrement(ctx context.Context, entry DecrementAudit) error
}
