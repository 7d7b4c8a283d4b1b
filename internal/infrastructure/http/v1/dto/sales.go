package dto

import (
	"encoding/json"
	"time"
)

// IngestSaleRequest ingests one sale document from the point of sale. ID is
// the frontend's document id; the payload is stored verbatim.
type IngestSaleRequest struct {
	ID      string          `json:"id" binding:"required"`
	Date    time.Time       `json:"date"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// IngestPurchaseRequest records one purchase document.
type IngestPurchaseRequest struct {
	Fournisseur string          `json:"fournisseur" binding:"required"`
	Date        time.Time       `json:"date"`
	Articles    json.RawMessage `json:"articles" binding:"required"`
}
