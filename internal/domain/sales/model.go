// Package sales models sale documents as written by the point-of-sale
// frontend. Sales are read-only to this service apart from ingestion: the
// payload is stored verbatim and line items are extracted defensively,
// because historical documents carry their articles under varying field
// names and shapes.
package sales

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/types"
)

// StockSource names the bin a sale line was served from.
type StockSource string

const (
	SourceStock1  StockSource = "stock1"
	SourceStock2  StockSource = "stock2"
	SourceUnknown StockSource = "unknown"
)

// Sale is one sale document. Payload holds the original JSON body so that
// extraction strategies can evolve without a migration.
type Sale struct {
	ID        string          `db:"id" json:"id"`
	Date      time.Time       `db:"date" json:"date"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// NewSale wraps an ingested payload. The caller supplies the frontend's
// document id; Date defaults to now when the payload carries none.
func NewSale(id string, date time.Time, payload json.RawMessage) *Sale {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return &Sale{
		ID:        id,
		Date:      date,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks ingestion invariants.
func (s *Sale) Validate(_ context.Context) error {
	if strings.TrimSpace(s.ID) == "" {
		return apperror.NewValidation("sale id is required").WithDetail("field", "id")
	}
	if len(s.Payload) == 0 || !json.Valid(s.Payload) {
		return apperror.NewValidation("sale payload must be a JSON document").WithDetail("field", "payload")
	}
	return nil
}

// Lines extracts the sale's line items. See ExtractLines.
func (s *Sale) Lines() []LineItem {
	return ExtractLines(s.Payload)
}

// LineItem is one article line of a sale, coerced from loose JSON.
type LineItem struct {
	// Produit is the product designation as typed at the counter.
	Produit string
	// Quantite is the sold quantity; zero means the source value was
	// missing or unparseable.
	Quantite types.Quantity
	// NumeroLot is the batch number, when the counter recorded one.
	NumeroLot string
	// StockSource is the preferred bin to decrement.
	StockSource StockSource
	// StockEntryID references the exact lot document when known.
	StockEntryID string
	// Note is free text; the transfer heuristic reads it.
	Note string
	// Transfer marks an explicit stock-transfer line.
	Transfer bool
}

// Valid reports whether the line can drive a stock decrement.
func (li LineItem) Valid() bool {
	return strings.TrimSpace(li.Produit) != "" && li.Quantite.IsPositive()
}

// Repository is the read-mostly sales store. List returns sales ordered by
// date then id so every aggregation pass sees the same sequence.
type Repository interface {
	Create(ctx context.Context, sale *Sale) error
	GetByID(ctx context.Context, id string) (*Sale, error)
	List(ctx context.Context) ([]Sale, error)
	// ListCreatedAfter supports the polling fallback of the realtime sync.
	// The bound is inclusive so a sale sharing its created_at with the
	// watermark is re-delivered rather than skipped.
	ListCreatedAfter(ctx context.Context, after time.Time) ([]Sale, error)
}
