// Package purchase models historical purchase records. They are read-only
// to the core and scanned once per pipeline run to seed the supplier
// resolution index.
package purchase

import (
	"context"
	"encoding/json"
	"time"

	"pharmstock/internal/core/id"
)

// Purchase is one historical purchase document. Articles keeps the raw
// array; it shares the sale-line shapes, so the sales extractor reads it.
type Purchase struct {
	ID          id.ID           `db:"id" json:"id"`
	Fournisseur string          `db:"fournisseur" json:"fournisseur"`
	Date        time.Time       `db:"date" json:"date"`
	Articles    json.RawMessage `db:"articles" json:"articles"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// New wraps a purchase document. Date defaults to now when the frontend
// sent none.
func New(fournisseur string, date time.Time, articles json.RawMessage) *Purchase {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return &Purchase{
		ID:          id.New(),
		Fournisseur: fournisseur,
		Date:        date,
		Articles:    articles,
		CreatedAt:   time.Now().UTC(),
	}
}

// Repository is the read contract for purchases; Create exists for seeding
// and for the purchase-entry surface of the application.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	List(ctx context.Context) ([]Purchase, error)
}
