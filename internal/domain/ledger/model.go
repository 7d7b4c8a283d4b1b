// Package ledger keeps the per-operation idempotency records: whether a
// sale line has been applied to stock, and whether it was dismissed from
// the ordering workflow. Operation ids are "{saleId}#{lineIndex}" pairs.
package ledger

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// AppliedOperation records a stock decrement for one sale line. Created at
// most once per operation id; its existence makes later attempts no-ops.
type AppliedOperation struct {
	OperationID string         `db:"operation_id" json:"operationId"`
	Applied     bool           `db:"applied" json:"applied"`
	SaleID      string         `db:"sale_id" json:"saleId"`
	LineIndex   int            `db:"line_index" json:"lineIndex"`
	Produit     string         `db:"produit" json:"produit"`
	Quantite    types.Quantity `db:"quantite" json:"quantite"`
	// Taken is what was actually decremented; less than Quantite on a
	// partial fulfilment.
	Taken        types.Quantity `db:"taken" json:"taken"`
	StockEntryID *id.ID         `db:"stock_entry_id" json:"stockEntryId,omitempty"`
	StockSource  string         `db:"stock_source" json:"stockSource"`
	AppliedAt    time.Time      `db:"applied_at" json:"appliedAt"`
	AppliedBy    string         `db:"applied_by" json:"appliedBy"`
}

// DismissedOperation excludes an operation from aggregation forever. There
// is no undismiss; the product reappears only through a new sale, which
// carries a new operation id.
type DismissedOperation struct {
	OperationID string    `db:"operation_id" json:"operationId"`
	Dismissed   bool      `db:"dismissed" json:"dismissed"`
	DismissedAt time.Time `db:"dismissed_at" json:"dismissedAt"`
}

// Repository is the persistence contract for both ledgers. Writes are
// expected to run inside the caller's transaction so the check and the
// write of one operation id commit atomically.
type Repository interface {
	GetApplied(ctx context.Context, operationID string) (*AppliedOperation, error)
	CreateApplied(ctx context.Context, op *AppliedOperation) error

	IsDismissed(ctx context.Context, operationID string) (bool, error)
	Dismiss(ctx context.Context, operationID string, at time.Time) error
	DismissMany(ctx context.Context, operationIDs []string, at time.Time) error
	DismissedSet(ctx context.Context) (map[string]struct{}, error)
}
