package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/domain/ledger"
)

const (
	appliedTable   = "sales_applied"
	dismissedTable = "order_dismissed"
)

var appliedColumns = []string{
	"operation_id", "applied", "sale_id", "line_index",
	"produit", "quantite", "taken", "stock_entry_id", "stock_source",
	"applied_at", "applied_by",
}

// LedgerRepo implements ledger.Repository over the applied and dismissed
// tables. Both are insert-only under normal operation.
type LedgerRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetApplied returns the applied record for an operation, or nil when the
// operation never went through.
func (r *LedgerRepo) GetApplied(ctx context.Context, operationID string) (*ledger.AppliedOperation, error) {
	q := r.builder.Select(appliedColumns...).
		From(appliedTable).
		Where(squirrel.Eq{"operation_id": operationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var op ledger.AppliedOperation
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &op, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get applied: %w", err)
	}
	return &op, nil
}

// CreateApplied inserts the applied record. The primary key on operation_id
// is the last line of defence against double application; a conflict means
// a concurrent worker won the race.
func (r *LedgerRepo) CreateApplied(ctx context.Context, op *ledger.AppliedOperation) error {
	q := r.builder.Insert(appliedTable).
		Columns(appliedColumns...).
		Values(
			op.OperationID, op.Applied, op.SaleID, op.LineIndex,
			op.Produit, op.Quantite, op.Taken, op.StockEntryID, op.StockSource,
			op.AppliedAt, op.AppliedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConcurrentModification("operation", op.OperationID)
		}
		return fmt.Errorf("insert applied: %w", err)
	}
	return nil
}

// IsDismissed reports whether an operation was dismissed.
func (r *LedgerRepo) IsDismissed(ctx context.Context, operationID string) (bool, error) {
	q := r.builder.Select("dismissed").
		From(dismissedTable).
		Where(squirrel.Eq{"operation_id": operationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var dismissed bool
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &dismissed, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get dismissed: %w", err)
	}
	return dismissed, nil
}

// Dismiss records one dismissal. Re-dismissing is a no-op, not an error.
func (r *LedgerRepo) Dismiss(ctx context.Context, operationID string, at time.Time) error {
	return r.DismissMany(ctx, []string{operationID}, at)
}

// DismissMany records a batch of dismissals in one statement.
func (r *LedgerRepo) DismissMany(ctx context.Context, operationIDs []string, at time.Time) error {
	if len(operationIDs) == 0 {
		return nil
	}

	q := r.builder.Insert(dismissedTable).
		Columns("operation_id", "dismissed", "dismissed_at")
	for _, opID := range operationIDs {
		q = q.Values(opID, true, at)
	}
	q = q.Suffix("ON CONFLICT (operation_id) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert dismissed: %w", err)
	}
	return nil
}

// DismissedSet loads every dismissed operation id.
func (r *LedgerRepo) DismissedSet(ctx context.Context) (map[string]struct{}, error) {
	q := r.builder.Select("operation_id").
		From(dismissedTable).
		Where(squirrel.Eq{"dismissed": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []string
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("select dismissed: %w", err)
	}

	set := make(map[string]struct{}, len(ids))
	for _, opID := range ids {
		set[opID] = struct{}{}
	}
	return set, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*LedgerRepo)(nil)
