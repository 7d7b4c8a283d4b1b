package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/domain/orders"
)

const (
	statusTable = "order_status"
	manualTable = "order_manual_lines"
)

var statusColumns = []string{
	"line_key", "sent", "validated", "sent_at", "validated_at",
	"frozen_ops", "frozen_quantity", "frozen_date", "frozen_remise",
	"frozen_urgent", "frozen_name", "frozen_lot", "frozen_supplier",
}

var manualColumns = []string{
	"line_key", "nom", "numero_lot", "fournisseur",
	"quantite", "date", "remise", "urgent", "created_at",
}

// OrderRepo implements orders.Repository: line statuses (frozen snapshots)
// and manual lines.
type OrderRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txm *TxManager) *OrderRepo {
	return &OrderRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetStatus loads one line status.
func (r *OrderRepo) GetStatus(ctx context.Context, lineKey string) (*orders.LineStatus, error) {
	q := r.builder.Select(statusColumns...).
		From(statusTable).
		Where(squirrel.Eq{"line_key": lineKey})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var status orders.LineStatus
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &status, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("line status", lineKey)
		}
		return nil, fmt.Errorf("get status: %w", err)
	}
	return &status, nil
}

// ListStatuses loads every line status.
func (r *OrderRepo) ListStatuses(ctx context.Context) ([]orders.LineStatus, error) {
	q := r.builder.Select(statusColumns...).
		From(statusTable).
		OrderBy("line_key")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var statuses []orders.LineStatus
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &statuses, sql, args...); err != nil {
		return nil, fmt.Errorf("select statuses: %w", err)
	}
	return statuses, nil
}

// SaveStatus upserts a line status; send and validate both go through here.
func (r *OrderRepo) SaveStatus(ctx context.Context, status *orders.LineStatus) error {
	q := r.builder.Insert(statusTable).
		Columns(statusColumns...).
		Values(
			status.LineKey, status.Sent, status.Validated, status.SentAt, status.ValidatedAt,
			status.FrozenOps, status.FrozenQuantity, status.FrozenDate, status.FrozenRemise,
			status.FrozenUrgent, status.FrozenName, status.FrozenLot, status.FrozenSupplier,
		).
		Suffix(`ON CONFLICT (line_key) DO UPDATE SET
			sent = EXCLUDED.sent,
			validated = EXCLUDED.validated,
			sent_at = EXCLUDED.sent_at,
			validated_at = EXCLUDED.validated_at,
			frozen_ops = EXCLUDED.frozen_ops,
			frozen_quantity = EXCLUDED.frozen_quantity,
			frozen_date = EXCLUDED.frozen_date,
			frozen_remise = EXCLUDED.frozen_remise,
			frozen_urgent = EXCLUDED.frozen_urgent,
			frozen_name = EXCLUDED.frozen_name,
			frozen_lot = EXCLUDED.frozen_lot,
			frozen_supplier = EXCLUDED.frozen_supplier`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert status: %w", err)
	}
	return nil
}

// DeleteStatus removes a line status.
func (r *OrderRepo) DeleteStatus(ctx context.Context, lineKey string) error {
	q := r.builder.Delete(statusTable).
		Where(squirrel.Eq{"line_key": lineKey})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("line status", lineKey)
	}
	return nil
}

// ListManual loads every manual line, oldest first.
func (r *OrderRepo) ListManual(ctx context.Context) ([]orders.ManualLine, error) {
	q := r.builder.Select(manualColumns...).
		From(manualTable).
		OrderBy("created_at", "line_key")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []orders.ManualLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select manual lines: %w", err)
	}
	return lines, nil
}

// SaveManual inserts a manual line. Keys are random, so there is nothing to
// upsert.
func (r *OrderRepo) SaveManual(ctx context.Context, line *orders.ManualLine) error {
	q := r.builder.Insert(manualTable).
		Columns(manualColumns...).
		Values(
			line.Key, line.Nom, line.NumeroLot, line.Fournisseur,
			line.Quantite, line.Date, line.Remise, line.Urgent, line.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert manual line: %w", err)
	}
	return nil
}

// DeleteManual removes a manual line.
func (r *OrderRepo) DeleteManual(ctx context.Context, lineKey string) error {
	q := r.builder.Delete(manualTable).
		Where(squirrel.Eq{"line_key": lineKey})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete manual line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("manual line", lineKey)
	}
	return nil
}

// Ensure interface compliance.
var _ orders.Repository = (*OrderRepo)(nil)
