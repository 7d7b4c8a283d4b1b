package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/stock"
)

const lotsTable = "stock_lots"

var lotColumns = []string{
	"id", "nom", "numero_lot", "fournisseur",
	"stock1", "stock2", "quantite", "date_peremption",
	"version", "created_at", "updated_at",
}

// LotRepo implements stock.Repository. nom_key and lot_key are generated
// in Go on every write, so matching never depends on database collation.
type LotRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewLotRepo creates a new lot repository.
func NewLotRepo(txm *TxManager) *LotRepo {
	return &LotRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a lot.
func (r *LotRepo) Create(ctx context.Context, lot *stock.Lot) error {
	q := r.builder.Insert(lotsTable).
		Columns(
			"id", "nom", "numero_lot", "fournisseur",
			"stock1", "stock2", "quantite", "date_peremption",
			"nom_key", "lot_key",
			"version", "created_at", "updated_at",
		).
		Values(
			lot.ID, lot.Nom, lot.NumeroLot, lot.Fournisseur,
			lot.Stock1, lot.Stock2, lot.Quantite, lot.DatePeremption,
			lot.NomKey(), lot.LotKey(),
			lot.Version, lot.CreatedAt, lot.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// GetByID loads one lot.
func (r *LotRepo) GetByID(ctx context.Context, lotID id.ID) (*stock.Lot, error) {
	return r.get(ctx, lotID, false)
}

// GetForUpdate loads one lot with a row lock; it only makes sense inside a
// transaction.
func (r *LotRepo) GetForUpdate(ctx context.Context, lotID id.ID) (*stock.Lot, error) {
	return r.get(ctx, lotID, true)
}

func (r *LotRepo) get(ctx context.Context, lotID id.ID, forUpdate bool) (*stock.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{"id": lotID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lot stock.Lot
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("lot", lotID.String())
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return &lot, nil
}

// FindByNomKey returns every lot with the given normalized product name,
// ordered for a stable FIFO pick.
func (r *LotRepo) FindByNomKey(ctx context.Context, nomKey string) ([]stock.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{"nom_key": nomKey}).
		OrderBy("date_peremption NULLS LAST", "created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lots []stock.Lot
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("select lots: %w", err)
	}
	return lots, nil
}

// UpdateQuantities persists the bins and the derived total with an
// optimistic version check on top of the row lock.
func (r *LotRepo) UpdateQuantities(ctx context.Context, lot *stock.Lot) error {
	q := r.builder.Update(lotsTable).
		Set("stock1", lot.Stock1).
		Set("stock2", lot.Stock2).
		Set("quantite", lot.Quantite).
		Set("version", lot.Version+1).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"id":      lot.ID,
			"version": lot.Version,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("lot", lot.ID.String())
	}
	lot.Version++
	return nil
}

// List returns the whole stock, ordered by name then expiry.
func (r *LotRepo) List(ctx context.Context) ([]stock.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		OrderBy("nom_key", "date_peremption NULLS LAST", "created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lots []stock.Lot
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("select lots: %w", err)
	}
	return lots, nil
}

// Ensure interface compliance.
var _ stock.Repository = (*LotRepo)(nil)
