package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmstock/internal/domain/purchase"
)

const purchasesTable = "purchases"

var purchaseColumns = []string{"id", "fournisseur", "date", "articles", "created_at"}

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txm *TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a purchase record.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	q := r.builder.Insert(purchasesTable).
		Columns(purchaseColumns...).
		Values(p.ID, p.Fournisseur, p.Date, p.Articles, p.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

// List returns every purchase, newest first.
func (r *PurchaseRepo) List(ctx context.Context) ([]purchase.Purchase, error) {
	q := r.builder.Select(purchaseColumns...).
		From(purchasesTable).
		OrderBy("date DESC", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []purchase.Purchase
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	return result, nil
}

// Ensure interface compliance.
var _ purchase.Repository = (*PurchaseRepo)(nil)
