package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/domain/supplier"
)

const suppliersTable = "suppliers"

var supplierColumns = []string{
	"id", "nom", "commerciaux", "version", "created_at", "updated_at",
}

// SupplierRepo implements supplier.Repository. Contacts live in a JSONB
// column; the catalog is small and contacts are edited as a unit.
type SupplierRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txm *TxManager) *SupplierRepo {
	return &SupplierRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a supplier. The unique index on nom_key makes on-demand
// creation race-safe.
func (r *SupplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	q := r.builder.Insert(suppliersTable).
		Columns("id", "nom", "nom_key", "commerciaux", "version", "created_at", "updated_at").
		Values(s.ID, s.Nom, s.NomKey(), s.Commerciaux, s.Version, s.CreatedAt, s.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConflict("supplier already exists").WithDetail("nom", s.Nom)
		}
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

// Update persists the supplier with an optimistic version check.
func (r *SupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	q := r.builder.Update(suppliersTable).
		Set("nom", s.Nom).
		Set("nom_key", s.NomKey()).
		Set("commerciaux", s.Commerciaux).
		Set("version", s.Version+1).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"id":      s.ID,
			"version": s.Version,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("supplier", s.ID.String())
	}
	s.Version++
	return nil
}

// GetByNomKey looks a supplier up by normalized name.
func (r *SupplierRepo) GetByNomKey(ctx context.Context, nomKey string) (*supplier.Supplier, error) {
	q := r.builder.Select(supplierColumns...).
		From(suppliersTable).
		Where(squirrel.Eq{"nom_key": nomKey})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s supplier.Supplier
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("supplier", nomKey)
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &s, nil
}

// List returns the whole catalog ordered by name.
func (r *SupplierRepo) List(ctx context.Context) ([]supplier.Supplier, error) {
	q := r.builder.Select(supplierColumns...).
		From(suppliersTable).
		OrderBy("nom")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []supplier.Supplier
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select suppliers: %w", err)
	}
	return result, nil
}

// Ensure interface compliance.
var _ supplier.Repository = (*SupplierRepo)(nil)
