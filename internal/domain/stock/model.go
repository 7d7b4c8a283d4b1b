// Package stock owns the lot records and the decrement engine that applies
// sale lines against them.
package stock

import (
	"context"
	"strings"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/opkey"
	"pharmstock/internal/core/types"
)

// Lot is one stock entry: a product batch split across two bins (front
// counter and back store). Quantite is maintained as Stock1+Stock2 on
// every write.
type Lot struct {
	ID             id.ID          `db:"id" json:"id"`
	Nom            string         `db:"nom" json:"nom"`
	NumeroLot      string         `db:"numero_lot" json:"numeroLot"`
	Fournisseur    string         `db:"fournisseur" json:"fournisseur"`
	Stock1         types.Quantity `db:"stock1" json:"stock1"`
	Stock2         types.Quantity `db:"stock2" json:"stock2"`
	Quantite       types.Quantity `db:"quantite" json:"quantite"`
	DatePeremption *time.Time     `db:"date_peremption" json:"datePeremption,omitempty"`

	// Version implements optimistic locking on top of the row lock, so a
	// stale in-memory lot can never clobber a concurrent decrement.
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewLot creates a lot with consistent totals.
func NewLot(nom, numeroLot, fournisseur string, stock1, stock2 types.Quantity) *Lot {
	now := time.Now().UTC()
	return &Lot{
		ID:          id.New(),
		Nom:         nom,
		NumeroLot:   numeroLot,
		Fournisseur: fournisseur,
		Stock1:      stock1,
		Stock2:      stock2,
		Quantite:    stock1 + stock2,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Available returns the total quantity across both bins.
func (l *Lot) Available() types.Quantity {
	return l.Stock1 + l.Stock2
}

// Recompute re-derives Quantite from the bins.
func (l *Lot) Recompute() {
	l.Quantite = l.Stock1 + l.Stock2
}

// NomKey returns the normalized product-name key used for matching.
func (l *Lot) NomKey() string {
	return opkey.Normalize(l.Nom)
}

// LotKey returns the normalized batch-number key used for matching.
func (l *Lot) LotKey() string {
	return opkey.Normalize(l.NumeroLot)
}

// Validate checks the lot invariants: non-empty name, non-negative bins,
// total equal to the bin sum.
func (l *Lot) Validate(_ context.Context) error {
	if strings.TrimSpace(l.Nom) == "" {
		return apperror.NewValidation("product name is required").WithDetail("field", "nom")
	}
	if l.Stock1 < 0 || l.Stock2 < 0 {
		return apperror.NewValidation("bin quantities must not be negative").
			WithDetail("stock1", l.Stock1).
			WithDetail("stock2", l.Stock2)
	}
	if l.Quantite != l.Stock1+l.Stock2 {
		return apperror.NewValidation("quantite must equal stock1+stock2").
			WithDetail("quantite", l.Quantite).
			WithDetail("stock1", l.Stock1).
			WithDetail("stock2", l.Stock2)
	}
	return nil
}

// Repository is the persistence contract for lots. GetForUpdate locks the
// row; decrements only ever go through the engine, which uses that lock.
type Repository interface {
	Create(ctx context.Context, lot *Lot) error
	GetByID(ctx context.Context, lotID id.ID) (*Lot, error)
	// GetForUpdate locks the lot row for the current transaction.
	GetForUpdate(ctx context.Context, lotID id.ID) (*Lot, error)
	// FindByNomKey returns every lot whose normalized name equals nomKey.
	FindByNomKey(ctx context.Context, nomKey string) ([]Lot, error)
	// UpdateQuantities persists bins, total and audit timestamps with an
	// optimistic version check.
	UpdateQuantities(ctx context.Context, lot *Lot) error
	List(ctx context.Context) ([]Lot, error)
}
