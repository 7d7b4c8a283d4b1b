// Package supplier owns the supplier catalog and the name-resolution index
// used to attribute order lines to suppliers.
package supplier

import (
	"context"
	"strings"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/opkey"
)

// Commercial is a sales-rep contact reachable over WhatsApp.
type Commercial struct {
	Nom       string `json:"nom"`
	Telephone string `json:"telephone"`
}

// Supplier is a wholesaler the pharmacy orders from. Commerciaux is stored
// as a JSONB array; the catalog is small and contacts are edited as a unit.
type Supplier struct {
	ID          id.ID        `db:"id" json:"id"`
	Nom         string       `db:"nom" json:"nom"`
	Commerciaux []Commercial `db:"commerciaux" json:"commerciaux"`
	Version     int          `db:"version" json:"version"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}

// NewSupplier creates a supplier with no contacts yet.
func NewSupplier(nom string) *Supplier {
	now := time.Now().UTC()
	return &Supplier{
		ID:        id.New(),
		Nom:       strings.TrimSpace(nom),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NomKey returns the normalized name used for case/diacritic-insensitive
// lookup.
func (s *Supplier) NomKey() string {
	return opkey.Normalize(s.Nom)
}

// Validate checks supplier invariants.
func (s *Supplier) Validate(_ context.Context) error {
	if strings.TrimSpace(s.Nom) == "" {
		return apperror.NewValidation("supplier name is required").WithDetail("field", "nom")
	}
	for i, c := range s.Commerciaux {
		if strings.TrimSpace(c.Telephone) == "" {
			return apperror.NewValidation("contact phone is required").
				WithDetail("field", "commerciaux").
				WithDetail("index", i)
		}
	}
	return nil
}

// AddCommercial appends a contact, refusing duplicates by phone.
func (s *Supplier) AddCommercial(c Commercial) error {
	phone := NormalizePhone(c.Telephone)
	if phone == "" {
		return apperror.NewValidation("contact phone is required").WithDetail("field", "telephone")
	}
	for _, existing := range s.Commerciaux {
		if NormalizePhone(existing.Telephone) == phone {
			return apperror.NewConflict("contact with this phone already exists").
				WithDetail("telephone", c.Telephone)
		}
	}
	s.Commerciaux = append(s.Commerciaux, c)
	return nil
}

// RemoveCommercial deletes the contact with the given phone; it reports
// whether anything was removed.
func (s *Supplier) RemoveCommercial(telephone string) bool {
	phone := NormalizePhone(telephone)
	for i, c := range s.Commerciaux {
		if NormalizePhone(c.Telephone) == phone {
			s.Commerciaux = append(s.Commerciaux[:i], s.Commerciaux[i+1:]...)
			return true
		}
	}
	return false
}

// NormalizePhone strips everything but digits, keeping a leading plus.
func NormalizePhone(s string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Repository is the persistence contract for suppliers.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	// GetByNomKey looks a supplier up by normalized name.
	GetByNomKey(ctx context.Context, nomKey string) (*Supplier, error)
	List(ctx context.Context) ([]Supplier, error)
}
