package supplier

import (
	"context"
	"fmt"
	"strings"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/opkey"
	"pharmstock/internal/core/tx"
	"pharmstock/pkg/logger"
)

// Service provides supplier catalog operations.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a supplier service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// EnsureByName returns the supplier with the given name, creating it on
// demand. Lookup is case and diacritic insensitive; sending an order to an
// unknown supplier name must never fail on a missing catalog entry.
func (s *Service) EnsureByName(ctx context.Context, nom string) (*Supplier, error) {
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return nil, apperror.NewValidation("supplier name is required")
	}

	existing, err := s.repo.GetByNomKey(ctx, opkey.Normalize(nom))
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("lookup supplier %q: %w", nom, err)
	}
	if existing != nil {
		return existing, nil
	}

	created := NewSupplier(nom)
	if err := created.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("create supplier %q: %w", nom, err)
	}
	logger.Info(ctx, "supplier created on demand", "nom", nom, "id", created.ID)
	return created, nil
}

// AddContact appends a commercial contact to a supplier, creating the
// supplier if needed.
func (s *Service) AddContact(ctx context.Context, nom string, c Commercial) (*Supplier, error) {
	var result *Supplier
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sup, err := s.EnsureByName(ctx, nom)
		if err != nil {
			return err
		}
		if err := sup.AddCommercial(c); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, sup); err != nil {
			return fmt.Errorf("update supplier %q: %w", nom, err)
		}
		result = sup
		return nil
	})
	return result, err
}

// RemoveContact deletes a commercial contact by phone.
func (s *Service) RemoveContact(ctx context.Context, nom, telephone string) (*Supplier, error) {
	var result *Supplier
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sup, err := s.repo.GetByNomKey(ctx, opkey.Normalize(nom))
		if err != nil {
			return err
		}
		if !sup.RemoveCommercial(telephone) {
			return apperror.NewNotFound("contact", telephone)
		}
		if err := s.repo.Update(ctx, sup); err != nil {
			return fmt.Errorf("update supplier %q: %w", nom, err)
		}
		result = sup
		return nil
	})
	return result, err
}

// List returns the whole supplier catalog.
func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	return s.repo.List(ctx)
}
