package ledger

import (
	"context"
	"fmt"
	"time"

	"pharmstock/pkg/logger"
)

// Service exposes the idempotency ledger to the decrement engine and the
// order lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// IsApplied reports whether the operation already decremented stock.
func (s *Service) IsApplied(ctx context.Context, operationID string) (bool, error) {
	op, err := s.repo.GetApplied(ctx, operationID)
	if err != nil {
		return false, fmt.Errorf("get applied %s: %w", operationID, err)
	}
	return op != nil && op.Applied, nil
}

// MarkApplied records the decrement. Must run in the same transaction as
// the lot update and the IsApplied check.
func (s *Service) MarkApplied(ctx context.Context, op *AppliedOperation) error {
	op.Applied = true
	if op.AppliedAt.IsZero() {
		op.AppliedAt = time.Now().UTC()
	}
	if err := s.repo.CreateApplied(ctx, op); err != nil {
		return fmt.Errorf("create applied %s: %w", op.OperationID, err)
	}
	return nil
}

// IsDismissed reports whether the operation was removed from the ordering
// workflow.
func (s *Service) IsDismissed(ctx context.Context, operationID string) (bool, error) {
	dismissed, err := s.repo.IsDismissed(ctx, operationID)
	if err != nil {
		return false, fmt.Errorf("check dismissed %s: %w", operationID, err)
	}
	return dismissed, nil
}

// MarkDismissed permanently excludes one operation from aggregation.
func (s *Service) MarkDismissed(ctx context.Context, operationID string) error {
	if err := s.repo.Dismiss(ctx, operationID, time.Now().UTC()); err != nil {
		return fmt.Errorf("dismiss %s: %w", operationID, err)
	}
	logger.Info(ctx, "operation dismissed", "operation_id", operationID)
	return nil
}

// DismissAll permanently excludes a batch of operations, typically all
// source operations of a removed order line.
func (s *Service) DismissAll(ctx context.Context, operationIDs []string) error {
	if len(operationIDs) == 0 {
		return nil
	}
	if err := s.repo.DismissMany(ctx, operationIDs, time.Now().UTC()); err != nil {
		return fmt.Errorf("dismiss %d operations: %w", len(operationIDs), err)
	}
	logger.Info(ctx, "operations dismissed", "count", len(operationIDs))
	return nil
}

// DismissedSet loads every dismissed operation id for an aggregation pass.
func (s *Service) DismissedSet(ctx context.Context) (map[string]struct{}, error) {
	set, err := s.repo.DismissedSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dismissed set: %w", err)
	}
	return set, nil
}
