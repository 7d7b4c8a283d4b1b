package stock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pharmstock/internal/core/actor"
	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/opkey"
	"pharmstock/internal/core/tx"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/ledger"
	"pharmstock/internal/domain/sales"
	"pharmstock/pkg/logger"
)

// Outcome classifies what ApplyLine did with a sale line.
type Outcome string

const (
	// OutcomeApplied means stock was decremented and the ledger written.
	OutcomeApplied Outcome = "applied"
	// OutcomeAlreadyApplied means the ledger already holds this operation.
	OutcomeAlreadyApplied Outcome = "already_applied"
	// OutcomeInvalidLine means the line carried no product or no positive
	// quantity and was skipped as data noise.
	OutcomeInvalidLine Outcome = "invalid_line"
	// OutcomeLotNotResolved means no lot matched; the operation stays
	// unapplied and a later pass may retry it.
	OutcomeLotNotResolved Outcome = "lot_not_resolved"
)

// ApplyResult reports the effect of one ApplyLine call.
type ApplyResult struct {
	OperationID string
	Outcome     Outcome
	LotID       id.ID
	Requested   types.Quantity
	Taken       types.Quantity
}

// Partial reports whether less than the requested quantity was taken.
func (r ApplyResult) Partial() bool {
	return r.Outcome == OutcomeApplied && r.Taken < r.Requested
}

// Engine decrements lot quantities for sale lines. Each ApplyLine runs in
// one transaction covering the idempotency check, the row-locked decrement,
// the audit entry and the applied record, so the operation commits at most
// once even under concurrent listeners.
type Engine struct {
	repo    Repository
	ledger  *ledger.Service
	auditor Auditor
	txm     tx.Manager
}

// NewEngine creates a decrement engine.
func NewEngine(repo Repository, ledgerSvc *ledger.Service, auditor Auditor, txm tx.Manager) *Engine {
	return &Engine{
		repo:    repo,
		ledger:  ledgerSvc,
		auditor: auditor,
		txm:     txm,
	}
}

// ApplyLine applies one sale line to stock. Invalid lines and unresolvable
// lots are reported through the result, not as errors: a pharmacy sale must
// never be blocked by inventory bookkeeping. Only transaction and write
// failures return an error.
func (e *Engine) ApplyLine(ctx context.Context, saleID string, lineIndex int, line sales.LineItem) (ApplyResult, error) {
	result := ApplyResult{
		OperationID: opkey.Operation(saleID, lineIndex),
		Requested:   line.Quantite,
	}

	if !line.Valid() {
		result.Outcome = OutcomeInvalidLine
		logger.Debug(ctx, "skipping invalid sale line",
			"operation_id", result.OperationID,
			"produit", line.Produit,
			"quantite", line.Quantite,
		)
		return result, nil
	}

	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		applied, err := e.ledger.IsApplied(ctx, result.OperationID)
		if err != nil {
			return err
		}
		if applied {
			result.Outcome = OutcomeAlreadyApplied
			return nil
		}

		lot, err := e.resolveLot(ctx, line)
		if err != nil {
			return err
		}

		before1, before2 := lot.Stock1, lot.Stock2
		taken := decrementBins(lot, line.StockSource, line.Quantite)
		lot.Recompute()

		if taken < line.Quantite {
			logger.Warn(ctx, "partial stock decrement",
				"operation_id", result.OperationID,
				"produit", line.Produit,
				"requested", line.Quantite,
				"taken", taken,
			)
		}

		if err := e.repo.UpdateQuantities(ctx, lot); err != nil {
			return fmt.Errorf("update lot %s: %w", lot.ID, err)
		}

		now := time.Now().UTC()
		who := actor.FromContext(ctx)

		if err := e.auditor.LogDecrement(ctx, DecrementAudit{
			OperationID: result.OperationID,
			SaleID:      saleID,
			LineIndex:   lineIndex,
			LotID:       lot.ID,
			Produit:     line.Produit,
			NumeroLot:   lot.NumeroLot,
			Requested:   line.Quantite,
			Taken:       taken,
			Stock1Avant: before1,
			Stock2Avant: before2,
			Stock1:      lot.Stock1,
			Stock2:      lot.Stock2,
			Actor:       who,
			At:          now,
		}); err != nil {
			return fmt.Errorf("audit decrement: %w", err)
		}

		lotID := lot.ID
		if err := e.ledger.MarkApplied(ctx, &ledger.AppliedOperation{
			OperationID:  result.OperationID,
			SaleID:       saleID,
			LineIndex:    lineIndex,
			Produit:      line.Produit,
			Quantite:     line.Quantite,
			Taken:        taken,
			StockEntryID: &lotID,
			StockSource:  string(line.StockSource),
			AppliedAt:    now,
			AppliedBy:    who,
		}); err != nil {
			return err
		}

		result.Outcome = OutcomeApplied
		result.LotID = lot.ID
		result.Taken = taken
		return nil
	})

	if err != nil {
		if apperror.IsCode(err, apperror.CodeLotNotResolved) {
			// Reported condition, not a failure: surface for manual
			// reconciliation and leave the operation retryable.
			result.Outcome = OutcomeLotNotResolved
			logger.Warn(ctx, "no lot resolved for sale line",
				"operation_id", result.OperationID,
				"produit", line.Produit,
				"numero_lot", line.NumeroLot,
			)
			return result, nil
		}
		return result, err
	}

	if result.Outcome == OutcomeApplied {
		logger.Info(ctx, "sale line applied to stock",
			"operation_id", result.OperationID,
			"lot_id", result.LotID,
			"taken", result.Taken,
			"requested", result.Requested,
		)
	}
	return result, nil
}

// resolveLot locates and row-locks the lot for a sale line: explicit stock
// entry id first, then exact batch-number match among same-name lots, then
// the earliest-expiry lot with positive quantity (FIFO).
func (e *Engine) resolveLot(ctx context.Context, line sales.LineItem) (*Lot, error) {
	if line.StockEntryID != "" {
		if lotID, err := id.Parse(line.StockEntryID); err == nil {
			lot, err := e.repo.GetForUpdate(ctx, lotID)
			if err != nil {
				if apperror.IsNotFound(err) {
					return nil, apperror.NewLotNotResolved(line.Produit, line.NumeroLot).WithCause(err)
				}
				return nil, err
			}
			return lot, nil
		}
		// Unparseable reference from an old frontend: fall through to
		// name-based resolution.
	}

	candidates, err := e.repo.FindByNomKey(ctx, opkey.Normalize(line.Produit))
	if err != nil {
		return nil, fmt.Errorf("find lots for %q: %w", line.Produit, err)
	}

	chosen := pickLot(candidates, line.NumeroLot)
	if chosen == nil {
		return nil, apperror.NewLotNotResolved(line.Produit, line.NumeroLot)
	}
	return e.repo.GetForUpdate(ctx, chosen.ID)
}

// pickLot chooses among same-name candidates: exact batch number wins,
// otherwise earliest expiry among lots with positive quantity.
func pickLot(candidates []Lot, numeroLot string) *Lot {
	if len(candidates) == 0 {
		return nil
	}

	if lotKey := opkey.Normalize(numeroLot); lotKey != "" {
		for i := range candidates {
			if candidates[i].LotKey() == lotKey {
				return &candidates[i]
			}
		}
	}

	inStock := make([]Lot, 0, len(candidates))
	for _, c := range candidates {
		if c.Available().IsPositive() {
			inStock = append(inStock, c)
		}
	}
	if len(inStock) == 0 {
		return nil
	}

	sort.SliceStable(inStock, func(i, j int) bool {
		return expiresBefore(inStock[i], inStock[j])
	})
	return &inStock[0]
}

// expiresBefore orders lots FIFO by expiry date; lots without an expiry
// sort last, ties break on creation time.
func expiresBefore(a, b Lot) bool {
	switch {
	case a.DatePeremption == nil && b.DatePeremption == nil:
		return a.CreatedAt.Before(b.CreatedAt)
	case a.DatePeremption == nil:
		return false
	case b.DatePeremption == nil:
		return true
	case a.DatePeremption.Equal(*b.DatePeremption):
		return a.CreatedAt.Before(b.CreatedAt)
	default:
		return a.DatePeremption.Before(*b.DatePeremption)
	}
}

// decrementBins consumes from the preferred bin first and overflows into
// the other. An unknown source defaults to stock1-first; that rule comes
// from the ordering desk and is awaiting product-owner confirmation.
func decrementBins(lot *Lot, source sales.StockSource, requested types.Quantity) types.Quantity {
	primary, secondary := &lot.Stock1, &lot.Stock2
	if source == sales.SourceStock2 {
		primary, secondary = &lot.Stock2, &lot.Stock1
	}

	takePrimary := (*primary).Min(requested)
	*primary -= takePrimary

	takeSecondary := (*secondary).Min(requested - takePrimary)
	*secondary -= takeSecondary

	return takePrimary + takeSecondary
}
