package realtime

import (
	"context"
	"fmt"

	"pharmstock/internal/domain/sales"
	"pharmstock/internal/domain/stock"
	"pharmstock/pkg/logger"
)

// Summary counts what HandleSale did with one sale.
type Summary struct {
	SaleID         string `json:"saleId"`
	Lines          int    `json:"lines"`
	Applied        int    `json:"applied"`
	AlreadyApplied int    `json:"alreadyApplied"`
	Skipped        int    `json:"skipped"`
	Unresolved     int    `json:"unresolved"`
	Failed         int    `json:"failed"`
}

// SyncService feeds sale documents through the decrement engine line by
// line. One broken line never blocks the rest of the sale; each line runs
// in its own transaction inside the engine.
type SyncService struct {
	engine   *stock.Engine
	registry *Registry
}

// NewSyncService creates the sync service. registry may be nil in workers
// that have no attached sessions.
func NewSyncService(engine *stock.Engine, registry *Registry) *SyncService {
	return &SyncService{engine: engine, registry: registry}
}

// HandleSale applies every non-transfer line of a sale to stock and
// publishes a refresh event. It returns an error only when every failing
// line failed on infrastructure; reported conditions (invalid lines,
// unresolved lots) only show up in the summary.
func (s *SyncService) HandleSale(ctx context.Context, sale *sales.Sale) (Summary, error) {
	summary := Summary{SaleID: sale.ID}

	var lastErr error
	for idx, line := range sale.Lines() {
		summary.Lines++
		if sales.IsTransfer(line) {
			summary.Skipped++
			continue
		}

		result, err := s.engine.ApplyLine(ctx, sale.ID, idx, line)
		if err != nil {
			// Isolate the failure to this line; the next lines still get
			// their chance and the operation stays retryable.
			summary.Failed++
			lastErr = err
			logger.Error(ctx, "sale line failed to apply",
				"operation_id", result.OperationID,
				"error", err,
			)
			continue
		}

		switch result.Outcome {
		case stock.OutcomeApplied:
			summary.Applied++
		case stock.OutcomeAlreadyApplied:
			summary.AlreadyApplied++
		case stock.OutcomeInvalidLine:
			summary.Skipped++
		case stock.OutcomeLotNotResolved:
			summary.Unresolved++
		}
	}

	if s.registry != nil && summary.Applied > 0 {
		s.registry.Publish(ctx, Event{Kind: EventSaleApplied, SaleID: sale.ID})
	}

	logger.Info(ctx, "sale processed",
		"sale_id", sale.ID,
		"lines", summary.Lines,
		"applied", summary.Applied,
		"already_applied", summary.AlreadyApplied,
		"skipped", summary.Skipped,
		"unresolved", summary.Unresolved,
		"failed", summary.Failed,
	)

	if summary.Failed > 0 && summary.Failed == summary.Lines-summary.Skipped {
		return summary, fmt.Errorf("sale %s: all %d applicable lines failed: %w",
			sale.ID, summary.Failed, lastErr)
	}
	return summary, nil
}
