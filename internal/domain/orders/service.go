package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/opkey"
	"pharmstock/internal/core/tx"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/ledger"
	"pharmstock/internal/domain/purchase"
	"pharmstock/internal/domain/sales"
	"pharmstock/internal/domain/stock"
	"pharmstock/internal/domain/supplier"
	"pharmstock/pkg/logger"
)

// Service runs the ordering pipeline and the line lifecycle.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	saleRepo  sales.Repository
	lotRepo   stock.Repository
	purchases purchase.Repository
	suppliers *supplier.Service
	txm       tx.ReadOnlyManager
	now       func() time.Time
}

// NewService wires the ordering pipeline.
func NewService(
	repo Repository,
	ledgerSvc *ledger.Service,
	saleRepo sales.Repository,
	lotRepo stock.Repository,
	purchases purchase.Repository,
	suppliers *supplier.Service,
	txm tx.ReadOnlyManager,
) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledgerSvc,
		saleRepo:  saleRepo,
		lotRepo:   lotRepo,
		purchases: purchases,
		suppliers: suppliers,
		txm:       txm,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List rebuilds the "to order" list from scratch and groups it by supplier.
// The pipeline reads six stores; the read-only transaction gives them one
// consistent snapshot.
func (s *Service) List(ctx context.Context) ([]SupplierGroup, error) {
	var lines []OrderLine
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		lines, err = s.buildLines(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return GroupBySupplier(lines), nil
}

// buildLines runs the full pipeline: load, aggregate, resolve, reconcile.
func (s *Service) buildLines(ctx context.Context) ([]OrderLine, error) {
	saleDocs, err := s.saleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	dismissed, err := s.ledger.DismissedSet(ctx)
	if err != nil {
		return nil, err
	}
	lots, err := s.lotRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lots: %w", err)
	}
	purchaseDocs, err := s.purchases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load purchases: %w", err)
	}
	statuses, err := s.repo.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load line statuses: %w", err)
	}
	manual, err := s.repo.ListManual(ctx)
	if err != nil {
		return nil, fmt.Errorf("load manual lines: %w", err)
	}

	resolver := supplier.BuildResolver(lots, purchaseDocs)
	required := Aggregate(saleDocs, dismissed, resolver.Resolve)
	return Reconcile(required, statuses, manual), nil
}

// LineOverride carries desk edits applied to a line just before sending.
type LineOverride struct {
	Quantite *types.Quantity
	Remise   *types.Remise
	Urgent   *bool
}

// SendInput selects the supplier and contact for a send.
type SendInput struct {
	Fournisseur string
	Telephone   string
	Overrides   map[string]LineOverride
}

// SendResult is what the caller needs to open the WhatsApp composer.
type SendResult struct {
	Fournisseur string      `json:"fournisseur"`
	Message     string      `json:"message"`
	Link        string      `json:"link"`
	Lines       []OrderLine `json:"lines"`
}

// Send freezes every sendable line of one supplier and builds the WhatsApp
// link. Sendable means unsent and either dated today, a pending supplement,
// or manual. The action is user confirmed and never retried automatically;
// the caller opens the returned link.
func (s *Service) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	if strings.TrimSpace(in.Fournisseur) == "" {
		return nil, apperror.NewValidation("supplier name is required")
	}
	if strings.TrimSpace(in.Telephone) == "" {
		return nil, apperror.NewValidation("contact phone is required")
	}

	var result *SendResult
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		lines, err := s.buildLines(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		var toSend []OrderLine
		for _, line := range lines {
			if line.Fournisseur != in.Fournisseur || line.Sent || line.Validated {
				continue
			}
			if !sameDay(line.Date, now) && !line.IsNewAfterSent && !line.IsManual {
				continue
			}
			toSend = append(toSend, applyOverride(line, in.Overrides[line.Key]))
		}
		if len(toSend) == 0 {
			return apperror.NewValidation("no sendable lines for this supplier").
				WithDetail("fournisseur", in.Fournisseur)
		}

		// The supplier must exist in the catalog before the order goes out,
		// even when it was only ever seen as a free-text name.
		if _, err := s.suppliers.EnsureByName(ctx, in.Fournisseur); err != nil {
			return err
		}

		for i := range toSend {
			if err := s.repo.SaveStatus(ctx, freeze(&toSend[i], now)); err != nil {
				return fmt.Errorf("freeze line %s: %w", toSend[i].Key, err)
			}
			toSend[i].Sent = true
		}

		message := BuildMessage(in.Fournisseur, toSend, now)
		result = &SendResult{
			Fournisseur: in.Fournisseur,
			Message:     message,
			Link:        Link(in.Telephone, message),
			Lines:       toSend,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "order sent",
		"fournisseur", in.Fournisseur,
		"lines", len(result.Lines),
	)
	return result, nil
}

// Validate marks a line as received. The status keeps the frozen snapshot;
// source operations stay applied to stock independently of this workflow.
func (s *Service) Validate(ctx context.Context, lineKey string) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		status, err := s.repo.GetStatus(ctx, lineKey)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		now := s.now()
		if status == nil {
			// Validating a line that was never sent freezes it as-is.
			line, err := s.findLine(ctx, lineKey)
			if err != nil {
				return err
			}
			status = freeze(line, now)
		}
		status.Validated = true
		status.ValidatedAt = &now
		if !status.Sent {
			status.Sent = true
			status.SentAt = &now
		}
		if err := s.repo.SaveStatus(ctx, status); err != nil {
			return fmt.Errorf("save status %s: %w", lineKey, err)
		}
		return nil
	})
}

// Clean deletes the status record of a validated line, dropping it from the
// list for good. Its source operations were already consumed.
func (s *Service) Clean(ctx context.Context, lineKey string) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		status, err := s.repo.GetStatus(ctx, lineKey)
		if err != nil {
			return err
		}
		if !status.Validated {
			return apperror.NewValidation("only validated lines can be cleaned").
				WithDetail("lineKey", lineKey)
		}
		if err := s.repo.DeleteStatus(ctx, lineKey); err != nil {
			return fmt.Errorf("delete status %s: %w", lineKey, err)
		}
		// Keep the frozen source operations out of future aggregation; the
		// requirement was fulfilled, not abandoned.
		return s.ledger.DismissAll(ctx, status.FrozenOps)
	})
}

// Remove deletes a line and permanently dismisses its source operations so
// the underlying sales never regenerate the requirement. Irreversible.
func (s *Service) Remove(ctx context.Context, lineKey string) error {
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		line, err := s.findLine(ctx, lineKey)
		if err != nil {
			return err
		}
		if err := s.ledger.DismissAll(ctx, line.SourceOps); err != nil {
			return err
		}
		if err := s.repo.DeleteStatus(ctx, lineKey); err != nil && !apperror.IsNotFound(err) {
			return fmt.Errorf("delete status %s: %w", lineKey, err)
		}
		if line.IsManual {
			if err := s.repo.DeleteManual(ctx, lineKey); err != nil && !apperror.IsNotFound(err) {
				return fmt.Errorf("delete manual line %s: %w", lineKey, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "order line removed", "line_key", lineKey)
	return nil
}

// Duplicate copies a line into a fresh manual line with a random key, no
// source operations and default date, discount and urgency.
func (s *Service) Duplicate(ctx context.Context, lineKey string) (*ManualLine, error) {
	var created *ManualLine
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		line, err := s.findLine(ctx, lineKey)
		if err != nil {
			return err
		}
		now := s.now()
		created = &ManualLine{
			Key:         opkey.Manual(),
			Nom:         line.Nom,
			NumeroLot:   line.NumeroLot,
			Fournisseur: line.Fournisseur,
			Quantite:    line.Quantite,
			Date:        now,
			Remise:      types.ZeroRemise(),
			CreatedAt:   now,
		}
		if err := s.repo.SaveManual(ctx, created); err != nil {
			return fmt.Errorf("save manual line: %w", err)
		}
		return nil
	})
	return created, err
}

// ManualInput is a desk-entered order line.
type ManualInput struct {
	Nom         string         `json:"nom"`
	NumeroLot   string         `json:"numeroLot"`
	Fournisseur string         `json:"fournisseur"`
	Quantite    types.Quantity `json:"quantite"`
	Remise      types.Remise   `json:"remise"`
	Urgent      bool           `json:"urgent"`
}

// AddManual creates an ad-hoc line outside any sale. The random key keeps
// aggregation from ever touching it.
func (s *Service) AddManual(ctx context.Context, in ManualInput) (*ManualLine, error) {
	if strings.TrimSpace(in.Nom) == "" {
		return nil, apperror.NewValidation("product name is required").WithDetail("field", "nom")
	}
	qty := in.Quantite
	if !qty.IsPositive() {
		qty = 1
	}
	now := s.now()
	line := &ManualLine{
		Key:         opkey.Manual(),
		Nom:         strings.TrimSpace(in.Nom),
		NumeroLot:   strings.TrimSpace(in.NumeroLot),
		Fournisseur: strings.TrimSpace(in.Fournisseur),
		Quantite:    qty,
		Date:        now,
		Remise:      in.Remise,
		Urgent:      in.Urgent,
		CreatedAt:   now,
	}
	if err := s.repo.SaveManual(ctx, line); err != nil {
		return nil, fmt.Errorf("save manual line: %w", err)
	}
	return line, nil
}

// findLine locates one line in the current reconciled list.
func (s *Service) findLine(ctx context.Context, lineKey string) (*OrderLine, error) {
	lines, err := s.buildLines(ctx)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if lines[i].Key == lineKey {
			return &lines[i], nil
		}
	}
	return nil, apperror.NewNotFound("order line", lineKey)
}

func freeze(line *OrderLine, now time.Time) *LineStatus {
	sentAt := now
	return &LineStatus{
		LineKey:        line.Key,
		Sent:           true,
		SentAt:         &sentAt,
		FrozenOps:      line.SourceOps,
		FrozenQuantity: line.Quantite,
		FrozenDate:     line.Date,
		FrozenRemise:   line.Remise,
		FrozenUrgent:   line.Urgent,
		FrozenName:     line.Nom,
		FrozenLot:      line.NumeroLot,
		FrozenSupplier: line.Fournisseur,
	}
}

func applyOverride(line OrderLine, ov LineOverride) OrderLine {
	if ov.Quantite != nil && ov.Quantite.IsPositive() {
		line.Quantite = *ov.Quantite
	}
	if ov.Remise != nil {
		line.Remise = *ov.Remise
	}
	if ov.Urgent != nil {
		line.Urgent = *ov.Urgent
	}
	return line
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
