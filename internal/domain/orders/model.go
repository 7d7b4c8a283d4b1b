// Package orders builds the "to order" list: it aggregates sale lines into
// per-supplier requirements, reconciles them with lines already sent over
// WhatsApp, and manages the line lifecycle (send, validate, remove,
// duplicate, manual entry).
package orders

import (
	"context"
	"time"

	"pharmstock/internal/core/types"
)

// RequiredLine is the aggregation of every live sale operation for one
// product/lot key.
type RequiredLine struct {
	Key         string
	Nom         string
	NumeroLot   string
	Fournisseur string
	Quantite    types.Quantity
	// Date is the most recent sale date feeding this line; the send step
	// only picks up today's lines.
	Date time.Time
	// SourceOps lists contributing operation ids in encounter order.
	SourceOps []string
	// OpQuantities records each operation's contribution, needed to size
	// supplement lines exactly.
	OpQuantities map[string]types.Quantity
	// OpDates records each operation's sale date. Supplement keys embed the
	// newest contributing operation's date, so the key is stable across
	// reconciliation passes.
	OpDates map[string]time.Time
}

// LineStatus is the persisted state of a line that was sent or validated.
// Once sent, the frozen snapshot is the single source of truth for display
// until the line is validated or removed.
type LineStatus struct {
	LineKey     string     `db:"line_key" json:"lineKey"`
	Sent        bool       `db:"sent" json:"sent"`
	Validated   bool       `db:"validated" json:"validated"`
	SentAt      *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	ValidatedAt *time.Time `db:"validated_at" json:"validatedAt,omitempty"`

	// FrozenOps is the exact set of operation ids summed into
	// FrozenQuantity at send time. Any operation outside this set spawns a
	// supplement line instead of mutating the frozen one.
	FrozenOps      []string       `db:"frozen_ops" json:"frozenOps"`
	FrozenQuantity types.Quantity `db:"frozen_quantity" json:"frozenQuantity"`
	FrozenDate     time.Time      `db:"frozen_date" json:"frozenDate"`
	FrozenRemise   types.Remise   `db:"frozen_remise" json:"frozenRemise"`
	FrozenUrgent   bool           `db:"frozen_urgent" json:"frozenUrgent"`
	FrozenName     string         `db:"frozen_name" json:"frozenName"`
	FrozenLot      string         `db:"frozen_lot" json:"frozenLot"`
	FrozenSupplier string         `db:"frozen_supplier" json:"frozenSupplier"`
}

// Locked reports whether the line's display values come from the snapshot.
func (s *LineStatus) Locked() bool {
	return s.Sent || s.Validated
}

// FrozenSet returns FrozenOps as a set.
func (s *LineStatus) FrozenSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.FrozenOps))
	for _, op := range s.FrozenOps {
		set[op] = struct{}{}
	}
	return set
}

// ManualLine is an ad-hoc order line created by the desk, outside any sale.
// Its random key keeps it invisible to aggregation; it lives until removed.
type ManualLine struct {
	Key         string         `db:"line_key" json:"key"`
	Nom         string         `db:"nom" json:"nom"`
	NumeroLot   string         `db:"numero_lot" json:"numeroLot"`
	Fournisseur string         `db:"fournisseur" json:"fournisseur"`
	Quantite    types.Quantity `db:"quantite" json:"quantite"`
	Date        time.Time      `db:"date" json:"date"`
	Remise      types.Remise   `db:"remise" json:"remise"`
	Urgent      bool           `db:"urgent" json:"urgent"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// OrderLine is one row of the reconciled "to order" list.
type OrderLine struct {
	Key         string         `json:"key"`
	Nom         string         `json:"nom"`
	NumeroLot   string         `json:"numeroLot"`
	Fournisseur string         `json:"fournisseur"`
	Quantite    types.Quantity `json:"quantite"`
	Date        time.Time      `json:"date"`
	Remise      types.Remise   `json:"remise"`
	Urgent      bool           `json:"urgent"`
	SourceOps   []string       `json:"sourceOps"`

	IsManual       bool `json:"isManual,omitempty"`
	IsNewAfterSent bool `json:"isNewAfterSent,omitempty"`
	Sent           bool `json:"sent"`
	Validated      bool `json:"validated"`
}

// SupplierGroup is the per-supplier view the ordering screen renders.
// Fournisseur is "" for the unresolved group.
type SupplierGroup struct {
	Fournisseur string      `json:"fournisseur"`
	Lines       []OrderLine `json:"lines"`
}

// Repository persists line statuses and manual lines.
type Repository interface {
	GetStatus(ctx context.Context, lineKey string) (*LineStatus, error)
	ListStatuses(ctx context.Context) ([]LineStatus, error)
	SaveStatus(ctx context.Context, status *LineStatus) error
	DeleteStatus(ctx context.Context, lineKey string) error

	ListManual(ctx context.Context) ([]ManualLine, error)
	SaveManual(ctx context.Context, line *ManualLine) error
	DeleteManual(ctx context.Context, lineKey string) error
}
