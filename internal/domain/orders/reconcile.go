package orders

import (
	"sort"
	"time"

	"pharmstock/internal/core/opkey"
	"pharmstock/internal/core/types"
)

// supplementDate picks the instant embedded in a supplement key: the newest
// contributing operation's sale date. Derived from the data, not the clock,
// so the same arrivals always produce the same key and a key handed to a
// client stays addressable on later requests.
func supplementDate(req *RequiredLine, newOps []string) time.Time {
	var at time.Time
	for _, op := range newOps {
		if d := req.OpDates[op]; d.After(at) {
			at = d
		}
	}
	if at.IsZero() {
		at = req.Date
	}
	return at
}

// Reconcile merges live aggregation output with persisted line statuses and
// manual lines into the final "to order" list. It is a pure function; the
// list is rebuilt from scratch on every relevant change instead of patched
// in place.
//
// Rules:
//   - a key with no locked status renders live from aggregation;
//   - a locked key renders from its frozen snapshot, untouched by new sales;
//   - operations outside the frozen set (of the base line and all of its
//     existing supplements) spawn a new supplement line sized to exactly
//     those operations;
//   - locked statuses with no live requirement still render, frozen;
//   - manual lines pass through until explicitly removed.
func Reconcile(required map[string]*RequiredLine, statuses []LineStatus, manual []ManualLine) []OrderLine {
	statusByKey := make(map[string]*LineStatus, len(statuses))
	supplementsByBase := make(map[string][]*LineStatus)
	for i := range statuses {
		s := &statuses[i]
		statusByKey[s.LineKey] = s
		if base, ok := opkey.SupplementBase(s.LineKey); ok {
			supplementsByBase[base] = append(supplementsByBase[base], s)
		}
	}

	keys := make([]string, 0, len(required))
	for key := range required {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var lines []OrderLine
	emitted := make(map[string]struct{})

	for _, key := range keys {
		req := required[key]
		status := statusByKey[key]

		if status == nil || !status.Locked() {
			lines = append(lines, liveLine(req))
			emitted[key] = struct{}{}
			continue
		}

		lines = append(lines, frozenLine(key, status))
		emitted[key] = struct{}{}

		// Everything already frozen, on the base line or on one of its
		// supplements, is consumed; the remainder is a new arrival.
		consumed := status.FrozenSet()
		for _, sup := range supplementsByBase[key] {
			for op := range sup.FrozenSet() {
				consumed[op] = struct{}{}
			}
		}

		var newOps []string
		var newQty types.Quantity
		seen := make(map[string]struct{})
		for _, op := range req.SourceOps {
			if _, dup := seen[op]; dup {
				continue
			}
			seen[op] = struct{}{}
			if _, ok := consumed[op]; ok {
				continue
			}
			newOps = append(newOps, op)
			newQty += req.OpQuantities[op]
		}
		if len(newOps) == 0 {
			continue
		}

		version := len(supplementsByBase[key]) + 1
		lines = append(lines, OrderLine{
			Key:            opkey.Supplement(key, version, supplementDate(req, newOps)),
			Nom:            req.Nom,
			NumeroLot:      req.NumeroLot,
			Fournisseur:    req.Fournisseur,
			Quantite:       newQty,
			Date:           req.Date,
			Remise:         types.ZeroRemise(),
			SourceOps:      newOps,
			IsNewAfterSent: true,
		})
	}

	// Locked statuses with no live counterpart (all source sales consumed or
	// supplement snapshots) still render until validated or removed. Manual
	// keys are excluded here, their lines carry the status flags themselves.
	for _, s := range statuses {
		if _, done := emitted[s.LineKey]; done {
			continue
		}
		if !s.Locked() || opkey.IsManual(s.LineKey) {
			continue
		}
		lines = append(lines, frozenLine(s.LineKey, statusByKey[s.LineKey]))
		emitted[s.LineKey] = struct{}{}
	}

	for _, m := range manual {
		line := OrderLine{
			Key:         m.Key,
			Nom:         m.Nom,
			NumeroLot:   m.NumeroLot,
			Fournisseur: m.Fournisseur,
			Quantite:    m.Quantite,
			Date:        m.Date,
			Remise:      m.Remise,
			Urgent:      m.Urgent,
			IsManual:    true,
		}
		if s := statusByKey[m.Key]; s != nil {
			line.Sent = s.Sent
			line.Validated = s.Validated
		}
		lines = append(lines, line)
	}

	SortLines(lines)
	return lines
}

func liveLine(req *RequiredLine) OrderLine {
	return OrderLine{
		Key:         req.Key,
		Nom:         req.Nom,
		NumeroLot:   req.NumeroLot,
		Fournisseur: req.Fournisseur,
		Quantite:    req.Quantite,
		Date:        req.Date,
		Remise:      types.ZeroRemise(),
		SourceOps:   req.SourceOps,
	}
}

func frozenLine(key string, s *LineStatus) OrderLine {
	return OrderLine{
		Key:         key,
		Nom:         s.FrozenName,
		NumeroLot:   s.FrozenLot,
		Fournisseur: s.FrozenSupplier,
		Quantite:    s.FrozenQuantity,
		Date:        s.FrozenDate,
		Remise:      s.FrozenRemise,
		Urgent:      s.FrozenUrgent,
		SourceOps:   s.FrozenOps,
		Sent:        s.Sent,
		Validated:   s.Validated,
	}
}
