package orders

import (
	"testing"
	"time"

	"pharmstock/internal/core/opkey"
	"pharmstock/internal/core/types"
)

func requiredLine(key, nom string, ops map[string]types.Quantity) *RequiredLine {
	line := &RequiredLine{
		Key:          key,
		Nom:          nom,
		Date:         time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		OpQuantities: make(map[string]types.Quantity),
		OpDates:      make(map[string]time.Time),
	}
	for op, qty := range ops {
		line.Quantite += qty
		line.OpQuantities[op] = qty
		line.OpDates[op] = line.Date
	}
	// Deterministic op order for assertions.
	for _, op := range []string{"s1#0", "s1#1", "s2#0", "s2#1", "s3#0"} {
		if _, ok := ops[op]; ok {
			line.SourceOps = append(line.SourceOps, op)
		}
	}
	return line
}

func findLine(t *testing.T, lines []OrderLine, pred func(OrderLine) bool) OrderLine {
	t.Helper()
	for _, l := range lines {
		if pred(l) {
			return l
		}
	}
	t.Fatal("no line matched")
	return OrderLine{}
}

func TestReconcileLiveLine(t *testing.T) {
	key := opkey.Line("Smecta", "")
	required := map[string]*RequiredLine{
		key: requiredLine(key, "Smecta", map[string]types.Quantity{"s1#0": 2}),
	}

	lines := Reconcile(required, nil, nil)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	l := lines[0]
	if l.Key != key || l.Quantite != 2 || l.Sent || l.Validated || l.IsNewAfterSent {
		t.Errorf("line = %+v", l)
	}
}

func TestReconcileFrozenLineIgnoresNewSales(t *testing.T) {
	key := opkey.Line("Smecta", "")
	sentAt := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	status := LineStatus{
		LineKey:        key,
		Sent:           true,
		SentAt:         &sentAt,
		FrozenOps:      []string{"s1#0"},
		FrozenQuantity: 5,
		FrozenDate:     sentAt,
		FrozenRemise:   types.ZeroRemise(),
		FrozenName:     "Smecta",
		FrozenSupplier: "Pharma Distrib",
	}
	// Aggregation now says 8, but the snapshot holds 5.
	required := map[string]*RequiredLine{
		key: requiredLine(key, "Smecta", map[string]types.Quantity{"s1#0": 8}),
	}

	lines := Reconcile(required, []LineStatus{status}, nil)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	l := lines[0]
	if l.Quantite != 5 || !l.Sent || l.Fournisseur != "Pharma Distrib" {
		t.Errorf("frozen line = %+v, want the snapshot values", l)
	}
}

func TestReconcileSpawnsSupplement(t *testing.T) {
	key := opkey.Line("Smecta", "")
	status := LineStatus{
		LineKey:        key,
		Sent:           true,
		FrozenOps:      []string{"s1#0", "s1#1"},
		FrozenQuantity: 5,
		FrozenName:     "Smecta",
	}
	// Two frozen ops plus one new arrival of 3 boxes.
	req := requiredLine(key, "Smecta", map[string]types.Quantity{
		"s1#0": 2, "s1#1": 3, "s2#0": 3,
	})
	newOpDate := time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC)
	req.OpDates["s2#0"] = newOpDate
	required := map[string]*RequiredLine{key: req}

	lines := Reconcile(required, []LineStatus{status}, nil)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want frozen base + supplement", len(lines))
	}

	sup := findLine(t, lines, func(l OrderLine) bool { return l.IsNewAfterSent })
	if sup.Key != opkey.Supplement(key, 1, newOpDate) {
		t.Errorf("supplement key = %q, want the new operation's sale date embedded", sup.Key)
	}
	if sup.Quantite != 3 {
		t.Errorf("supplement quantite = %d, want 3 (only the new operation)", sup.Quantite)
	}
	if len(sup.SourceOps) != 1 || sup.SourceOps[0] != "s2#0" {
		t.Errorf("supplement sourceOps = %v, want [s2#0]", sup.SourceOps)
	}
	if sup.Sent || sup.Validated {
		t.Error("supplement starts unsent")
	}
}

func TestReconcileSupplementChain(t *testing.T) {
	key := opkey.Line("Smecta", "")
	firstSupKey := opkey.Supplement(key, 1, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	statuses := []LineStatus{
		{LineKey: key, Sent: true, FrozenOps: []string{"s1#0"}, FrozenQuantity: 5, FrozenName: "Smecta"},
		{LineKey: firstSupKey, Sent: true, FrozenOps: []string{"s2#0"}, FrozenQuantity: 3, FrozenName: "Smecta"},
	}
	// One more arrival beyond base and first supplement.
	req := requiredLine(key, "Smecta", map[string]types.Quantity{
		"s1#0": 5, "s2#0": 3, "s3#0": 2,
	})
	required := map[string]*RequiredLine{key: req}

	lines := Reconcile(required, statuses, nil)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want base + sent supplement + new supplement", len(lines))
	}

	sup := findLine(t, lines, func(l OrderLine) bool { return l.IsNewAfterSent })
	if sup.Key != opkey.Supplement(key, 2, req.OpDates["s3#0"]) {
		t.Errorf("supplement key = %q, want version 2", sup.Key)
	}
	if sup.Quantite != 2 || len(sup.SourceOps) != 1 || sup.SourceOps[0] != "s3#0" {
		t.Errorf("supplement = %+v", sup)
	}
}

func TestReconcileSupplementKeyStableAcrossPasses(t *testing.T) {
	key := opkey.Line("Smecta", "")
	status := LineStatus{
		LineKey: key, Sent: true,
		FrozenOps: []string{"s1#0"}, FrozenQuantity: 2, FrozenName: "Smecta",
	}
	required := map[string]*RequiredLine{
		key: requiredLine(key, "Smecta", map[string]types.Quantity{"s1#0": 2, "s2#0": 3}),
	}

	// The list is rebuilt on every request; the supplement must keep its key
	// or lifecycle calls issued against an earlier response dangle.
	first := findLine(t, Reconcile(required, []LineStatus{status}, nil),
		func(l OrderLine) bool { return l.IsNewAfterSent })
	second := findLine(t, Reconcile(required, []LineStatus{status}, nil),
		func(l OrderLine) bool { return l.IsNewAfterSent })
	if first.Key != second.Key {
		t.Errorf("supplement key changed between passes: %q then %q", first.Key, second.Key)
	}
}

func TestReconcileNoSupplementWhenAllOpsFrozen(t *testing.T) {
	key := opkey.Line("Smecta", "")
	status := LineStatus{
		LineKey: key, Sent: true,
		FrozenOps: []string{"s1#0"}, FrozenQuantity: 2, FrozenName: "Smecta",
	}
	required := map[string]*RequiredLine{
		key: requiredLine(key, "Smecta", map[string]types.Quantity{"s1#0": 2}),
	}

	lines := Reconcile(required, []LineStatus{status}, nil)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want only the frozen base", len(lines))
	}
}

func TestReconcileOrphanStatusStillRenders(t *testing.T) {
	// Every source sale dismissed or consumed: no live requirement, but the
	// sent line stays visible until validated or removed.
	status := LineStatus{
		LineKey: opkey.Line("Smecta", ""), Sent: true,
		FrozenOps: []string{"s1#0"}, FrozenQuantity: 4, FrozenName: "Smecta",
	}

	lines := Reconcile(nil, []LineStatus{status}, nil)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Quantite != 4 || !lines[0].Sent {
		t.Errorf("orphan line = %+v", lines[0])
	}
}

func TestReconcileUnlockedStatusIgnored(t *testing.T) {
	// A status row that is neither sent nor validated does not freeze.
	key := opkey.Line("Smecta", "")
	status := LineStatus{LineKey: key, FrozenQuantity: 99, FrozenName: "Smecta"}
	required := map[string]*RequiredLine{
		key: requiredLine(key, "Smecta", map[string]types.Quantity{"s1#0": 2}),
	}

	lines := Reconcile(required, []LineStatus{status}, nil)
	if len(lines) != 1 || lines[0].Quantite != 2 {
		t.Errorf("lines = %+v, want the live aggregation", lines)
	}
}

func TestReconcileManualLines(t *testing.T) {
	m := ManualLine{
		Key:      opkey.Manual(),
		Nom:      "Vitamine C",
		Quantite: 2,
		Date:     time.Now(),
		Remise:   types.ZeroRemise(),
		Urgent:   true,
	}
	sent := ManualLine{
		Key:      opkey.Manual(),
		Nom:      "Zinc",
		Quantite: 1,
		Date:     time.Now(),
		Remise:   types.ZeroRemise(),
	}
	statuses := []LineStatus{
		{LineKey: sent.Key, Sent: true, FrozenName: "Zinc", FrozenQuantity: 1},
	}

	lines := Reconcile(nil, statuses, []ManualLine{m, sent})
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	vit := findLine(t, lines, func(l OrderLine) bool { return l.Nom == "Vitamine C" })
	if !vit.IsManual || !vit.Urgent || vit.Sent {
		t.Errorf("manual line = %+v", vit)
	}

	zinc := findLine(t, lines, func(l OrderLine) bool { return l.Nom == "Zinc" })
	if !zinc.IsManual || !zinc.Sent {
		t.Errorf("sent manual line = %+v, want sent flag from its status", zinc)
	}
}
