package orders

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"pharmstock/internal/domain/sales"
)

func saleDoc(id string, date time.Time, articles string) sales.Sale {
	return sales.Sale{
		ID:      id,
		Date:    date,
		Payload: json.RawMessage(fmt.Sprintf(`{"articles": %s}`, articles)),
	}
}

func TestAggregateSumsByKey(t *testing.T) {
	d1 := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	docs := []sales.Sale{
		saleDoc("s1", d1, `[
			{"produit": "Paracétamol 500mg", "quantite": 2, "numeroLot": "L2401"},
			{"produit": "Smecta", "quantite": 1}
		]`),
		saleDoc("s2", d2, `[
			{"produit": "paracetamol 500MG", "quantite": 3, "numeroLot": " l2401 "}
		]`),
	}

	required := Aggregate(docs, nil, nil)
	if len(required) != 2 {
		t.Fatalf("Aggregate() produced %d keys, want 2", len(required))
	}

	para := required["paracetamol500mg|l2401"]
	if para == nil {
		t.Fatal("missing paracetamol key; name/lot variants must collapse")
	}
	if para.Quantite != 5 {
		t.Errorf("quantite = %d, want 5", para.Quantite)
	}
	if len(para.SourceOps) != 2 || para.SourceOps[0] != "s1#0" || para.SourceOps[1] != "s2#0" {
		t.Errorf("sourceOps = %v", para.SourceOps)
	}
	if para.OpQuantities["s1#0"] != 2 || para.OpQuantities["s2#0"] != 3 {
		t.Errorf("opQuantities = %v", para.OpQuantities)
	}
	if !para.OpDates["s1#0"].Equal(d1) || !para.OpDates["s2#0"].Equal(d2) {
		t.Errorf("opDates = %v, want each operation's own sale date", para.OpDates)
	}
	if !para.Date.Equal(d2) {
		t.Errorf("date = %v, want the most recent sale date %v", para.Date, d2)
	}

	if required["smecta|-"] == nil {
		t.Error("missing lotless smecta key")
	}
}

func TestAggregateSkipsDismissedAndTransfers(t *testing.T) {
	docs := []sales.Sale{
		saleDoc("s1", time.Now(), `[
			{"produit": "Smecta", "quantite": 2},
			{"produit": "Smecta", "quantite": 1, "transfert": true},
			{"produit": "", "quantite": 4},
			{"produit": "Smecta", "quantite": 3}
		]`),
	}
	dismissed := map[string]struct{}{"s1#3": {}}

	required := Aggregate(docs, dismissed, nil)
	line := required["smecta|-"]
	if line == nil {
		t.Fatal("missing smecta key")
	}
	if line.Quantite != 2 {
		t.Errorf("quantite = %d, want 2 (transfer, unnamed and dismissed lines excluded)", line.Quantite)
	}
	if len(line.SourceOps) != 1 || line.SourceOps[0] != "s1#0" {
		t.Errorf("sourceOps = %v, want [s1#0]", line.SourceOps)
	}
}

func TestAggregateBrokenQuantityCountsAsOne(t *testing.T) {
	docs := []sales.Sale{
		saleDoc("s1", time.Now(), `[
			{"produit": "Smecta", "quantite": null},
			{"produit": "Smecta", "quantite": -2},
			{"produit": "Smecta", "quantite": "n/a"}
		]`),
	}

	line := Aggregate(docs, nil, nil)["smecta|-"]
	if line == nil {
		t.Fatal("missing smecta key")
	}
	if line.Quantite != 3 {
		t.Errorf("quantite = %d, want 3 (one box per broken line)", line.Quantite)
	}
}

func TestAggregateResolvesSupplierOnce(t *testing.T) {
	calls := 0
	resolve := func(produit, numeroLot string) string {
		calls++
		return "Pharma Distrib"
	}
	docs := []sales.Sale{
		saleDoc("s1", time.Now(), `[{"produit": "Smecta", "quantite": 1}]`),
		saleDoc("s2", time.Now(), `[{"produit": "Smecta", "quantite": 1}]`),
	}

	line := Aggregate(docs, nil, resolve)["smecta|-"]
	if line == nil || line.Fournisseur != "Pharma Distrib" {
		t.Fatalf("line = %+v", line)
	}
	if calls != 1 {
		t.Errorf("resolve called %d times, want once per key", calls)
	}
}

func TestSortLines(t *testing.T) {
	lines := []OrderLine{
		{Key: "c", Nom: "C", Fournisseur: ""},
		{Key: "b", Nom: "B", Fournisseur: "Laborex"},
		{Key: "a2", Nom: "A", Fournisseur: "Laborex"},
		{Key: "a1", Nom: "A", Fournisseur: "Laborex"},
		{Key: "d", Nom: "D", Fournisseur: "MediSud"},
	}
	SortLines(lines)

	got := make([]string, len(lines))
	for i, l := range lines {
		got[i] = l.Key
	}
	want := []string{"a1", "a2", "b", "d", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestGroupBySupplier(t *testing.T) {
	lines := []OrderLine{
		{Key: "a", Fournisseur: "Laborex"},
		{Key: "b", Fournisseur: "Laborex"},
		{Key: "c", Fournisseur: "MediSud"},
		{Key: "d", Fournisseur: ""},
	}
	groups := GroupBySupplier(lines)

	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if groups[0].Fournisseur != "Laborex" || len(groups[0].Lines) != 2 {
		t.Errorf("group 0 = %+v", groups[0])
	}
	if groups[2].Fournisseur != "" || len(groups[2].Lines) != 1 {
		t.Errorf("unresolved group = %+v", groups[2])
	}
}
