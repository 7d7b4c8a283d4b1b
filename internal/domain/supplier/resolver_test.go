package supplier

import (
	"encoding/json"
	"testing"
	"time"

	"pharmstock/internal/domain/purchase"
	"pharmstock/internal/domain/stock"
)

func purchaseWith(fournisseur string, articles string) purchase.Purchase {
	return purchase.Purchase{
		Fournisseur: fournisseur,
		Date:        time.Now(),
		Articles:    json.RawMessage(articles),
	}
}

func TestResolveExactLotBeatsName(t *testing.T) {
	lots := []stock.Lot{
		*stock.NewLot("Paracétamol 500mg", "L2401", "Pharma Distrib", 1, 0),
		*stock.NewLot("Paracétamol 500mg", "L2407", "MediSud", 1, 0),
	}
	r := BuildResolver(lots, nil)

	if got := r.Resolve("Paracétamol 500mg", "L2407"); got != "MediSud" {
		t.Errorf("Resolve(name, L2407) = %q, want MediSud", got)
	}
	// Without a lot the name-level index answers, first write wins.
	if got := r.Resolve("Paracétamol 500mg", ""); got != "Pharma Distrib" {
		t.Errorf("Resolve(name, \"\") = %q, want Pharma Distrib", got)
	}
}

func TestResolveStockBeatsPurchases(t *testing.T) {
	lots := []stock.Lot{*stock.NewLot("Smecta", "", "Pharma Distrib", 1, 0)}
	purchases := []purchase.Purchase{
		purchaseWith("Laborex", `[{"produit": "Smecta", "quantite": 30}]`),
	}
	r := BuildResolver(lots, purchases)

	if got := r.Resolve("Smecta", ""); got != "Pharma Distrib" {
		t.Errorf("Resolve() = %q, want the stock index to win", got)
	}
}

func TestResolveFromPurchaseHistory(t *testing.T) {
	purchases := []purchase.Purchase{
		purchaseWith("Laborex", `[{"produit": "Doliprane sirop", "quantite": 12, "numeroLot": "DS119"}]`),
	}
	r := BuildResolver(nil, purchases)

	if got := r.Resolve("Doliprane sirop", "DS119"); got != "Laborex" {
		t.Errorf("Resolve(name, lot) = %q, want Laborex", got)
	}
	if got := r.Resolve("doliprane SIROP", ""); got != "Laborex" {
		t.Errorf("Resolve normalized name = %q, want Laborex", got)
	}
}

func TestResolveFuzzySubstring(t *testing.T) {
	lots := []stock.Lot{*stock.NewLot("Doliprane 1000mg comprimés", "", "Pharma Distrib", 1, 0)}
	r := BuildResolver(lots, nil)

	// The sale names a shorter variant; substring matching bridges the gap.
	if got := r.Resolve("Doliprane 1000mg", ""); got != "Pharma Distrib" {
		t.Errorf("fuzzy Resolve() = %q, want Pharma Distrib", got)
	}

	r.DisableFuzzy = true
	if got := r.Resolve("Doliprane 1000mg", ""); got != "" {
		t.Errorf("Resolve() with fuzzy disabled = %q, want empty", got)
	}
}

func TestResolveFuzzyIgnoresShortKeys(t *testing.T) {
	lots := []stock.Lot{*stock.NewLot("BA", "", "Pharma Distrib", 1, 0)}
	r := BuildResolver(lots, nil)

	if got := r.Resolve("Bandage élastique", ""); got != "" {
		t.Errorf("Resolve() = %q, want empty for a two-letter index key", got)
	}
}

func TestResolveUnknown(t *testing.T) {
	r := BuildResolver(nil, nil)
	if got := r.Resolve("Produit inconnu", "X1"); got != "" {
		t.Errorf("Resolve() = %q, want empty", got)
	}
	if got := r.Resolve("", ""); got != "" {
		t.Errorf("Resolve(\"\") = %q, want empty", got)
	}
}

func TestBuildResolverFirstWriteWins(t *testing.T) {
	lots := []stock.Lot{
		*stock.NewLot("Amoxicilline 1g", "", "MediSud", 1, 0),
		*stock.NewLot("Amoxicilline 1g", "", "Laborex", 1, 0),
	}
	r := BuildResolver(lots, nil)

	if got := r.Resolve("Amoxicilline 1g", ""); got != "MediSud" {
		t.Errorf("Resolve() = %q, want the first indexed supplier", got)
	}
}

func TestBuildResolverSkipsBlankSources(t *testing.T) {
	lots := []stock.Lot{
		*stock.NewLot("Smecta", "", "", 1, 0),
		*stock.NewLot("  ", "", "Pharma Distrib", 1, 0),
	}
	purchases := []purchase.Purchase{
		purchaseWith("", `[{"produit": "Smecta", "quantite": 1}]`),
	}
	r := BuildResolver(lots, purchases)

	if got := r.Resolve("Smecta", ""); got != "" {
		t.Errorf("Resolve() = %q, want empty when sources carry no supplier", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+212 600-000-001", "+212600000001"},
		{"06 00 00 00 01", "0600000001"},
		{" +2126+00 ", "+212600"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddRemoveCommercial(t *testing.T) {
	s := NewSupplier("Pharma Distrib")
	if err := s.AddCommercial(Commercial{Nom: "Karim", Telephone: "+212600000001"}); err != nil {
		t.Fatalf("AddCommercial() error = %v", err)
	}
	// Same number with different formatting is a duplicate.
	if err := s.AddCommercial(Commercial{Nom: "K.", Telephone: "+212 600 000 001"}); err == nil {
		t.Error("AddCommercial() accepted a duplicate phone")
	}
	if !s.RemoveCommercial("+212600000001") {
		t.Error("RemoveCommercial() = false for an existing contact")
	}
	if s.RemoveCommercial("+212600000001") {
		t.Error("RemoveCommercial() = true for a removed contact")
	}
}
