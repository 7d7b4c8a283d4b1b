package opkey

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"lowercases", "DOLIPRANE", "doliprane"},
		{"trims and collapses spaces", "  Doliprane  1000 mg ", "doliprane1000mg"},
		{"strips diacritics", "Paracétamol 500mg", "paracetamol500mg"},
		{"diacritic variants collide", "paracetamol 500MG ", "paracetamol500mg"},
		{"keeps punctuation", "Efferalgan-Codéine", "efferalgan-codeine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOperationRoundTrip(t *testing.T) {
	op := Operation("sale-42", 3)
	if op != "sale-42#3" {
		t.Fatalf("Operation() = %q, want %q", op, "sale-42#3")
	}

	saleID, idx, ok := ParseOperation(op)
	if !ok {
		t.Fatal("ParseOperation() not ok")
	}
	if saleID != "sale-42" || idx != 3 {
		t.Errorf("ParseOperation() = (%q, %d), want (%q, %d)", saleID, idx, "sale-42", 3)
	}
}

func TestParseOperationSaleIDWithHash(t *testing.T) {
	// Sale ids can themselves contain '#'; the last separator wins.
	saleID, idx, ok := ParseOperation("a#b#7")
	if !ok || saleID != "a#b" || idx != 7 {
		t.Errorf("ParseOperation(%q) = (%q, %d, %v), want (%q, %d, true)", "a#b#7", saleID, idx, ok, "a#b", 7)
	}
}

func TestParseOperationInvalid(t *testing.T) {
	for _, op := range []string{"", "no-separator", "#3", "sale#", "sale#abc", "sale#-1"} {
		if _, _, ok := ParseOperation(op); ok {
			t.Errorf("ParseOperation(%q) ok = true, want false", op)
		}
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		nom  string
		lot  string
		want string
	}{
		{"with lot", "Paracétamol 500mg", "L2401", "paracetamol500mg|l2401"},
		{"empty lot keys as dash", "Paracétamol 500mg", "", "paracetamol500mg|-"},
		{"blank lot keys as dash", "Smecta", "   ", "smecta|-"},
		{"lot normalized", "Smecta", " SM 774 ", "smecta|sm774"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.nom, tt.lot); got != tt.want {
				t.Errorf("Line(%q, %q) = %q, want %q", tt.nom, tt.lot, got, tt.want)
			}
		})
	}
}

func TestSupplement(t *testing.T) {
	at := time.Unix(1700000000, 0)
	base := Line("Doliprane", "DS119")
	key := Supplement(base, 2, at)

	if want := base + "|supplement-v2-1700000000"; key != want {
		t.Errorf("Supplement() = %q, want %q", key, want)
	}
	if !IsSupplement(key) {
		t.Error("IsSupplement() = false for a supplement key")
	}
	if IsSupplement(base) {
		t.Error("IsSupplement() = true for a base key")
	}

	got, ok := SupplementBase(key)
	if !ok || got != base {
		t.Errorf("SupplementBase(%q) = (%q, %v), want (%q, true)", key, got, ok, base)
	}
	if _, ok := SupplementBase(base); ok {
		t.Error("SupplementBase() ok = true for a base key")
	}
}

func TestManual(t *testing.T) {
	key := Manual()
	if !IsManual(key) {
		t.Errorf("IsManual(%q) = false", key)
	}
	if key == Manual() {
		t.Error("Manual() produced the same key twice")
	}
	if IsManual(Line("Doliprane", "")) {
		t.Error("IsManual() = true for an aggregation key")
	}
}
