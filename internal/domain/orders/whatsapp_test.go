package orders

import (
	"strings"
	"testing"
	"time"

	"pharmstock/internal/core/types"
)

func TestBuildMessage(t *testing.T) {
	remise, _ := types.ParseRemise("2,5")
	lines := []OrderLine{
		{Nom: "Paracétamol 500mg", NumeroLot: "L2401", Quantite: 5},
		{Nom: "Smecta", Quantite: 2, Urgent: true},
		{Nom: "Doliprane sirop", Quantite: 1, Remise: remise},
	}
	at := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

	got := BuildMessage("Pharma Distrib", lines, at)
	want := "Bonjour,\n\n" +
		"Commande du 29/08/2026 pour Pharma Distrib :\n\n" +
		"- Paracétamol 500mg (lot L2401) : 5\n" +
		"- Smecta : 2 *URGENT*\n" +
		"- Doliprane sirop : 1 (remise 2.5%)\n" +
		"\nMerci."
	if got != want {
		t.Errorf("BuildMessage() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildMessageWithoutSupplier(t *testing.T) {
	got := BuildMessage("", []OrderLine{{Nom: "Smecta", Quantite: 1}}, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	if !strings.Contains(got, "Commande du 02/01/2026 :") {
		t.Errorf("message header = %q", got)
	}
}

func TestLink(t *testing.T) {
	link := Link("+212 600-000-001", "Bonjour, commande & remise")

	if !strings.HasPrefix(link, "https://wa.me/212600000001?text=") {
		t.Errorf("link = %q, want digits-only phone", link)
	}
	if !strings.Contains(link, "Bonjour%2C+commande+%26+remise") {
		t.Errorf("link = %q, want query-escaped text", link)
	}
}
