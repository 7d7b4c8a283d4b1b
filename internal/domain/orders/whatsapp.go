package orders

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// BuildMessage renders the order text sent to a supplier contact over
// WhatsApp. The wording mirrors what the desk dictates by phone: one line
// per product with lot, quantity, urgency and discount.
func BuildMessage(fournisseur string, lines []OrderLine, at time.Time) string {
	var b strings.Builder

	b.WriteString("Bonjour,\n\n")
	fmt.Fprintf(&b, "Commande du %s", at.Format("02/01/2006"))
	if fournisseur != "" {
		fmt.Fprintf(&b, " pour %s", fournisseur)
	}
	b.WriteString(" :\n\n")

	for _, line := range lines {
		fmt.Fprintf(&b, "- %s", line.Nom)
		if line.NumeroLot != "" {
			fmt.Fprintf(&b, " (lot %s)", line.NumeroLot)
		}
		fmt.Fprintf(&b, " : %d", line.Quantite.Int64())
		if line.Urgent {
			b.WriteString(" *URGENT*")
		}
		if !line.Remise.IsZero() {
			fmt.Fprintf(&b, " (remise %s%%)", line.Remise.String())
		}
		b.WriteString("\n")
	}

	b.WriteString("\nMerci.")
	return b.String()
}

// Link builds the wa.me composition URL for a contact phone. Opening it is
// fire and forget; no delivery state comes back.
func Link(telephone, message string) string {
	digits := waDigits(telephone)
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(message)
}

// waDigits keeps only digits; wa.me rejects plus signs and separators.
func waDigits(telephone string) string {
	var b strings.Builder
	for _, r := range telephone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
