package supplier

import (
	"sort"
	"strings"

	"pharmstock/internal/core/opkey"
	"pharmstock/internal/domain/purchase"
	"pharmstock/internal/domain/sales"
	"pharmstock/internal/domain/stock"
)

// Resolver maps a product (optionally with a batch number) to a supplier
// name. It is built per pipeline run from two sources: current stock lots
// and historical purchases, both keyed on normalized names, first write
// wins. Resolution is best-effort; "" means unknown and the ordering desk
// assigns the supplier by hand.
type Resolver struct {
	stockIdx    map[string]string
	purchaseIdx map[string]string

	// sorted name-level keys for the substring tier, kept deterministic
	stockNames    []string
	purchaseNames []string

	// DisableFuzzy turns the substring tier off. The fuzzy tier trades
	// recall for occasional false positives; keeping it a switch lets the
	// desk tighten matching without touching the pipeline.
	DisableFuzzy bool
}

// BuildResolver indexes lots and purchases.
func BuildResolver(lots []stock.Lot, purchases []purchase.Purchase) *Resolver {
	r := &Resolver{
		stockIdx:    make(map[string]string),
		purchaseIdx: make(map[string]string),
	}

	for _, lot := range lots {
		if lot.Fournisseur == "" {
			continue
		}
		nameKey := lot.NomKey()
		if nameKey == "" {
			continue
		}
		put(r.stockIdx, nameKey, lot.Fournisseur)
		if lotKey := lot.LotKey(); lotKey != "" {
			put(r.stockIdx, nameKey+"|"+lotKey, lot.Fournisseur)
		}
	}

	for _, p := range purchases {
		if p.Fournisseur == "" {
			continue
		}
		// Purchase articles share the sale-line shapes.
		for _, li := range sales.ExtractLines(p.Articles) {
			nameKey := opkey.Normalize(li.Produit)
			if nameKey == "" {
				continue
			}
			put(r.purchaseIdx, nameKey, p.Fournisseur)
			if lotKey := opkey.Normalize(li.NumeroLot); lotKey != "" {
				put(r.purchaseIdx, nameKey+"|"+lotKey, p.Fournisseur)
			}
		}
	}

	r.stockNames = nameLevelKeys(r.stockIdx)
	r.purchaseNames = nameLevelKeys(r.purchaseIdx)
	return r
}

// Resolve returns the supplier name for a product/lot pair, or "" when no
// strategy matches. Strategy order: exact name|lot in stock, exact
// name|lot in purchases, exact name in stock, exact name in purchases,
// substring in stock, substring in purchases.
func (r *Resolver) Resolve(produit, numeroLot string) string {
	nameKey := opkey.Normalize(produit)
	if nameKey == "" {
		return ""
	}

	if lotKey := opkey.Normalize(numeroLot); lotKey != "" {
		full := nameKey + "|" + lotKey
		if f, ok := r.stockIdx[full]; ok {
			return f
		}
		if f, ok := r.purchaseIdx[full]; ok {
			return f
		}
	}

	if f, ok := r.stockIdx[nameKey]; ok {
		return f
	}
	if f, ok := r.purchaseIdx[nameKey]; ok {
		return f
	}

	if r.DisableFuzzy {
		return ""
	}
	if f := fuzzyLookup(r.stockIdx, r.stockNames, nameKey); f != "" {
		return f
	}
	return fuzzyLookup(r.purchaseIdx, r.purchaseNames, nameKey)
}

func put(idx map[string]string, key, fournisseur string) {
	if _, exists := idx[key]; !exists {
		idx[key] = fournisseur
	}
}

func nameLevelKeys(idx map[string]string) []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		if !strings.ContainsRune(k, '|') {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// fuzzyLookup matches when one normalized name contains the other. Sorted
// iteration keeps the pick deterministic across runs.
func fuzzyLookup(idx map[string]string, names []string, nameKey string) string {
	for _, candidate := range names {
		if substringMatch(candidate, nameKey) {
			return idx[candidate]
		}
	}
	return ""
}

func substringMatch(a, b string) bool {
	if len(a) < 3 || len(b) < 3 {
		// Too short to mean anything; skip to limit false positives.
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
