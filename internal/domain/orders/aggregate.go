package orders

import (
	"sort"
	"strings"
	"time"

	"pharmstock/internal/core/opkey"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/sales"
)

// ResolveFunc maps a product/lot pair to a supplier name; "" means unknown.
type ResolveFunc func(produit, numeroLot string) string

// Aggregate folds sale lines into per-key required quantities. Transfer
// lines, unnamed lines and dismissed operations are skipped; a missing or
// broken quantity counts as one box. The result is
// deterministic for a given input: sales are expected ordered (date, id)
// and map iteration never leaks into output ordering.
func Aggregate(saleDocs []sales.Sale, dismissed map[string]struct{}, resolve ResolveFunc) map[string]*RequiredLine {
	required := make(map[string]*RequiredLine)

	for _, sale := range saleDocs {
		for idx, li := range sale.Lines() {
			if strings.TrimSpace(li.Produit) == "" || sales.IsTransfer(li) {
				continue
			}
			opID := opkey.Operation(sale.ID, idx)
			if _, gone := dismissed[opID]; gone {
				continue
			}

			qty := li.Quantite
			if !qty.IsPositive() {
				// Broken quantities still represent one sold box.
				qty = 1
			}

			key := opkey.Line(li.Produit, li.NumeroLot)
			line, ok := required[key]
			if !ok {
				line = &RequiredLine{
					Key:          key,
					Nom:          li.Produit,
					NumeroLot:    li.NumeroLot,
					Date:         sale.Date,
					OpQuantities: make(map[string]types.Quantity),
					OpDates:      make(map[string]time.Time),
				}
				if resolve != nil {
					line.Fournisseur = resolve(li.Produit, li.NumeroLot)
				}
				required[key] = line
			}

			line.Quantite += qty
			line.SourceOps = append(line.SourceOps, opID)
			line.OpQuantities[opID] += qty
			line.OpDates[opID] = sale.Date
			if sale.Date.After(line.Date) {
				line.Date = sale.Date
			}
		}
	}

	return required
}

// SortLines orders lines for display: supplier, then name, then key.
// The unresolved group ("" supplier) sorts last.
func SortLines(lines []OrderLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Fournisseur != b.Fournisseur {
			if a.Fournisseur == "" {
				return false
			}
			if b.Fournisseur == "" {
				return true
			}
			return a.Fournisseur < b.Fournisseur
		}
		if a.Nom != b.Nom {
			return a.Nom < b.Nom
		}
		return a.Key < b.Key
	})
}

// GroupBySupplier splits a sorted line list into per-supplier groups,
// preserving line order.
func GroupBySupplier(lines []OrderLine) []SupplierGroup {
	var groups []SupplierGroup
	index := make(map[string]int)
	for _, line := range lines {
		i, ok := index[line.Fournisseur]
		if !ok {
			i = len(groups)
			index[line.Fournisseur] = i
			groups = append(groups, SupplierGroup{Fournisseur: line.Fournisseur})
		}
		groups[i].Lines = append(groups[i].Lines, line)
	}
	return groups
}
