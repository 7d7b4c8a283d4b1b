package sales

import (
	"encoding/json"
	"strings"

	"pharmstock/internal/core/types"
)

// Extraction runs an ordered list of strategies against the raw payload and
// keeps the first plausible result. Old frontend versions stored articles
// under different field names; a few stored them under ad-hoc keys. New
// shapes get a new strategy here, aggregation never changes.

// knownArrayFields are article-array field names seen in production data,
// most common first.
var knownArrayFields = []string{
	"articles", "items", "lignes", "produits", "products", "lines",
}

type extractor func(doc map[string]json.RawMessage) []LineItem

var extractors = []extractor{
	extractKnownFields,
	extractAnyLineArray,
}

// ExtractLines pulls line items out of a sale payload. It returns nil when
// no strategy finds a plausible array; a sale without lines is data noise,
// not an error. A payload that is itself an array (purchase articles are
// stored that way) is decoded directly.
func ExtractLines(payload []byte) []LineItem {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		if lines, ok := decodeLineArray(payload); ok {
			return lines
		}
		return nil
	}
	for _, try := range extractors {
		if lines := try(doc); lines != nil {
			return lines
		}
	}
	return nil
}

// extractKnownFields tries the well-known article field names in order.
func extractKnownFields(doc map[string]json.RawMessage) []LineItem {
	for _, field := range knownArrayFields {
		raw, ok := doc[field]
		if !ok {
			continue
		}
		if lines, ok := decodeLineArray(raw); ok {
			return lines
		}
	}
	return nil
}

// extractAnyLineArray scans every field for an array of line-item-like
// objects. Field names are sorted implicitly by Go map order, so the result
// is only taken when exactly one candidate array exists; ambiguity means we
// rather extract nothing than the wrong array.
func extractAnyLineArray(doc map[string]json.RawMessage) []LineItem {
	var found []LineItem
	candidates := 0
	for _, raw := range doc {
		if lines, ok := decodeLineArray(raw); ok {
			candidates++
			found = lines
		}
	}
	if candidates == 1 {
		return found
	}
	return nil
}

// decodeLineArray decodes raw as an array of objects and coerces each into
// a LineItem. The array is plausible when at least one element carries both
// a product-name-like key and a quantity-like key.
func decodeLineArray(raw json.RawMessage) ([]LineItem, bool) {
	var arr []map[string]any
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, false
	}
	if len(arr) == 0 {
		return nil, false
	}

	plausible := false
	lines := make([]LineItem, 0, len(arr))
	for _, obj := range arr {
		li := coerceLine(obj)
		if li.Produit != "" && hasQuantityKey(obj) {
			plausible = true
		}
		lines = append(lines, li)
	}
	if !plausible {
		return nil, false
	}
	return lines, true
}

// Key spellings observed across frontend versions.
var (
	produitKeys   = []string{"produit", "nom", "name", "designation", "libelle", "product"}
	quantiteKeys  = []string{"quantite", "qte", "quantity", "qty"}
	lotKeys       = []string{"numeroLot", "numero_lot", "lot", "batch", "noLot"}
	sourceKeys    = []string{"stockSource", "stock_source", "source"}
	entryIDKeys   = []string{"stockEntryId", "stock_entry_id", "lotId", "lot_id"}
	noteKeys      = []string{"note", "commentaire", "remarque", "comment"}
	transferGates = []string{"transfert", "transfer", "isTransfer", "is_transfert"}
)

func coerceLine(obj map[string]any) LineItem {
	li := LineItem{
		Produit:      firstString(obj, produitKeys),
		NumeroLot:    firstString(obj, lotKeys),
		StockEntryID: firstString(obj, entryIDKeys),
		Note:         firstString(obj, noteKeys),
		StockSource:  coerceSource(firstString(obj, sourceKeys)),
	}
	for _, key := range quantiteKeys {
		if v, ok := obj[key]; ok {
			li.Quantite = types.CoerceQuantity(v)
			break
		}
	}
	for _, key := range transferGates {
		if b, ok := obj[key].(bool); ok && b {
			li.Transfer = true
			break
		}
	}
	return li
}

func firstString(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func hasQuantityKey(obj map[string]any) bool {
	for _, key := range quantiteKeys {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

func coerceSource(s string) StockSource {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stock1", "1":
		return SourceStock1
	case "stock2", "2":
		return SourceStock2
	default:
		return SourceUnknown
	}
}
