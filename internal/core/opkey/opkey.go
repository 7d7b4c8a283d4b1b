// Package opkey builds the identifiers that tie the whole pipeline together:
// operation ids for sale lines, normalized line keys for order aggregation,
// supplement keys for post-send arrivals and random keys for manual lines.
package opkey

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// supplementMarker separates a base line key from its supplement suffix.
const supplementMarker = "|supplement-v"

// foldTransformer strips diacritics: decompose, drop combining marks,
// recompose. Safe to share, transform.Chain values are stateless factories.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds a product or lot label into its canonical key form:
// trimmed, lowercased, diacritics removed, inner whitespace collapsed away.
// "Paracétamol 500mg" and "paracetamol 500MG " normalize identically.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(foldTransformer, s)
	if err == nil {
		s = folded
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Operation builds the operation id for one sale line: "{saleID}#{index}".
// The pair identifies a line item for the whole life of the sale document,
// so it anchors both the applied and the dismissed ledgers.
func Operation(saleID string, lineIndex int) string {
	return saleID + "#" + strconv.Itoa(lineIndex)
}

// ParseOperation splits an operation id back into sale id and line index.
func ParseOperation(op string) (saleID string, lineIndex int, ok bool) {
	i := strings.LastIndexByte(op, '#')
	if i <= 0 || i == len(op)-1 {
		return "", 0, false
	}
	idx, err := strconv.Atoi(op[i+1:])
	if err != nil || idx < 0 {
		return "", 0, false
	}
	return op[:i], idx, true
}

// Line builds the aggregation key for a product/lot pair. An empty lot
// number keys as "-" so "name" and "name with lot" never collide.
func Line(nom, numeroLot string) string {
	lot := Normalize(numeroLot)
	if lot == "" {
		lot = "-"
	}
	return Normalize(nom) + "|" + lot
}

// Supplement builds the key for a supplement line: new sale operations that
// arrived after the base line was already sent. The version increments per
// base key. Callers must derive at from stable input, the key has to come
// out identical every time the line is rebuilt.
func Supplement(baseKey string, version int, at time.Time) string {
	return fmt.Sprintf("%s%s%d-%d", baseKey, supplementMarker, version, at.Unix())
}

// IsSupplement reports whether key is a supplement of any base key.
func IsSupplement(key string) bool {
	return strings.Contains(key, supplementMarker)
}

// SupplementBase returns the base key a supplement key derives from, and
// whether key is a supplement at all.
func SupplementBase(key string) (string, bool) {
	i := strings.Index(key, supplementMarker)
	if i < 0 {
		return "", false
	}
	return key[:i], true
}

// Manual returns a random key for a manually created order line. Random
// keys can never collide with aggregation keys, which keeps manual lines
// immune to aggregation overwrites.
func Manual() string {
	return "manual-" + uuid.NewString()
}

// IsManual reports whether key was produced by Manual.
func IsManual(key string) bool {
	return strings.HasPrefix(key, "manual-")
}
