package sales

import (
	"strings"
)

// IsTransfer reports whether a line moves stock between bins instead of
// selling it. Transfer lines must never reach the aggregator or the
// decrement engine.
//
// Besides the explicit flag this is a text heuristic on the note field:
// a note naming both bins, or containing a transfer keyword, marks the
// line. A sale whose free-text note happens to mention both bin labels is
// misclassified; an explicit operation type on sale documents would retire
// this predicate.
func IsTransfer(li LineItem) bool {
	if li.Transfer {
		return true
	}
	note := strings.ToLower(li.Note)
	if note == "" {
		return false
	}
	if strings.Contains(note, "stock1") && strings.Contains(note, "stock2") {
		return true
	}
	return strings.Contains(note, "transfert") || strings.Contains(note, "transfer")
}
