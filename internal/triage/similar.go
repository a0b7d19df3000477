package triage

import (
	"strings"

	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

const (
	// significantLen is the minimum token length (exclusive) counted toward
	// ticket similarity.
	significantLen = 3
	// maxSimilar caps the number of similar tickets returned.
	maxSimilar = 3
)

// FindSimilar returns tickets whose subject+text share at least two
// significant words with the query, in store order, capped at three.
//
// This is a linear scan over the ticket set, which is fine at the volumes a
// single support desk sees. An inverted index would preserve the same
// qualification rule if that ever stops being true.
func FindSimilar(text string, tickets []*support.Ticket) []*support.Ticket {
	words := strings.Fields(strings.ToLower(text))

	var out []*support.Ticket
	for _, t := range tickets {
		combined := strings.ToLower(t.Subject + " " + t.Text)
		matches := 0
		for _, w := range words {
			if len(w) > significantLen && strings.Contains(combined, w) {
				matches++
			}
		}
		if matches >= 2 {
			out = append(out, t)
			if len(out) == maxSimilar {
				break
			}
		}
	}
	return out
}
