package profile

import (
	"regexp"
	"strings"

	"github.com/lindenrealty/rentscreen/extract"
)

// Fixed contact patterns applied to the concatenation of tenant
// messages. These cover only what pattern matching can do reliably;
// everything else comes from the generator's structured extraction.
var (
	phonePattern  = regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	moveInPattern = regexp.MustCompile(`(?i)(?:move in|move-in|moving|available)\s*(?:on|by|in)?\s*([A-Za-z]+\s+\d{1,2}(?:st|nd|rd|th)?,?\s*(?:\d{4})?|\d{1,2}/\d{1,2}(?:/\d{2,4})?)`)
)

// Heuristics is the pattern-matched portion of an applicant profile.
type Heuristics struct {
	Phone      string
	Email      string
	MoveInDate string
}

// ExtractHeuristics scans the tenant side of the conversation for
// contact details.
func ExtractHeuristics(msgs []extract.Message) Heuristics {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.FromTenant {
			parts = append(parts, m.Text)
		}
	}
	allText := strings.Join(parts, " ")

	var h Heuristics
	if m := phonePattern.FindString(allText); m != "" {
		h.Phone = m
	}
	if m := emailPattern.FindString(allText); m != "" {
		h.Email = m
	}
	if m := moveInPattern.FindStringSubmatch(allText); len(m) == 2 {
		h.MoveInDate = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), ","))
	}
	return h
}
