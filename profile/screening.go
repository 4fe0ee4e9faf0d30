package profile

import "strings"

// IsComplete reports whether the five required screening attributes
// are all present: budget, move-in date, lease length, occupation,
// and phone. Credit score is optional and never blocks completion.
func IsComplete(p ApplicantProfile) bool {
	required := []string{p.Budget, p.MoveInDate, p.LeaseLength, p.Occupation, p.Phone}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
