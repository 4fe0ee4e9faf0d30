package extract

import "regexp"

// uiNoisePatterns match non-content fragments that render inside the
// message region: timestamps, delivery states, system notices,
// listing metadata headers, and rating prompts. Maintained as literal
// patterns, never inferred.
var uiNoisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\d{1,2}:\d{2}(?:\s?[AP]M)?$`),
	regexp.MustCompile(`(?i)^(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)[a-z]*(?:,?\s.*)?\d{1,2}:\d{2}(?:\s?[AP]M)?$`),
	regexp.MustCompile(`(?i)^(?:Today|Yesterday)\b`),
	regexp.MustCompile(`(?i)^(?:Sent|Delivered|Seen)$`),
	regexp.MustCompile(`(?i)^Enter$`),
	regexp.MustCompile(`(?i)^You are now connected`),
	regexp.MustCompile(`(?i)^Say hi to\b`),
	regexp.MustCompile(`(?i)^View (?:listing|profile|seller profile)$`),
	regexp.MustCompile(`(?i)^Marketplace\b.*·`),
	regexp.MustCompile(`(?i)^·\s`),
	regexp.MustCompile(`(?i)rate your (?:conversation|experience)`),
	regexp.MustCompile(`(?i)^How was your (?:conversation|experience)`),
	regexp.MustCompile(`(?i)^Is this listing still available\?\s*·`),
}

func isUINoise(text string) bool {
	for _, p := range uiNoisePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
