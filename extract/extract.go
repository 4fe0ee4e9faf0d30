// Package extract turns raw observed text fragments from an open
// conversation into a deduplicated, sender-classified, ordered
// message list.
package extract

import "strings"

// Message is one conversation bubble after classification.
type Message struct {
	Text       string `json:"text"`
	FromTenant bool   `json:"from_tenant"`
}

// Fragment is one raw text node observed in the message region.
// CenterX is the horizontal center of the bubble in region
// coordinates; HasPosition reports whether the surface supplied it.
// SenderHint carries any accessibility/sender text available for the
// node (for example "You sent a message").
type Fragment struct {
	Text        string  `json:"text"`
	SenderHint  string  `json:"sender_hint,omitempty"`
	CenterX     float64 `json:"center_x,omitempty"`
	HasPosition bool    `json:"has_position,omitempty"`
}

// Region is the observed message area of one open conversation.
// MidX is the horizontal midpoint used by the positional classifier;
// zero means the surface supplied no layout information.
type Region struct {
	Fragments []Fragment `json:"fragments"`
	MidX      float64    `json:"mid_x,omitempty"`
}

type Extractor struct {
	classifiers []Classifier
}

// New builds an extractor with the given classifier chain. A nil or
// empty chain falls back to the default marker-then-position chain.
func New(classifiers ...Classifier) *Extractor {
	if len(classifiers) == 0 {
		classifiers = []Classifier{MarkerClassifier{}, PositionClassifier{}}
	}
	return &Extractor{classifiers: classifiers}
}

type dedupKey struct {
	fromTenant bool
	text       string
}

// Extract classifies, filters, and deduplicates the region's
// fragments, preserving first-seen order. An empty region yields an
// empty list, never an error.
func (e *Extractor) Extract(region Region) []Message {
	out := make([]Message, 0, len(region.Fragments))
	seen := make(map[dedupKey]struct{}, len(region.Fragments))

	for _, frag := range region.Fragments {
		text := strings.TrimSpace(frag.Text)
		if text == "" {
			continue
		}
		if isUINoise(text) {
			continue
		}

		sender := SenderUnknown
		for _, c := range e.classifiers {
			sender = c.Classify(frag, region.MidX)
			if sender != SenderUnknown {
				break
			}
		}
		// No usable signal: inbound by default.
		if sender == SenderUnknown {
			sender = SenderTenant
		}

		key := dedupKey{fromTenant: sender == SenderTenant, text: text}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, Message{Text: text, FromTenant: sender == SenderTenant})
	}
	return out
}

// TenantCount returns the number of tenant-sent messages in msgs.
func TenantCount(msgs []Message) int {
	n := 0
	for _, m := range msgs {
		if m.FromTenant {
			n++
		}
	}
	return n
}

// LastTenantText returns the text of the most recent tenant message,
// or "" when the conversation holds none.
func LastTenantText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].FromTenant {
			return msgs[i].Text
		}
	}
	return ""
}
