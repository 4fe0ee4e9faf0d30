package extract

import "strings"

type Sender int

const (
	SenderUnknown Sender = iota
	SenderTenant
	SenderOperator
)

// Classifier decides who sent a fragment. Returning SenderUnknown
// passes the decision to the next classifier in the chain, keeping
// the extractor free of any particular rendering surface.
type Classifier interface {
	Classify(frag Fragment, regionMidX float64) Sender
}

// operatorMarkers are literal sender-hint phrases meaning "sent by
// the operator side". Matched case-insensitively as substrings.
var operatorMarkers = []string{
	"you sent",
	"you said",
	"you replied",
	"you shared",
}

// MarkerClassifier reads explicit sender hints supplied by the
// surface.
type MarkerClassifier struct{}

func (MarkerClassifier) Classify(frag Fragment, _ float64) Sender {
	hint := strings.ToLower(strings.TrimSpace(frag.SenderHint))
	if hint == "" {
		return SenderUnknown
	}
	for _, marker := range operatorMarkers {
		if strings.Contains(hint, marker) {
			return SenderOperator
		}
	}
	// A hint that names someone else is an inbound bubble.
	return SenderTenant
}

// PositionClassifier uses bubble layout: outbound bubbles render
// right of the region midpoint, inbound ones left of it.
type PositionClassifier struct{}

func (PositionClassifier) Classify(frag Fragment, regionMidX float64) Sender {
	if !frag.HasPosition || regionMidX <= 0 {
		return SenderUnknown
	}
	if frag.CenterX > regionMidX {
		return SenderOperator
	}
	return SenderTenant
}
