// Package profile holds the applicant profile collected during
// screening, the heuristic contact extraction, and the merge policy
// between heuristic and generator-supplied fields.
package profile

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
)

// ApplicantProfile is the per-conversation screening dossier. All
// fields except ConversationID stay empty until discovered.
type ApplicantProfile struct {
	ConversationID string    `json:"conversation_id"`
	Name           string    `json:"name,omitempty"`
	Property       string    `json:"property,omitempty"`
	Budget         string    `json:"budget,omitempty"`
	MoveInDate     string    `json:"move_in_date,omitempty"`
	LeaseLength    string    `json:"lease_length,omitempty"`
	Occupation     string    `json:"occupation,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	CreditScore    string    `json:"credit_score,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	LastReplyTime  time.Time `json:"last_reply_time,omitzero"`
	MessageCount   int       `json:"message_count"`
	Status         Status    `json:"status,omitempty"`
}
