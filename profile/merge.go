package profile

import "strings"

// Extraction is the structured payload returned by the generation
// collaborator. All fields are optional strings; absence means the
// tenant has not provided the detail yet.
type Extraction struct {
	Budget      string `json:"budget,omitempty"`
	MoveInDate  string `json:"move_in_date,omitempty"`
	LeaseLength string `json:"lease_length,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	CreditScore string `json:"credit_score,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// Merge writes heuristic and generator fields into p, last-write-wins
// per field. For phone, email, and move-in date the generator wins
// when it produced a value and the heuristic fills the gap otherwise.
// Budget, lease length, occupation, credit score, and summary come
// only from the generator; heuristics never attempt them. A nil
// extraction (parse failure) merges heuristics alone.
func Merge(p *ApplicantProfile, h Heuristics, ex *Extraction) {
	if p == nil {
		return
	}

	setIfPresent(&p.Phone, h.Phone)
	setIfPresent(&p.Email, h.Email)
	setIfPresent(&p.MoveInDate, h.MoveInDate)

	if ex != nil {
		setIfPresent(&p.Phone, ex.Phone)
		setIfPresent(&p.Email, ex.Email)
		setIfPresent(&p.MoveInDate, ex.MoveInDate)
		setIfPresent(&p.Budget, ex.Budget)
		setIfPresent(&p.LeaseLength, ex.LeaseLength)
		setIfPresent(&p.Occupation, ex.Occupation)
		setIfPresent(&p.CreditScore, ex.CreditScore)
		setIfPresent(&p.Summary, ex.Summary)
	}
}

func setIfPresent(dst *string, v string) {
	v = strings.TrimSpace(v)
	if v != "" {
		*dst = v
	}
}
