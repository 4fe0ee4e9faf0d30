package profile

import (
	"testing"

	"github.com/lindenrealty/rentscreen/extract"
)

func TestExtractHeuristicsContacts(t *testing.T) {
	msgs := []extract.Message{
		{Text: "Hi, is this available?", FromTenant: true},
		{Text: "Yes! Could you share your details?", FromTenant: false},
		{Text: "Sure, my number is 555-123-4567 and email is alex@example.com", FromTenant: true},
		{Text: "I want to move in June 1st, 2026", FromTenant: true},
	}
	h := ExtractHeuristics(msgs)
	if h.Phone != "555-123-4567" {
		t.Errorf("Phone = %q", h.Phone)
	}
	if h.Email != "alex@example.com" {
		t.Errorf("Email = %q", h.Email)
	}
	if h.MoveInDate != "June 1st, 2026" {
		t.Errorf("MoveInDate = %q", h.MoveInDate)
	}
}

func TestExtractHeuristicsIgnoresOperatorText(t *testing.T) {
	msgs := []extract.Message{
		{Text: "Call us at 999-888-7777", FromTenant: false},
		{Text: "ok thanks", FromTenant: true},
	}
	h := ExtractHeuristics(msgs)
	if h.Phone != "" {
		t.Errorf("operator phone leaked into heuristics: %q", h.Phone)
	}
}

func TestMergeGeneratorWinsForSharedFields(t *testing.T) {
	p := ApplicantProfile{ConversationID: "c1"}
	h := Heuristics{Phone: "555-123-4567", Email: "old@example.com", MoveInDate: "6/1"}
	ex := &Extraction{
		Phone:      "555-999-0000",
		MoveInDate: "June 1st",
		Budget:     "$1500",
		Occupation: "student",
	}
	Merge(&p, h, ex)

	if p.Phone != "555-999-0000" {
		t.Errorf("generator phone should win, got %q", p.Phone)
	}
	if p.Email != "old@example.com" {
		t.Errorf("heuristic email should be kept when generator is silent, got %q", p.Email)
	}
	if p.MoveInDate != "June 1st" {
		t.Errorf("generator move-in should win, got %q", p.MoveInDate)
	}
	if p.Budget != "$1500" || p.Occupation != "student" {
		t.Errorf("generator-only fields not merged: %+v", p)
	}
}

func TestMergeNilExtractionKeepsHeuristics(t *testing.T) {
	p := ApplicantProfile{ConversationID: "c1", Budget: "$1200"}
	Merge(&p, Heuristics{Phone: "555-123-4567"}, nil)
	if p.Phone != "555-123-4567" {
		t.Errorf("heuristic phone lost: %q", p.Phone)
	}
	if p.Budget != "$1200" {
		t.Errorf("existing field overwritten by empty value: %q", p.Budget)
	}
}

func TestIsCompleteCreditScoreOptional(t *testing.T) {
	p := ApplicantProfile{
		Budget:      "$1500",
		MoveInDate:  "June 1st",
		LeaseLength: "12 months",
		Occupation:  "working",
		Phone:       "555-123-4567",
	}
	if !IsComplete(p) {
		t.Error("profile with all five required fields must be complete even without credit score")
	}
	p.Phone = ""
	if IsComplete(p) {
		t.Error("missing phone must block completion")
	}
	p.Phone = "   "
	if IsComplete(p) {
		t.Error("whitespace-only phone must block completion")
	}
}
