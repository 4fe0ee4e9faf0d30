// Package export renders collected applicant profiles for handoff:
// a spreadsheet-friendly CSV and a per-applicant markdown dossier
// with yaml frontmatter.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lindenrealty/rentscreen/profile"
)

// utf8BOM makes Excel detect the encoding when the CSV is opened
// directly.
const utf8BOM = "\ufeff"

var csvHeader = []string{
	"Conversation ID",
	"Name",
	"Property",
	"Budget",
	"Move-in Date",
	"Lease Length",
	"Occupation",
	"Phone",
	"Email",
	"Credit Score",
	"Status",
	"Messages",
	"Last Reply",
	"Summary",
}

// WriteCSV renders the profiles sorted by most recent activity first.
func WriteCSV(w io.Writer, profiles []profile.ApplicantProfile) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	sorted := make([]profile.ApplicantProfile, len(profiles))
	copy(sorted, profiles)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastReplyTime.After(sorted[j].LastReplyTime)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range sorted {
		lastReply := ""
		if !p.LastReplyTime.IsZero() {
			lastReply = p.LastReplyTime.UTC().Format(time.RFC3339)
		}
		row := []string{
			p.ConversationID,
			p.Name,
			p.Property,
			p.Budget,
			p.MoveInDate,
			p.LeaseLength,
			p.Occupation,
			p.Phone,
			p.Email,
			p.CreditScore,
			string(p.Status),
			strconv.Itoa(p.MessageCount),
			lastReply,
			p.Summary,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type dossierFrontmatter struct {
	ConversationID string `yaml:"conversation_id"`
	Name           string `yaml:"name,omitempty"`
	Property       string `yaml:"property,omitempty"`
	Status         string `yaml:"status,omitempty"`
	MessageCount   int    `yaml:"message_count"`
	LastReplyTime  string `yaml:"last_reply_time,omitempty"`
}

// RenderDossier produces a markdown dossier for one applicant with a
// yaml frontmatter block followed by the collected screening fields.
func RenderDossier(p profile.ApplicantProfile) (string, error) {
	fm := dossierFrontmatter{
		ConversationID: p.ConversationID,
		Name:           p.Name,
		Property:       p.Property,
		Status:         string(p.Status),
		MessageCount:   p.MessageCount,
	}
	if !p.LastReplyTime.IsZero() {
		fm.LastReplyTime = p.LastReplyTime.UTC().Format(time.RFC3339)
	}
	fmRaw, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString(strings.TrimSpace(string(fmRaw)))
	b.WriteString("\n---\n\n")

	title := strings.TrimSpace(p.Name)
	if title == "" {
		title = p.ConversationID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	writeField(&b, "Budget", p.Budget)
	writeField(&b, "Move-in date", p.MoveInDate)
	writeField(&b, "Lease length", p.LeaseLength)
	writeField(&b, "Occupation", p.Occupation)
	writeField(&b, "Phone", p.Phone)
	writeField(&b, "Email", p.Email)
	writeField(&b, "Credit score", p.CreditScore)

	if summary := strings.TrimSpace(p.Summary); summary != "" {
		b.WriteString("\n## Summary\n\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func writeField(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(b, "- **%s**: %s\n", label, value)
}
