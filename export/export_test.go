package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindenrealty/rentscreen/profile"
)

func TestWriteCSVStartsWithBOMAndHeader(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, nil))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"))

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff")))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Conversation ID", rows[0][0])
}

func TestWriteCSVSortsByRecency(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	profiles := []profile.ApplicantProfile{
		{ConversationID: "old", LastReplyTime: base},
		{ConversationID: "new", LastReplyTime: base.Add(time.Hour)},
	}

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, profiles))

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\ufeff")))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "new", rows[1][0])
	assert.Equal(t, "old", rows[2][0])
}

func TestWriteCSVEscapesFieldsWithCommas(t *testing.T) {
	profiles := []profile.ApplicantProfile{{
		ConversationID: "c1",
		Name:           "Chen, Alex",
		Budget:         "$1,500",
		MessageCount:   4,
	}}

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, profiles))

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\ufeff")))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Chen, Alex", rows[1][1])
	assert.Equal(t, "$1,500", rows[1][3])
	assert.Equal(t, "4", rows[1][11])
}

func TestRenderDossier(t *testing.T) {
	p := profile.ApplicantProfile{
		ConversationID: "c1",
		Name:           "Alex Chen",
		Property:       "2BR on Maple St",
		Budget:         "$1500",
		MoveInDate:     "June 1st",
		LeaseLength:    "12 months",
		Occupation:     "nurse",
		Phone:          "555-123-4567",
		Summary:        "Responsive, stable income.",
		LastReplyTime:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		MessageCount:   6,
		Status:         profile.StatusComplete,
	}

	out, err := RenderDossier(p)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.Contains(t, out, "conversation_id: c1")
	assert.Contains(t, out, "status: complete")
	assert.Contains(t, out, "# Alex Chen")
	assert.Contains(t, out, "- **Budget**: $1500")
	assert.Contains(t, out, "- **Phone**: 555-123-4567")
	assert.Contains(t, out, "## Summary")
}

func TestRenderDossierFallsBackToConversationID(t *testing.T) {
	out, err := RenderDossier(profile.ApplicantProfile{ConversationID: "c9"})
	require.NoError(t, err)
	assert.Contains(t, out, "# c9")
	// Unknown fields render as placeholders, not blanks.
	assert.Contains(t, out, "- **Email**: -")
	assert.NotContains(t, out, "## Summary")
}
