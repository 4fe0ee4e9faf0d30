package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/lindenrealty/rentscreen/extract"
	"github.com/lindenrealty/rentscreen/llm"
)

type fakeClient struct {
	text string
	err  error

	lastReq llm.Request
	calls   int
}

func (f *fakeClient) Chat(_ context.Context, req llm.Request) (llm.Result, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return llm.Result{}, f.err
	}
	return llm.Result{Text: f.text}, nil
}

var sampleConversation = []extract.Message{
	{Text: "Hi, is this available?", FromTenant: true},
	{Text: "Yes! What's your budget?", FromTenant: false},
	{Text: "$1500, moving June 1st", FromTenant: true},
}

func TestReplyMapsRoles(t *testing.T) {
	client := &fakeClient{text: "Great! What's your phone number?"}
	g := New(client, "gpt-4o-mini", "")

	reply, err := g.Reply(context.Background(), sampleConversation)
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply != "Great! What's your phone number?" {
		t.Errorf("reply = %q", reply)
	}

	msgs := client.lastReq.Messages
	if len(msgs) != 4 {
		t.Fatalf("expected system + 3 turns, got %d", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem {
		t.Errorf("first message role = %q", msgs[0].Role)
	}
	if msgs[1].Role != llm.RoleUser || msgs[2].Role != llm.RoleAssistant || msgs[3].Role != llm.RoleUser {
		t.Errorf("role mapping wrong: %q %q %q", msgs[1].Role, msgs[2].Role, msgs[3].Role)
	}
	if client.lastReq.ForceJSON {
		t.Error("reply call must not force JSON")
	}
}

func TestReplyEmptyResponse(t *testing.T) {
	g := New(&fakeClient{text: "   "}, "m", "")
	if _, err := g.Reply(context.Background(), sampleConversation); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}

func TestReplyPropagatesClientError(t *testing.T) {
	g := New(&fakeClient{err: errors.New("boom")}, "m", "")
	if _, err := g.Reply(context.Background(), sampleConversation); err == nil {
		t.Fatal("expected error")
	}
}

func TestExtractParsesPlainJSON(t *testing.T) {
	client := &fakeClient{text: `{"budget":"$1500","move_in_date":"June 1st","phone":"555-123-4567","summary":"Student moving in June."}`}
	g := New(client, "m", "")

	ex, err := g.Extract(context.Background(), sampleConversation)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !client.lastReq.ForceJSON {
		t.Error("extraction call should force JSON")
	}
	if ex.Budget != "$1500" || ex.MoveInDate != "June 1st" || ex.Phone != "555-123-4567" {
		t.Errorf("extraction = %+v", ex)
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	client := &fakeClient{text: "Here you go:\n```json\n{\"budget\":\"$900\"}\n```"}
	g := New(client, "m", "")

	ex, err := g.Extract(context.Background(), sampleConversation)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if ex.Budget != "$900" {
		t.Errorf("budget = %q", ex.Budget)
	}
}

func TestExtractRejectsUnknownFields(t *testing.T) {
	client := &fakeClient{text: `{"budget":"$900","pets":"two cats"}`}
	g := New(client, "m", "")

	if _, err := g.Extract(context.Background(), sampleConversation); !errors.Is(err, ErrExtractionParse) {
		t.Fatalf("expected ErrExtractionParse, got %v", err)
	}
}

func TestExtractRejectsNonJSON(t *testing.T) {
	client := &fakeClient{text: "I could not find any details."}
	g := New(client, "m", "")

	if _, err := g.Extract(context.Background(), sampleConversation); !errors.Is(err, ErrExtractionParse) {
		t.Fatalf("expected ErrExtractionParse, got %v", err)
	}
}

func TestDefaultInstructionApplied(t *testing.T) {
	client := &fakeClient{text: "ok"}
	g := New(client, "m", "  ")
	if _, err := g.Reply(context.Background(), sampleConversation); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if client.lastReq.Messages[0].Content != DefaultInstruction {
		t.Error("blank instruction should fall back to the default")
	}
}
