// Package generate wraps the text-generation collaborator: one call
// produces the outbound reply, an independent second call extracts
// structured applicant fields from the same conversation.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lindenrealty/rentscreen/extract"
	"github.com/lindenrealty/rentscreen/internal/jsonutil"
	"github.com/lindenrealty/rentscreen/llm"
	"github.com/lindenrealty/rentscreen/profile"
)

var (
	ErrEmptyReply          = errors.New("generate: collaborator returned empty reply")
	ErrExtractionParse     = errors.New("generate: extraction response does not match schema")
	ErrClientNotConfigured = errors.New("generate: llm client is not configured")
)

type Generator struct {
	client      llm.Client
	model       string
	instruction string
}

// New builds a generator. An empty instruction falls back to the
// built-in screening prompt.
func New(client llm.Client, model, instruction string) *Generator {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return &Generator{
		client:      client,
		model:       strings.TrimSpace(model),
		instruction: instruction,
	}
}

// conversationMessages maps the ordered message list onto chat roles:
// tenant text arrives as user turns, operator text as assistant turns.
func conversationMessages(system string, msgs []extract.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs)+1)
	out = append(out, llm.SystemMessage(system))
	for _, m := range msgs {
		role := llm.RoleAssistant
		if m.FromTenant {
			role = llm.RoleUser
		}
		out = append(out, llm.Message{Role: role, Content: m.Text})
	}
	return out
}

// Reply asks the collaborator for the next outbound message given the
// full ordered conversation.
func (g *Generator) Reply(ctx context.Context, msgs []extract.Message) (string, error) {
	if g == nil || g.client == nil {
		return "", ErrClientNotConfigured
	}
	res, err := g.client.Chat(ctx, llm.Request{
		Model:    g.model,
		Messages: conversationMessages(g.instruction, msgs),
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	reply := strings.TrimSpace(res.Text)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// Extract asks the collaborator for the structured seven-field
// payload. The response is stripped of code fences before parsing and
// validated strictly against the schema; anything else reports
// ErrExtractionParse so the caller can fall back to heuristics.
func (g *Generator) Extract(ctx context.Context, msgs []extract.Message) (*profile.Extraction, error) {
	if g == nil || g.client == nil {
		return nil, ErrClientNotConfigured
	}
	res, err := g.client.Chat(ctx, llm.Request{
		Model:     g.model,
		Messages:  conversationMessages(extractionInstruction, msgs),
		ForceJSON: true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate extraction: %w", err)
	}

	candidate := jsonutil.ExtractObject(res.Text)
	if candidate == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrExtractionParse)
	}

	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.DisallowUnknownFields()
	var ex profile.Extraction
	if err := dec.Decode(&ex); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionParse, err)
	}
	return &ex, nil
}
