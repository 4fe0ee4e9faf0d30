package llm

import (
	"context"
	"strings"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Result struct {
	Text     string
	Usage    Usage
	Duration time.Duration
}

type Request struct {
	Model     string
	Messages  []Message
	ForceJSON bool
}

// Client is the chat boundary. Implementations must tolerate
// sequential reuse; the orchestration layer never issues concurrent
// calls for the same conversation.
type Client interface {
	Chat(ctx context.Context, req Request) (Result, error)
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: strings.TrimSpace(content)}
}
