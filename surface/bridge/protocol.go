package bridge

import "encoding/json"

// Operation names spoken over the bridge socket. The driver executes
// each against the messaging page and answers with the matching frame
// id.
const (
	opListThreads   = "list_threads"
	opFocusedThread = "focused_thread"
	opFocus         = "focus"
	opReadRegion    = "read_region"
	opInsertReply   = "insert_reply"
	opSend          = "send"
)

// errSendUnavailable is the wire code a driver reports when the send
// affordance cannot be found or actuated.
const errSendUnavailable = "send_unavailable"

type commandFrame struct {
	ID      string          `json:"id"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type responseFrame struct {
	ID      string          `json:"id"`
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type focusPayload struct {
	ThreadID string `json:"thread_id"`
}

type insertReplyPayload struct {
	Text string `json:"text"`
}

type focusedThreadResult struct {
	Present bool            `json:"present"`
	Thread  json.RawMessage `json:"thread,omitempty"`
}
