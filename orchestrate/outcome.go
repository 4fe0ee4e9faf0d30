package orchestrate

// Outcome is the status of one evaluation pass. Every pass reports
// exactly one outcome; nothing is thrown past this boundary.
type Outcome string

const (
	// OutcomeScreeningComplete: the conversation finished screening
	// earlier; the reply path never re-evaluates it.
	OutcomeScreeningComplete Outcome = "screening_complete"

	// OutcomeNoConversation: extraction produced no messages.
	OutcomeNoConversation Outcome = "no_conversation"

	// OutcomeNoReplyNeeded: the most recent message is operator-sent.
	OutcomeNoReplyNeeded Outcome = "no_reply_needed"

	// OutcomePending: a reply for the current tenant message was
	// already generated and is awaiting send confirmation.
	OutcomePending Outcome = "pending"

	// OutcomeReplied: a reply was generated and handed to the
	// surface this pass.
	OutcomeReplied Outcome = "replied"

	// OutcomeError: the pass failed without mutating state.
	OutcomeError Outcome = "error"
)

// Result describes one evaluation pass over one conversation.
type Result struct {
	ConversationID     string  `json:"conversation_id"`
	Outcome            Outcome `json:"outcome"`
	Reply              string  `json:"reply,omitempty"`
	TenantMessages     int     `json:"tenant_messages,omitempty"`
	ManualSendRequired bool    `json:"manual_send_required,omitempty"`
	ScreeningComplete  bool    `json:"screening_complete,omitempty"`
	Err                error   `json:"-"`
	ErrText            string  `json:"error,omitempty"`
}

func errorResult(id string, err error) Result {
	return Result{
		ConversationID: id,
		Outcome:        OutcomeError,
		Err:            err,
		ErrText:        err.Error(),
	}
}
