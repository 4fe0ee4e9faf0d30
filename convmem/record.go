package convmem

import "strings"

// Record is the persisted per-conversation state. PendingReplyMarker
// holds the tenant message text a reply was generated for but whose
// send is not yet confirmed; empty means no reply is outstanding.
type Record struct {
	ID                     string `json:"id"`
	LastTenantMessageCount int    `json:"last_tenant_message_count"`
	PendingReplyMarker     string `json:"pending_reply_marker,omitempty"`
	ScreeningComplete      bool   `json:"screening_complete,omitempty"`
}

// merge applies an update on top of the stored record while holding
// the structural invariants: the tenant message count never
// decreases and screening completion is one-way.
func merge(stored, update Record) Record {
	out := update
	out.ID = strings.TrimSpace(out.ID)
	if stored.LastTenantMessageCount > out.LastTenantMessageCount {
		out.LastTenantMessageCount = stored.LastTenantMessageCount
	}
	if stored.ScreeningComplete {
		out.ScreeningComplete = true
	}
	return out
}
