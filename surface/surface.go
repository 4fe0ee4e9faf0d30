// Package surface defines the messaging-surface boundary: how
// conversation threads are listed, focused, observed, and replied to.
// The core never sees rendering details; a driver (for example the
// browser bridge) implements this interface.
package surface

import (
	"context"
	"errors"

	"github.com/lindenrealty/rentscreen/extract"
)

var (
	// ErrSendUnavailable reports that a reply was inserted but the
	// send affordance could not be found or actuated; the reply
	// requires manual sending.
	ErrSendUnavailable = errors.New("surface: send affordance unavailable")

	// ErrNoDriver reports that no driver is connected to serve
	// surface commands.
	ErrNoDriver = errors.New("surface: no driver connected")
)

// Thread is one conversation in the surface's thread list.
type Thread struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Listing     string `json:"listing,omitempty"`
	Unread      bool   `json:"unread,omitempty"`
}

// Surface is the messaging boundary consumed by the orchestrator and
// scheduler. Implementations serve one command at a time; the
// evaluation layer never issues concurrent calls.
type Surface interface {
	// ListThreads enumerates open conversation threads with their
	// unread-tenant-activity flags.
	ListThreads(ctx context.Context) ([]Thread, error)

	// FocusedThread reports the currently open thread, if any.
	FocusedThread(ctx context.Context) (Thread, bool, error)

	// Focus switches the active thread.
	Focus(ctx context.Context, id string) error

	// ReadRegion reads the open thread's message region as raw
	// fragments with optional position and sender hints.
	ReadRegion(ctx context.Context) (extract.Region, error)

	// InsertReply places text into the compose area of the open
	// thread without sending it.
	InsertReply(ctx context.Context, text string) error

	// Send triggers sending the composed reply. Returns
	// ErrSendUnavailable when the affordance is missing.
	Send(ctx context.Context) error
}
