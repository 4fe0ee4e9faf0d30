// Package orchestrate holds the per-conversation decision state
// machine. One evaluation pass reconciles the observed message list
// with persisted memory, decides whether a reply is due, and
// sequences memory update, insertion, and send so that at most one
// reply is issued per tenant message.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lindenrealty/rentscreen/convmem"
	"github.com/lindenrealty/rentscreen/extract"
	"github.com/lindenrealty/rentscreen/generate"
	"github.com/lindenrealty/rentscreen/profile"
	"github.com/lindenrealty/rentscreen/surface"
)

var ErrEmptyConversationID = errors.New("orchestrate: conversation id is required")

type Orchestrator struct {
	extractor *extract.Extractor
	generator *generate.Generator
	memory    *convmem.Memory
	logger    *slog.Logger
	now       func() time.Time
}

func New(extractor *extract.Extractor, generator *generate.Generator, memory *convmem.Memory, logger *slog.Logger) *Orchestrator {
	if extractor == nil {
		extractor = extract.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		extractor: extractor,
		generator: generator,
		memory:    memory,
		logger:    logger,
		now:       time.Now,
	}
}

// Evaluate runs one pass over the thread, which must already be the
// surface's focused conversation. Callers serialize Evaluate; two
// concurrent evaluations of the same conversation are outside the
// concurrency contract.
func (o *Orchestrator) Evaluate(ctx context.Context, sfc surface.Surface, thread surface.Thread) Result {
	id := strings.TrimSpace(thread.ID)
	if id == "" {
		return errorResult(id, ErrEmptyConversationID)
	}
	log := o.logger.With("conversation_id", id)

	rec := o.memory.Get(id)
	if rec.ScreeningComplete {
		return Result{ConversationID: id, Outcome: OutcomeScreeningComplete, ScreeningComplete: true}
	}

	region, err := sfc.ReadRegion(ctx)
	if err != nil {
		return errorResult(id, fmt.Errorf("read message region: %w", err))
	}
	msgs := o.extractor.Extract(region)
	if len(msgs) == 0 {
		return Result{ConversationID: id, Outcome: OutcomeNoConversation}
	}

	tenantCount := extract.TenantCount(msgs)

	if !msgs[len(msgs)-1].FromTenant {
		// The tenant has not replied since our last message; drop any
		// stale pending marker so the next tenant message evaluates
		// cleanly.
		if rec.PendingReplyMarker != "" {
			rec.PendingReplyMarker = ""
			if err := o.memory.Commit(ctx, rec); err != nil {
				return errorResult(id, err)
			}
			log.Debug("pending_marker_cleared")
		}
		return Result{ConversationID: id, Outcome: OutcomeNoReplyNeeded, TenantMessages: tenantCount}
	}

	lastTenantText := extract.LastTenantText(msgs)
	if rec.PendingReplyMarker != "" && rec.PendingReplyMarker == lastTenantText {
		return Result{ConversationID: id, Outcome: OutcomePending, TenantMessages: tenantCount}
	}
	// Read side of the write-before-send barrier: a near-simultaneous
	// trigger that lost the race observes the already-updated count
	// and must not generate a second reply for the same message.
	if tenantCount <= rec.LastTenantMessageCount {
		return Result{ConversationID: id, Outcome: OutcomePending, TenantMessages: tenantCount}
	}

	reply, err := o.generator.Reply(ctx, msgs)
	if err != nil {
		// Generation failure mutates nothing.
		log.Warn("reply_generation_failed", "error", err.Error())
		return errorResult(id, err)
	}

	extraction, err := o.generator.Extract(ctx, msgs)
	if err != nil {
		// Heuristic-only fallback; never blocks the reply.
		log.Warn("structured_extraction_failed", "error", err.Error())
		extraction = nil
	}

	prof, screeningComplete, err := o.mergeProfile(ctx, thread, msgs, tenantCount, extraction)
	if err != nil {
		return errorResult(id, err)
	}

	// Persist the observed count before handing the reply to the
	// surface. This ordering is the duplicate-prevention barrier.
	rec.LastTenantMessageCount = tenantCount
	rec.ScreeningComplete = screeningComplete
	if err := o.memory.Commit(ctx, rec); err != nil {
		return errorResult(id, err)
	}

	if err := sfc.InsertReply(ctx, reply); err != nil {
		return errorResult(id, fmt.Errorf("insert reply: %w", err))
	}
	rec.PendingReplyMarker = lastTenantText
	if err := o.memory.Commit(ctx, rec); err != nil {
		return errorResult(id, err)
	}

	result := Result{
		ConversationID:    id,
		Outcome:           OutcomeReplied,
		Reply:             reply,
		TenantMessages:    tenantCount,
		ScreeningComplete: screeningComplete,
	}
	if err := sfc.Send(ctx); err != nil {
		// Marker stays set, so a later pass reports pending instead
		// of regenerating; the operator sends by hand.
		log.Warn("send_unavailable", "error", err.Error())
		result.ManualSendRequired = true
		return result
	}

	log.Info("reply_sent",
		"tenant_messages", tenantCount,
		"screening_complete", screeningComplete,
		"profile_status", string(prof.Status),
	)
	return result
}

func (o *Orchestrator) mergeProfile(ctx context.Context, thread surface.Thread, msgs []extract.Message, tenantCount int, extraction *profile.Extraction) (profile.ApplicantProfile, bool, error) {
	id := strings.TrimSpace(thread.ID)
	prof, ok := o.memory.Profile(id)
	if !ok {
		prof = profile.ApplicantProfile{ConversationID: id}
	}
	if name := strings.TrimSpace(thread.DisplayName); name != "" {
		prof.Name = name
	}
	if listing := strings.TrimSpace(thread.Listing); listing != "" {
		prof.Property = listing
	}

	profile.Merge(&prof, profile.ExtractHeuristics(msgs), extraction)
	prof.MessageCount = tenantCount
	prof.LastReplyTime = o.now().UTC()

	complete := profile.IsComplete(prof)
	if complete {
		prof.Status = profile.StatusComplete
	} else {
		prof.Status = profile.StatusActive
	}

	if err := o.memory.PutProfile(ctx, prof); err != nil {
		return profile.ApplicantProfile{}, false, err
	}
	return prof, complete, nil
}
