package orchestrate

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lindenrealty/rentscreen/convmem"
	"github.com/lindenrealty/rentscreen/extract"
	"github.com/lindenrealty/rentscreen/generate"
	"github.com/lindenrealty/rentscreen/llm"
	"github.com/lindenrealty/rentscreen/profile"
	"github.com/lindenrealty/rentscreen/store/filekv"
	"github.com/lindenrealty/rentscreen/surface"
)

// fakeSurface serves a fixed region for the focused conversation and
// records insert/send calls.
type fakeSurface struct {
	region  extract.Region
	readErr error
	sendErr error

	inserted []string
	sends    int
}

func (f *fakeSurface) ListThreads(context.Context) ([]surface.Thread, error) { return nil, nil }
func (f *fakeSurface) FocusedThread(context.Context) (surface.Thread, bool, error) {
	return surface.Thread{}, false, nil
}
func (f *fakeSurface) Focus(context.Context, string) error { return nil }
func (f *fakeSurface) ReadRegion(context.Context) (extract.Region, error) {
	return f.region, f.readErr
}
func (f *fakeSurface) InsertReply(_ context.Context, text string) error {
	f.inserted = append(f.inserted, text)
	return nil
}
func (f *fakeSurface) Send(context.Context) error {
	f.sends++
	return f.sendErr
}

// scriptedLLM answers reply calls with replyText and extraction calls
// (ForceJSON) with extractionJSON.
type scriptedLLM struct {
	replyText      string
	extractionJSON string
	replyErr       error

	replyCalls      int
	extractionCalls int
}

func (s *scriptedLLM) Chat(_ context.Context, req llm.Request) (llm.Result, error) {
	if req.ForceJSON {
		s.extractionCalls++
		return llm.Result{Text: s.extractionJSON}, nil
	}
	s.replyCalls++
	if s.replyErr != nil {
		return llm.Result{}, s.replyErr
	}
	return llm.Result{Text: s.replyText}, nil
}

func tenantRegion(texts ...string) extract.Region {
	region := extract.Region{MidX: 400}
	for _, t := range texts {
		region.Fragments = append(region.Fragments, extract.Fragment{Text: t, CenterX: 100, HasPosition: true})
	}
	return region
}

func newHarness(t *testing.T, client llm.Client) (*Orchestrator, *convmem.Memory) {
	t.Helper()
	mem := convmem.New(filekv.New(filepath.Join(t.TempDir(), "kv")))
	gen := generate.New(client, "test-model", "")
	return New(extract.New(), gen, mem, nil), mem
}

func TestFirstTenantMessageGetsReply(t *testing.T) {
	// Scenario: one tenant message, no operator messages.
	client := &scriptedLLM{replyText: "Hi! What's your budget?", extractionJSON: `{}`}
	o, mem := newHarness(t, client)
	sfc := &fakeSurface{region: tenantRegion("Hi, is this available?")}

	res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomeReplied {
		t.Fatalf("outcome = %s (err=%v)", res.Outcome, res.Err)
	}
	if len(sfc.inserted) != 1 || sfc.inserted[0] != "Hi! What's your budget?" {
		t.Errorf("inserted = %v", sfc.inserted)
	}
	if sfc.sends != 1 {
		t.Errorf("sends = %d", sfc.sends)
	}

	rec := mem.Get("c1")
	if rec.LastTenantMessageCount != 1 {
		t.Errorf("count = %d, want 1", rec.LastTenantMessageCount)
	}
	if rec.PendingReplyMarker != "Hi, is this available?" {
		t.Errorf("marker = %q", rec.PendingReplyMarker)
	}
}

func TestOperatorLastMeansNoReply(t *testing.T) {
	client := &scriptedLLM{replyText: "never used"}
	o, mem := newHarness(t, client)
	sfc := &fakeSurface{region: extract.Region{
		MidX: 400,
		Fragments: []extract.Fragment{
			{Text: "Hi there", CenterX: 100, HasPosition: true},
			{Text: "Hello! How can I help?", CenterX: 700, HasPosition: true},
		},
	}}

	res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomeNoReplyNeeded {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if client.replyCalls != 0 {
		t.Error("generation must not run when the operator spoke last")
	}
	if rec := mem.Get("c1"); rec.LastTenantMessageCount != 0 {
		t.Errorf("state mutated: %+v", rec)
	}
}

func TestOperatorLastClearsStaleMarker(t *testing.T) {
	client := &scriptedLLM{}
	o, mem := newHarness(t, client)
	if err := mem.Commit(context.Background(), convmem.Record{ID: "c1", LastTenantMessageCount: 1, PendingReplyMarker: "old text"}); err != nil {
		t.Fatal(err)
	}
	sfc := &fakeSurface{region: extract.Region{
		MidX: 400,
		Fragments: []extract.Fragment{
			{Text: "old text", CenterX: 100, HasPosition: true},
			{Text: "our reply", CenterX: 700, HasPosition: true},
		},
	}}

	res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomeNoReplyNeeded {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if rec := mem.Get("c1"); rec.PendingReplyMarker != "" {
		t.Errorf("stale marker not cleared: %q", rec.PendingReplyMarker)
	}
}

func TestPendingMarkerSuppressesRegeneration(t *testing.T) {
	client := &scriptedLLM{replyText: "never used"}
	o, mem := newHarness(t, client)
	if err := mem.Commit(context.Background(), convmem.Record{ID: "c1", LastTenantMessageCount: 1, PendingReplyMarker: "Hi, is this available?"}); err != nil {
		t.Fatal(err)
	}
	sfc := &fakeSurface{region: tenantRegion("Hi, is this available?")}

	for i := 0; i < 3; i++ {
		res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
		if res.Outcome != OutcomePending {
			t.Fatalf("evaluation %d outcome = %s", i, res.Outcome)
		}
	}
	if client.replyCalls != 0 {
		t.Errorf("generation ran %d times while pending", client.replyCalls)
	}
}

func TestCountBarrierSuppressesDuplicate(t *testing.T) {
	// A second trigger that observes the already-persisted count must
	// not generate again even without a marker.
	client := &scriptedLLM{replyText: "never used"}
	o, mem := newHarness(t, client)
	if err := mem.Commit(context.Background(), convmem.Record{ID: "c1", LastTenantMessageCount: 1}); err != nil {
		t.Fatal(err)
	}
	sfc := &fakeSurface{region: tenantRegion("Hi, is this available?")}

	res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomePending {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if client.replyCalls != 0 {
		t.Error("generation must not run behind the count barrier")
	}
}

func TestGenerationFailureMutatesNothing(t *testing.T) {
	client := &scriptedLLM{replyErr: errors.New("upstream 500")}
	o, mem := newHarness(t, client)
	sfc := &fakeSurface{region: tenantRegion("Hi")}

	res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomeError {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if rec := mem.Get("c1"); rec.LastTenantMessageCount != 0 || rec.PendingReplyMarker != "" {
		t.Errorf("state mutated on generation failure: %+v", rec)
	}
	if len(sfc.inserted) != 0 || sfc.sends != 0 {
		t.Error("surface touched on generation failure")
	}
}

func TestHeuristicPhoneSurvivesExtractionFailure(t *testing.T) {
	// Scenario: tenant shares a phone number, structured extraction
	// returns garbage. The heuristic value must still land.
	client := &scriptedLLM{replyText: "Thanks!", extractionJSON: "not json at all"}
	o, mem := newHarness(t, client)
	sfc := &fakeSurface{region: tenantRegion("My number is 555-123-4567")}

	res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomeReplied {
		t.Fatalf("outcome = %s (err=%v)", res.Outcome, res.Err)
	}
	p, ok := mem.Profile("c1")
	if !ok {
		t.Fatal("profile missing")
	}
	if p.Phone != "555-123-4567" {
		t.Errorf("phone = %q", p.Phone)
	}
}

func TestScreeningCompletionIsTerminal(t *testing.T) {
	client := &scriptedLLM{
		replyText:      "All set, our property manager will reach out!",
		extractionJSON: `{"budget":"$1500","move_in_date":"June 1st","lease_length":"12 months","occupation":"working","phone":"555-123-4567"}`,
	}
	o, mem := newHarness(t, client)
	sfc := &fakeSurface{region: tenantRegion("Everything you asked for: $1500, June 1st, 12 months, working, 555-123-4567")}

	res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomeReplied || !res.ScreeningComplete {
		t.Fatalf("result = %+v", res)
	}
	if !mem.Get("c1").ScreeningComplete {
		t.Fatal("screening completion not persisted")
	}
	p, _ := mem.Profile("c1")
	if p.Status != profile.StatusComplete {
		t.Errorf("profile status = %q", p.Status)
	}

	// Later passes short-circuit without touching the surface or the
	// profile.
	before, _ := mem.Profile("c1")
	sfc2 := &fakeSurface{region: tenantRegion("follow-up message")}
	res = o.Evaluate(context.Background(), sfc2, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomeScreeningComplete {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if len(sfc2.inserted) != 0 || sfc2.sends != 0 {
		t.Error("surface touched after screening completion")
	}
	after, _ := mem.Profile("c1")
	if before != after {
		t.Errorf("profile changed after completion: %+v -> %+v", before, after)
	}
}

func TestSendUnavailableKeepsMarker(t *testing.T) {
	client := &scriptedLLM{replyText: "Got it!", extractionJSON: `{}`}
	o, mem := newHarness(t, client)
	sfc := &fakeSurface{
		region:  tenantRegion("Hi, is this available?"),
		sendErr: surface.ErrSendUnavailable,
	}

	res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomeReplied || !res.ManualSendRequired {
		t.Fatalf("result = %+v", res)
	}
	if rec := mem.Get("c1"); rec.PendingReplyMarker != "Hi, is this available?" {
		t.Errorf("marker = %q", rec.PendingReplyMarker)
	}

	// The next pass sees the marker and does not regenerate.
	res = o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomePending {
		t.Fatalf("second pass outcome = %s", res.Outcome)
	}
	if client.replyCalls != 1 {
		t.Errorf("reply generated %d times, want 1", client.replyCalls)
	}
}

func TestEmptyRegionIsNoConversation(t *testing.T) {
	o, _ := newHarness(t, &scriptedLLM{})
	sfc := &fakeSurface{}

	res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomeNoConversation {
		t.Fatalf("outcome = %s", res.Outcome)
	}
}

func TestCountStaysMonotone(t *testing.T) {
	client := &scriptedLLM{replyText: "ok", extractionJSON: `{}`}
	o, mem := newHarness(t, client)

	// Three tenant messages observed and replied to.
	sfc := &fakeSurface{region: tenantRegion("one", "two", "three")}
	res := o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if res.Outcome != OutcomeReplied {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if got := mem.Get("c1").LastTenantMessageCount; got != 3 {
		t.Fatalf("count = %d", got)
	}

	// A later observation rendering fewer bubbles must not shrink the
	// persisted count.
	sfc = &fakeSurface{region: tenantRegion("three")}
	_ = o.Evaluate(context.Background(), sfc, surface.Thread{ID: "c1"})
	if got := mem.Get("c1").LastTenantMessageCount; got != 3 {
		t.Errorf("count decreased to %d", got)
	}
}

func TestThreadMetadataLandsInProfile(t *testing.T) {
	client := &scriptedLLM{replyText: "ok", extractionJSON: `{}`}
	o, mem := newHarness(t, client)
	sfc := &fakeSurface{region: tenantRegion("hello")}

	thread := surface.Thread{ID: "c1", DisplayName: "Alex Chen", Listing: "2BR on Maple St"}
	if res := o.Evaluate(context.Background(), sfc, thread); res.Outcome != OutcomeReplied {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	p, _ := mem.Profile("c1")
	if p.Name != "Alex Chen" || !strings.Contains(p.Property, "Maple") {
		t.Errorf("profile metadata = %+v", p)
	}
}

func TestEmptyThreadIDRejected(t *testing.T) {
	o, _ := newHarness(t, &scriptedLLM{})
	res := o.Evaluate(context.Background(), &fakeSurface{}, surface.Thread{ID: "  "})
	if res.Outcome != OutcomeError {
		t.Fatalf("outcome = %s", res.Outcome)
	}
}
