package convmem

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lindenrealty/rentscreen/profile"
	"github.com/lindenrealty/rentscreen/store/filekv"
)

func newMemory(t *testing.T) *Memory {
	t.Helper()
	return New(filekv.New(filepath.Join(t.TempDir(), "kv")))
}

func TestGetImplicitZeroRecord(t *testing.T) {
	m := newMemory(t)
	rec := m.Get("conv-1")
	if rec.ID != "conv-1" || rec.LastTenantMessageCount != 0 || rec.PendingReplyMarker != "" || rec.ScreeningComplete {
		t.Fatalf("expected zero-valued record, got %+v", rec)
	}
}

func TestCommitAndReload(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "kv")
	m := New(filekv.New(root))

	if err := m.Commit(ctx, Record{ID: "conv-1", LastTenantMessageCount: 3, PendingReplyMarker: "hi"}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := m.PutProfile(ctx, profile.ApplicantProfile{ConversationID: "conv-1", Phone: "555-123-4567"}); err != nil {
		t.Fatalf("PutProfile() error = %v", err)
	}

	// Fresh process over the same store.
	m2 := New(filekv.New(root))
	if err := m2.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	rec := m2.Get("conv-1")
	if rec.LastTenantMessageCount != 3 || rec.PendingReplyMarker != "hi" {
		t.Errorf("reloaded record = %+v", rec)
	}
	p, ok := m2.Profile("conv-1")
	if !ok || p.Phone != "555-123-4567" {
		t.Errorf("reloaded profile = %+v, ok=%v", p, ok)
	}
}

func TestCountNeverDecreases(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	if err := m.Commit(ctx, Record{ID: "conv-1", LastTenantMessageCount: 5}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := m.Commit(ctx, Record{ID: "conv-1", LastTenantMessageCount: 2}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got := m.Get("conv-1").LastTenantMessageCount; got != 5 {
		t.Errorf("count decreased to %d", got)
	}
	if err := m.Commit(ctx, Record{ID: "conv-1", LastTenantMessageCount: 7}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got := m.Get("conv-1").LastTenantMessageCount; got != 7 {
		t.Errorf("count = %d, want 7", got)
	}
}

func TestScreeningCompleteIsOneWay(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	if err := m.Commit(ctx, Record{ID: "conv-1", ScreeningComplete: true}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := m.Commit(ctx, Record{ID: "conv-1", ScreeningComplete: false}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if !m.Get("conv-1").ScreeningComplete {
		t.Error("screening completion must survive later commits")
	}
}

func TestCommitRequiresID(t *testing.T) {
	m := newMemory(t)
	if err := m.Commit(context.Background(), Record{ID: "  "}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	m := newMemory(t)

	_ = m.Commit(ctx, Record{ID: "conv-1", LastTenantMessageCount: 1, ScreeningComplete: true})
	_ = m.PutProfile(ctx, profile.ApplicantProfile{ConversationID: "conv-1"})

	if err := m.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}
	if len(m.Records()) != 0 || len(m.Profiles()) != 0 {
		t.Error("reset left state behind")
	}
	if m.Get("conv-1").ScreeningComplete {
		t.Error("reset is the one path allowed to clear screening completion")
	}
}
