// Package convmem is the cross-session conversation memory: per
// conversation counters and flags plus applicant profiles, loaded at
// process start and kept consistent with a key-value store. Writes go
// one key at a time; the store only promises last-write-wins per key,
// which suffices because each conversation is only ever written by
// the evaluation step for that same conversation.
package convmem

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lindenrealty/rentscreen/profile"
	"github.com/lindenrealty/rentscreen/store"
)

const (
	recordKeyPrefix  = "conv/"
	profileKeyPrefix = "profile/"
)

var ErrEmptyConversationID = fmt.Errorf("convmem: conversation id is required")

type Memory struct {
	kv store.KV

	mu       sync.Mutex
	records  map[string]Record
	profiles map[string]profile.ApplicantProfile
}

func New(kv store.KV) *Memory {
	return &Memory{
		kv:       kv,
		records:  map[string]Record{},
		profiles: map[string]profile.ApplicantProfile{},
	}
}

// Load populates the in-memory maps from the backing store. Safe to
// call again; the store state wins over anything cached.
func (m *Memory) Load(ctx context.Context) error {
	recordKeys, err := m.kv.List(ctx, recordKeyPrefix)
	if err != nil {
		return fmt.Errorf("convmem load records: %w", err)
	}
	profileKeys, err := m.kv.List(ctx, profileKeyPrefix)
	if err != nil {
		return fmt.Errorf("convmem load profiles: %w", err)
	}

	values, err := m.kv.Get(ctx, append(recordKeys, profileKeys...))
	if err != nil {
		return fmt.Errorf("convmem load values: %w", err)
	}

	records := make(map[string]Record, len(recordKeys))
	profiles := make(map[string]profile.ApplicantProfile, len(profileKeys))
	for key, raw := range values {
		switch {
		case strings.HasPrefix(key, recordKeyPrefix):
			var rec Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("convmem decode %s: %w", key, err)
			}
			rec.ID = strings.TrimPrefix(key, recordKeyPrefix)
			records[rec.ID] = rec
		case strings.HasPrefix(key, profileKeyPrefix):
			var p profile.ApplicantProfile
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("convmem decode %s: %w", key, err)
			}
			p.ConversationID = strings.TrimPrefix(key, profileKeyPrefix)
			profiles[p.ConversationID] = p
		}
	}

	m.mu.Lock()
	m.records = records
	m.profiles = profiles
	m.mu.Unlock()
	return nil
}

// Get returns the record for id, implicitly zero-valued on first
// observation of a conversation.
func (m *Memory) Get(id string) Record {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		return rec
	}
	return Record{ID: id}
}

// Commit persists the record for rec.ID, enforcing count monotonicity
// and one-way screening completion against the stored state.
func (m *Memory) Commit(ctx context.Context, rec Record) error {
	rec.ID = strings.TrimSpace(rec.ID)
	if rec.ID == "" {
		return ErrEmptyConversationID
	}

	m.mu.Lock()
	merged := merge(m.records[rec.ID], rec)
	m.mu.Unlock()

	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("convmem encode %s: %w", merged.ID, err)
	}
	if err := m.kv.Set(ctx, map[string][]byte{recordKeyPrefix + merged.ID: raw}); err != nil {
		return fmt.Errorf("convmem commit %s: %w", merged.ID, err)
	}

	m.mu.Lock()
	m.records[merged.ID] = merged
	m.mu.Unlock()
	return nil
}

// Profile returns the applicant profile for the conversation, with ok
// reporting whether one has been stored.
func (m *Memory) Profile(id string) (profile.ApplicantProfile, bool) {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	return p, ok
}

// PutProfile persists the applicant profile for its conversation.
func (m *Memory) PutProfile(ctx context.Context, p profile.ApplicantProfile) error {
	p.ConversationID = strings.TrimSpace(p.ConversationID)
	if p.ConversationID == "" {
		return ErrEmptyConversationID
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("convmem encode profile %s: %w", p.ConversationID, err)
	}
	if err := m.kv.Set(ctx, map[string][]byte{profileKeyPrefix + p.ConversationID: raw}); err != nil {
		return fmt.Errorf("convmem put profile %s: %w", p.ConversationID, err)
	}

	m.mu.Lock()
	m.profiles[p.ConversationID] = p
	m.mu.Unlock()
	return nil
}

// Records returns a stable snapshot of all conversation records for
// reporting.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Profiles returns a stable snapshot of all applicant profiles.
func (m *Memory) Profiles() []profile.ApplicantProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]profile.ApplicantProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConversationID < out[j].ConversationID })
	return out
}

// ResetAll deletes every record and profile. This is the bulk-reset
// operation outside the evaluation core and the only path that
// un-sets screening completion.
func (m *Memory) ResetAll(ctx context.Context) error {
	recordKeys, err := m.kv.List(ctx, recordKeyPrefix)
	if err != nil {
		return fmt.Errorf("convmem reset: %w", err)
	}
	profileKeys, err := m.kv.List(ctx, profileKeyPrefix)
	if err != nil {
		return fmt.Errorf("convmem reset: %w", err)
	}
	if err := m.kv.Delete(ctx, append(recordKeys, profileKeys...)); err != nil {
		return fmt.Errorf("convmem reset: %w", err)
	}

	m.mu.Lock()
	m.records = map[string]Record{}
	m.profiles = map[string]profile.ApplicantProfile{}
	m.mu.Unlock()
	return nil
}
