// internal/reconcile/reconciler_test.go
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/nexusterm/internal/remote"
	"github.com/user/nexusterm/internal/state"
	"github.com/user/nexusterm/internal/types"
)

// fakeRemote records calls and serves canned content.
type fakeRemote struct {
	mu       sync.Mutex
	files    map[string]string // name -> id
	content  map[string][]byte // id -> content
	creates  int
	updates  int
	finds    int
	failWith error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		files:   make(map[string]string),
		content: make(map[string][]byte),
	}
}

func (f *fakeRemote) Find(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.failWith != nil {
		return "", f.failWith
	}
	return f.files[name], nil
}

func (f *fakeRemote) Download(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.content[fileID], nil
}

func (f *fakeRemote) Create(_ context.Context, name, _ string, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failWith != nil {
		return "", f.failWith
	}
	id := "file-1"
	f.files[name] = id
	f.content[id] = content
	return id, nil
}

func (f *fakeRemote) Update(_ context.Context, fileID string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.failWith != nil {
		return f.failWith
	}
	f.content[fileID] = content
	return nil
}

func (f *fakeRemote) stats() (finds, creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finds, f.creates, f.updates
}

func touch(store *state.Store, prompt string) {
	store.Touch([]*types.ChatTurn{types.NewUserTurn(prompt, nil)})
}

func TestFlushNow_CreatesOnFirstFlushThenUpdates(t *testing.T) {
	store := state.NewStore()
	rfs := newFakeRemote()
	r := New(store, rfs, nil, time.Hour)
	ctx := context.Background()

	touch(store, "hello")
	if err := r.FlushNow(ctx); err != nil {
		t.Fatal(err)
	}
	finds, creates, updates := rfs.stats()
	if finds != 1 || creates != 1 || updates != 0 {
		t.Errorf("first flush: finds=%d creates=%d updates=%d", finds, creates, updates)
	}

	touch(store, "again")
	if err := r.FlushNow(ctx); err != nil {
		t.Fatal(err)
	}
	finds, creates, updates = rfs.stats()
	if finds != 1 || creates != 1 || updates != 1 {
		t.Errorf("second flush should reuse file ID: finds=%d creates=%d updates=%d", finds, creates, updates)
	}
}

func TestFlushNow_UpdatesExistingRemoteFile(t *testing.T) {
	store := state.NewStore()
	rfs := newFakeRemote()
	rfs.files[FileName] = "existing"
	r := New(store, rfs, nil, time.Hour)

	touch(store, "hello")
	if err := r.FlushNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, creates, updates := rfs.stats()
	if creates != 0 || updates != 1 {
		t.Errorf("expected update of existing file: creates=%d updates=%d", creates, updates)
	}

	var sessions []*types.Session
	if err := json.Unmarshal(rfs.content["existing"], &sessions); err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Title != "hello" {
		t.Errorf("wrong payload: %+v", sessions)
	}
}

func TestScheduleFlush_CoalescesBursts(t *testing.T) {
	store := state.NewStore()
	rfs := newFakeRemote()
	r := New(store, rfs, nil, 30*time.Millisecond)
	defer r.Stop()
	store.SetOnChange(r.ScheduleFlush)

	touch(store, "one")
	touch(store, "one two")
	touch(store, "one two three")

	time.Sleep(150 * time.Millisecond)

	_, creates, updates := rfs.stats()
	if creates+updates != 1 {
		t.Fatalf("expected exactly one write, got creates=%d updates=%d", creates, updates)
	}

	var sessions []*types.Session
	if err := json.Unmarshal(rfs.content["file-1"], &sessions); err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	last := sessions[0].Messages[len(sessions[0].Messages)-1]
	if last.Content != "one two three" {
		t.Errorf("flush should carry the final state, got %q", last.Content)
	}
}

func TestLoad_PopulatesStoreWithoutTouchingCurrent(t *testing.T) {
	store := state.NewStore()
	rfs := newFakeRemote()

	remoteSessions := []*types.Session{
		{ID: types.NewSessionID(), Title: "from drive", UpdatedAt: time.Now()},
	}
	payload, _ := json.Marshal(remoteSessions)
	rfs.files[FileName] = "file-9"
	rfs.content["file-9"] = payload

	r := New(store, rfs, nil, time.Hour)
	if err := r.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	sessions := store.List()
	if len(sessions) != 1 || sessions[0].Title != "from drive" {
		t.Fatalf("store not populated: %+v", sessions)
	}
	if store.CurrentID() == remoteSessions[0].ID {
		t.Error("load must not select a loaded session as current")
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	store := state.NewStore()
	r := New(store, newFakeRemote(), nil, time.Hour)
	if err := r.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestLegacyPayloadMigration(t *testing.T) {
	turns := []*types.ChatTurn{
		types.NewUserTurn("old question", nil),
		types.NewAssistantTurn("old answer"),
	}
	payload, _ := json.Marshal(turns)

	sessions, err := DecodeSessions(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected one synthetic session, got %d", len(sessions))
	}
	if sessions[0].Title != "Legacy Chat" {
		t.Errorf("wrong title: %q", sessions[0].Title)
	}
	if len(sessions[0].Messages) != 2 {
		t.Errorf("messages lost: %d", len(sessions[0].Messages))
	}
	if sessions[0].UpdatedAt.IsZero() {
		t.Error("synthetic session needs a timestamp")
	}
}

func TestDecodeSessions_ModernPayload(t *testing.T) {
	payload := []byte(`[{"id":"s1","title":"t","messages":[],"updated_at":"2025-01-01T00:00:00Z"}]`)
	sessions, err := DecodeSessions(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Title != "t" {
		t.Errorf("modern payload mishandled: %+v", sessions)
	}
}

func TestDecodeSessions_Garbage(t *testing.T) {
	if _, err := DecodeSessions([]byte(`{"not":"an array"}`)); err == nil {
		t.Error("expected error for non-array payload")
	}
}

func TestAuthExpiry_TriggersSignOutCallback(t *testing.T) {
	store := state.NewStore()
	rfs := newFakeRemote()
	rfs.failWith = remote.ErrAuthExpired

	signedOut := false
	r := New(store, rfs, func() { signedOut = true }, time.Hour)

	touch(store, "hi")
	err := r.FlushNow(context.Background())
	if !errors.Is(err, remote.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if !signedOut {
		t.Error("auth expiry must invoke the sign-out callback")
	}
}

func TestFlushFailure_DoesNotPoisonNextFlush(t *testing.T) {
	store := state.NewStore()
	rfs := newFakeRemote()
	rfs.failWith = errors.New("network down")
	r := New(store, rfs, nil, time.Hour)
	ctx := context.Background()

	touch(store, "hi")
	if err := r.FlushNow(ctx); err == nil {
		t.Fatal("expected failure")
	}

	rfs.mu.Lock()
	rfs.failWith = nil
	rfs.mu.Unlock()

	if err := r.FlushNow(ctx); err != nil {
		t.Fatalf("flush after recovery failed: %v", err)
	}
	if !strings.Contains(string(rfs.content["file-1"]), "hi") {
		t.Error("recovered flush missing payload")
	}
}
