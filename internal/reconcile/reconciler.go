// internal/reconcile/reconciler.go
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/nexusterm/internal/remote"
	"github.com/user/nexusterm/internal/state"
	"github.com/user/nexusterm/internal/types"
)

const (
	// FileName is the single remote document all sessions live in.
	FileName = "nexus_chat_history.json"
	// DefaultDebounce is the quiet period before a flush.
	DefaultDebounce = 2 * time.Second
)

// Reconciler mirrors the session collection into one remote JSON file.
// Writes are debounced full replacements; there is no merge and no
// retry; the next mutation schedules the next attempt. A rejected
// credential tears the mirror down via the onAuthExpired callback.
type Reconciler struct {
	store         *state.Store
	remote        types.RemoteFileStore
	onAuthExpired func()
	debouncer     *Debouncer

	mu     sync.Mutex
	fileID string
}

func New(store *state.Store, rfs types.RemoteFileStore, onAuthExpired func(), debounce time.Duration) *Reconciler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Reconciler{
		store:         store,
		remote:        rfs,
		onAuthExpired: onAuthExpired,
		debouncer:     NewDebouncer(debounce),
	}
}

// ScheduleFlush arms the debounce timer. Repeated calls within the
// window coalesce into a single flush of the final state.
func (r *Reconciler) ScheduleFlush() {
	r.debouncer.Call(func() {
		if err := r.FlushNow(context.Background()); err != nil {
			slog.Warn("session flush failed", "error", err)
		}
	})
}

// FlushNow writes the current session collection to the remote file
// immediately, creating the file on first flush. Flushes serialize;
// the remote file ID discovered once is reused afterwards.
func (r *Reconciler) FlushNow(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload, err := json.Marshal(r.store.List())
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}

	if r.fileID == "" {
		id, err := r.remote.Find(ctx, FileName)
		if err != nil {
			return r.classify(err)
		}
		if id == "" {
			created, err := r.remote.Create(ctx, FileName, "application/json", payload)
			if err != nil {
				return r.classify(err)
			}
			r.fileID = created
			return nil
		}
		r.fileID = id
	}

	if err := r.remote.Update(ctx, r.fileID, payload); err != nil {
		return r.classify(err)
	}
	return nil
}

// Load pulls the remote document and replaces the local session
// collection. The live chat log is deliberately left alone: after a
// load the UI shows the welcome state with the list populated. A
// missing remote file is not an error.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.remote.Find(ctx, FileName)
	if err != nil {
		return r.classify(err)
	}
	if id == "" {
		return nil
	}
	r.fileID = id

	data, err := r.remote.Download(ctx, id)
	if err != nil {
		return r.classify(err)
	}

	sessions, err := DecodeSessions(data)
	if err != nil {
		return fmt.Errorf("decode remote sessions: %w", err)
	}
	r.store.ReplaceAll(sessions)
	return nil
}

// Stop drops any pending flush.
func (r *Reconciler) Stop() {
	r.debouncer.Cancel()
}

func (r *Reconciler) classify(err error) error {
	if errors.Is(err, remote.ErrAuthExpired) && r.onAuthExpired != nil {
		r.onAuthExpired()
	}
	return err
}

// DecodeSessions parses the remote payload. The current format is a
// session array; the legacy format was a bare message array, which is
// migrated into a single synthetic session.
func DecodeSessions(data []byte) ([]*types.Session, error) {
	var probe []struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	legacy := len(probe) > 0
	for _, p := range probe {
		if p.Messages != nil {
			legacy = false
			break
		}
	}

	if legacy {
		var turns []*types.ChatTurn
		if err := json.Unmarshal(data, &turns); err != nil {
			return nil, fmt.Errorf("unmarshal legacy payload: %w", err)
		}
		return []*types.Session{{
			ID:        types.NewSessionID(),
			Title:     "Legacy Chat",
			Messages:  turns,
			UpdatedAt: time.Now(),
		}}, nil
	}

	var sessions []*types.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal sessions: %w", err)
	}
	return sessions, nil
}
