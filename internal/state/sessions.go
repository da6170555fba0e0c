// internal/state/sessions.go
package state

import (
	"sort"
	"sync"
	"time"

	"github.com/user/nexusterm/internal/types"
)

// titleMaxRunes is the prefix length used when deriving a session title
// from the first user turn.
const titleMaxRunes = 30

// Store holds the session collection: one session per conversation,
// newest first. Sessions hold deep-copied snapshots of the chat log, so
// later log mutations never reach a stored session except through Touch.
type Store struct {
	mu       sync.RWMutex
	sessions []*types.Session
	current  types.SessionID
	onChange func()
}

func NewStore() *Store {
	return &Store{current: types.NewSessionID()}
}

// SetOnChange registers a callback invoked after every mutation that
// changes the collection. Used to schedule remote flushes.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// CurrentID returns the ID the live log maps to.
func (s *Store) CurrentID() types.SessionID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Touch folds the current log snapshot into the session collection.
// An empty log is a no-op. The first Touch for a session derives its
// title from the first user turn; the title never changes afterward.
func (s *Store) Touch(turns []*types.ChatTurn) {
	if len(turns) == 0 {
		return
	}

	s.mu.Lock()
	sess := s.findLocked(s.current)
	if sess == nil {
		sess = &types.Session{
			ID:    s.current,
			Title: DeriveTitle(turns),
		}
		s.sessions = append(s.sessions, sess)
	}
	sess.Messages = cloneTurns(turns)
	sess.UpdatedAt = time.Now()
	s.sortLocked()
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Select makes the given session current and returns a copy of its
// turns for the live log. Returns false when the ID is unknown.
func (s *Store) Select(id types.SessionID) ([]*types.ChatTurn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return nil, false
	}
	s.current = id
	return cloneTurns(sess.Messages), true
}

// Get returns a copy of the session with the given ID.
func (s *Store) Get(id types.SessionID) (*types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := s.findLocked(id)
	if sess == nil {
		return nil, false
	}
	return sess.Clone(), true
}

// StartNew points the live log at a fresh session. Nothing is stored
// until the next Touch.
func (s *Store) StartNew() types.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = types.NewSessionID()
	return s.current
}

// Delete removes a session. When the current session is deleted the
// live log should be cleared by the caller; a fresh current ID is
// assigned here. Returns true when the deleted session was current.
func (s *Store) Delete(id types.SessionID) bool {
	s.mu.Lock()
	wasCurrent := false
	for i, sess := range s.sessions {
		if sess.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	if s.current == id {
		wasCurrent = true
		s.current = types.NewSessionID()
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return wasCurrent
}

// List returns copies of all sessions, most recently updated first.
func (s *Store) List() []*types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ReplaceAll swaps in a remotely loaded session collection. The current
// ID is reset so the next Touch opens a new session; the live log is
// untouched by design.
func (s *Store) ReplaceAll(sessions []*types.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make([]*types.Session, len(sessions))
	for i, sess := range sessions {
		s.sessions[i] = sess.Clone()
	}
	s.sortLocked()
	s.current = types.NewSessionID()
}

func (s *Store) findLocked(id types.SessionID) *types.Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.sessions, func(i, j int) bool {
		return s.sessions[i].UpdatedAt.After(s.sessions[j].UpdatedAt)
	})
}

// DeriveTitle builds a session title from the first user turn: a
// 30-rune prefix, with "..." appended when the turn is longer.
func DeriveTitle(turns []*types.ChatTurn) string {
	for _, turn := range turns {
		if turn.Role != types.RoleUser {
			continue
		}
		runes := []rune(turn.Content)
		if len(runes) > titleMaxRunes {
			return string(runes[:titleMaxRunes]) + "..."
		}
		return turn.Content
	}
	return "New Chat"
}

func cloneTurns(turns []*types.ChatTurn) []*types.ChatTurn {
	out := make([]*types.ChatTurn, len(turns))
	for i, turn := range turns {
		out[i] = turn.Clone()
	}
	return out
}
