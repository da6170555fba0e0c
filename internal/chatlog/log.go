// internal/chatlog/log.go
package chatlog

import (
	"errors"
	"sync"

	"github.com/user/nexusterm/internal/types"
)

// ErrStreamingTurnExists is returned by Begin when a streaming turn is
// already open.
var ErrStreamingTurnExists = errors.New("a streaming turn is already open")

// Log is the ordered list of turns for the live conversation, together
// with the reducer that folds streamed chunks into the open turn.
//
// At most one turn is streaming at any time. Chunks for a sealed or
// unknown turn are dropped.
type Log struct {
	mu    sync.Mutex
	turns []*types.ChatTurn
}

func New() *Log {
	return &Log{}
}

// Append adds a settled turn to the end of the log.
func (l *Log) Append(turn *types.ChatTurn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, turn)
}

// Begin opens a streaming assistant turn and returns its ID.
// thinking and deepResearch set transient hints that clear on the first
// chunk.
func (l *Log) Begin(thinking, deepResearch bool) (types.TurnID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.streamingLocked() != nil {
		return "", ErrStreamingTurnExists
	}

	turn := types.NewAssistantTurn("")
	turn.IsStreaming = true
	turn.IsThinking = thinking
	turn.IsDeepResearch = deepResearch
	l.turns = append(l.turns, turn)
	return turn.ID, nil
}

// BeginImage opens an image placeholder turn and returns its ID.
func (l *Log) BeginImage() types.TurnID {
	l.mu.Lock()
	defer l.mu.Unlock()

	turn := types.NewAssistantTurn("")
	turn.Kind = types.KindImage
	turn.IsGeneratingImage = true
	l.turns = append(l.turns, turn)
	return turn.ID
}

// ApplyChunk folds a streamed chunk into the open turn: text is
// concatenated in arrival order, and a non-empty source list replaces
// the previous one wholesale. A chunk for a sealed or unknown turn is a
// no-op.
func (l *Log) ApplyChunk(id types.TurnID, text string, sources []types.Source) {
	l.mu.Lock()
	defer l.mu.Unlock()

	turn := l.findLocked(id)
	if turn == nil || !turn.IsStreaming {
		return
	}
	turn.Content += text
	if len(sources) > 0 {
		turn.Sources = dedupeSources(sources)
	}
	turn.IsThinking = false
	turn.IsDeepResearch = false
}

// Seal marks a turn as settled, keeping whatever content it has.
// Sealing an already settled turn is a no-op.
func (l *Log) Seal(id types.TurnID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	turn := l.findLocked(id)
	if turn == nil {
		return
	}
	turn.IsStreaming = false
	turn.IsGeneratingImage = false
	turn.IsThinking = false
	turn.IsDeepResearch = false
}

// FinishImage settles an image placeholder with its final markdown body
// and the path of the stored artifact.
func (l *Log) FinishImage(id types.TurnID, content, artifactPath string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	turn := l.findLocked(id)
	if turn == nil || !turn.IsGeneratingImage {
		return
	}
	turn.Content = content
	turn.ArtifactPath = artifactPath
	turn.IsGeneratingImage = false
}

// DropIfEmpty removes the turn when it produced no visible content,
// so a failed request leaves no empty bubble behind. Returns true if
// the turn was removed.
func (l *Log) DropIfEmpty(id types.TurnID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, turn := range l.turns {
		if turn.ID == id && turn.Content == "" && len(turn.Lines) == 0 {
			l.turns = append(l.turns[:i], l.turns[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceWithNotice swaps a still-empty placeholder for a system notice.
// If the placeholder already has content it is sealed instead and the
// notice is appended after it.
func (l *Log) ReplaceWithNotice(id types.TurnID, lines ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	notice := types.NewNoticeTurn(lines...)
	for i, turn := range l.turns {
		if turn.ID != id {
			continue
		}
		if turn.Content == "" {
			l.turns[i] = notice
			return
		}
		turn.IsStreaming = false
		turn.IsGeneratingImage = false
		l.turns = append(l.turns, notice)
		return
	}
	l.turns = append(l.turns, notice)
}

// StreamingID returns the ID of the open streaming turn, or "".
func (l *Log) StreamingID() types.TurnID {
	l.mu.Lock()
	defer l.mu.Unlock()
	if turn := l.streamingLocked(); turn != nil {
		return turn.ID
	}
	return ""
}

// Turns returns a deep-copied snapshot of the log.
func (l *Log) Turns() []*types.ChatTurn {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*types.ChatTurn, len(l.turns))
	for i, turn := range l.turns {
		out[i] = turn.Clone()
	}
	return out
}

// Reset replaces the log contents with the given turns.
func (l *Log) Reset(turns []*types.ChatTurn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = make([]*types.ChatTurn, len(turns))
	for i, turn := range turns {
		l.turns[i] = turn.Clone()
	}
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = nil
}

// Len returns the number of turns.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// UserTurnCount returns the number of user turns in the log.
func (l *Log) UserTurnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, turn := range l.turns {
		if turn.Role == types.RoleUser {
			n++
		}
	}
	return n
}

func (l *Log) findLocked(id types.TurnID) *types.ChatTurn {
	for _, turn := range l.turns {
		if turn.ID == id {
			return turn
		}
	}
	return nil
}

func (l *Log) streamingLocked() *types.ChatTurn {
	for _, turn := range l.turns {
		if turn.IsStreaming {
			return turn
		}
	}
	return nil
}

// dedupeSources keeps the first occurrence of each URI, preserving order.
func dedupeSources(sources []types.Source) []types.Source {
	seen := make(map[string]bool, len(sources))
	out := make([]types.Source, 0, len(sources))
	for _, s := range sources {
		if s.URI == "" || seen[s.URI] {
			continue
		}
		seen[s.URI] = true
		out = append(out, s)
	}
	return out
}
