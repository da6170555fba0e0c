// internal/types/models.go
package types

import (
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// TurnKind tags the content variant of a ChatTurn.
type TurnKind string

const (
	// KindText is a markdown body in Content.
	KindText TurnKind = "text"
	// KindImage is a markdown body whose image reference points at a
	// stored artifact (ArtifactPath).
	KindImage TurnKind = "image"
	// KindNotice is a system banner rendered as ordered Lines.
	KindNotice TurnKind = "notice"
)

// Attachment is a file the user included with a turn. Data is base64.
type Attachment struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
	Name     string `json:"name,omitempty"`
}

// Source is a grounding citation attached to an assistant turn.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// ChatTurn is one entry in the chat log.
type ChatTurn struct {
	ID           TurnID       `json:"id"`
	Role         Role         `json:"role"`
	Kind         TurnKind     `json:"kind"`
	Content      string       `json:"content,omitempty"`
	Lines        []string     `json:"lines,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	Sources      []Source     `json:"sources,omitempty"`
	ArtifactPath string       `json:"artifact_path,omitempty"`

	IsStreaming       bool `json:"is_streaming,omitempty"`
	IsGeneratingImage bool `json:"is_generating_image,omitempty"`
	IsThinking        bool `json:"is_thinking,omitempty"`
	IsDeepResearch    bool `json:"is_deep_research,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewUserTurn creates a settled user turn.
func NewUserTurn(content string, attachments []Attachment) *ChatTurn {
	return &ChatTurn{
		ID:          NewTurnID(),
		Role:        RoleUser,
		Kind:        KindText,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   time.Now(),
	}
}

// NewAssistantTurn creates a settled assistant text turn.
func NewAssistantTurn(content string) *ChatTurn {
	return &ChatTurn{
		ID:        NewTurnID(),
		Role:      RoleAssistant,
		Kind:      KindText,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewNoticeTurn creates a system notice turn.
func NewNoticeTurn(lines ...string) *ChatTurn {
	return &ChatTurn{
		ID:        NewTurnID(),
		Role:      RoleSystem,
		Kind:      KindNotice,
		Lines:     lines,
		CreatedAt: time.Now(),
	}
}

// Settled reports whether the turn is no longer mutating.
func (t *ChatTurn) Settled() bool {
	return !t.IsStreaming && !t.IsGeneratingImage
}

// Clone returns a deep copy of the turn.
func (t *ChatTurn) Clone() *ChatTurn {
	c := *t
	if t.Lines != nil {
		c.Lines = append([]string(nil), t.Lines...)
	}
	if t.Attachments != nil {
		c.Attachments = append([]Attachment(nil), t.Attachments...)
	}
	if t.Sources != nil {
		c.Sources = append([]Source(nil), t.Sources...)
	}
	return &c
}

// Session is a named snapshot of a chat log.
type Session struct {
	ID        SessionID   `json:"id"`
	Title     string      `json:"title"`
	Messages  []*ChatTurn `json:"messages"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = make([]*ChatTurn, len(s.Messages))
	for i, t := range s.Messages {
		c.Messages[i] = t.Clone()
	}
	return &c
}
