package llm

import "errors"

var (
	// ErrNotConfigured means no API key is set.
	ErrNotConfigured = errors.New("llm provider not configured")
	// ErrQuotaExhausted means the backend rejected the request for
	// rate or quota reasons. Callers surface this one loudly; other
	// generation errors stay in the logs.
	ErrQuotaExhausted = errors.New("llm quota exhausted")
)

// Part is one piece of a message: text, or inline binary data.
type Part struct {
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// Message represents a chat message in a conversation.
// Role is "user", "model" or "system".
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// TextMessage builds a single-part text message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Parts: []Part{{Text: text}}}
}

// Request describes one generation call.
type Request struct {
	Model          string
	System         string
	Messages       []Message
	UseSearch      bool
	ThinkingBudget int32
}

// Source is a grounding citation reported alongside generated text.
type Source struct {
	URI   string
	Title string
}

// Delta represents an incremental update during streaming. A non-nil
// Err terminates the stream; no further deltas follow it.
type Delta struct {
	Text    string
	Sources []Source
	Err     error
}

// Image is a generated image.
type Image struct {
	MimeType string
	Data     []byte
}

// Config holds common configuration for providers.
type Config struct {
	APIKey      string
	Model       string
	FlashModel  string
	ImageModel  string
	SpeechModel string
	Voice       string
}
