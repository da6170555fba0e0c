package llm

import "context"

// Provider defines the interface for interacting with generation
// backends. Implementations handle protocol-specific details such as
// request formatting, authentication, and error classification.
type Provider interface {
	// Stream starts a chat generation and returns a channel of
	// incremental deltas. The channel closes when generation ends; a
	// delta carrying a non-nil Err is terminal.
	Stream(ctx context.Context, req *Request) (<-chan Delta, error)

	// GenerateImage produces (or, when the request carries inline
	// image parts, edits) an image.
	GenerateImage(ctx context.Context, req *Request) (*Image, error)

	// Speak synthesizes speech for the given text.
	Speak(ctx context.Context, text string) (*Audio, error)

	// Transcribe converts an audio recording into text.
	Transcribe(ctx context.Context, mimeType string, audio []byte) (string, error)
}
