// pkg/llm/gemini/client.go
package gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/user/nexusterm/pkg/llm"
)

// transcribePrompt asks for a bare transcript, no commentary.
const transcribePrompt = "Transcribe this audio recording. Respond with only the transcript text."

// Client implements the llm.Provider interface over the Gemini API.
type Client struct {
	config *llm.Config

	mu     sync.Mutex
	client *genai.Client
}

// New creates a Gemini client with the given configuration. The
// underlying SDK client is built lazily on first use.
func New(config *llm.Config) *Client {
	return &Client{config: config}
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

func (c *Client) ensure(ctx context.Context) (*genai.Client, error) {
	if !c.IsConfigured() {
		return nil, llm.ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.client = client
	return client, nil
}

// Stream starts a streaming generation and delivers deltas on the
// returned channel. The channel closes when the stream ends; a delta
// with a non-nil Err is terminal.
func (c *Client) Stream(ctx context.Context, req *llm.Request) (<-chan llm.Delta, error) {
	client, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	contents := toContents(req.Messages)
	config := c.generateConfig(req)

	ch := make(chan llm.Delta, 16)
	go func() {
		defer close(ch)
		for result, err := range client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				ch <- llm.Delta{Err: classify(err)}
				return
			}
			delta := llm.Delta{
				Text:    chunkText(result),
				Sources: chunkSources(result),
			}
			if delta.Text == "" && len(delta.Sources) == 0 {
				continue
			}
			select {
			case ch <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// GenerateImage runs a single image generation (or edit, when the
// request carries inline image parts) and returns the first image in
// the response.
func (c *Client) GenerateImage(ctx context.Context, req *llm.Request) (*llm.Image, error) {
	client, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.config.ImageModel
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := client.Models.GenerateContent(ctx, model, toContents(req.Messages), config)
	if err != nil {
		return nil, classify(err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &llm.Image{
					MimeType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				}, nil
			}
		}
	}
	return nil, errors.New("no image in response")
}

// Speak synthesizes the given text as 24kHz mono s16le PCM.
func (c *Client) Speak(ctx context.Context, text string) (*llm.Audio, error) {
	client, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: c.config.Voice,
				},
			},
		},
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: text}},
	}}

	resp, err := client.Models.GenerateContent(ctx, c.config.SpeechModel, contents, config)
	if err != nil {
		return nil, classify(err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &llm.Audio{
					Data:       part.InlineData.Data,
					SampleRate: 24000,
					Channels:   1,
				}, nil
			}
		}
	}
	return nil, errors.New("no audio in response")
}

// Transcribe converts an audio recording into text.
func (c *Client) Transcribe(ctx context.Context, mimeType string, audio []byte) (string, error) {
	client, err := c.ensure(ctx)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
			{Text: transcribePrompt},
		},
	}}

	resp, err := client.Models.GenerateContent(ctx, c.config.FlashModel, contents, nil)
	if err != nil {
		return "", classify(err)
	}
	return resp.Text(), nil
}

func (c *Client) generateConfig(req *llm.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.UseSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if req.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(req.ThinkingBudget),
		}
	}
	return config
}

func toContents(messages []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		parts := make([]*genai.Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			if len(p.Data) > 0 {
				parts = append(parts, &genai.Part{
					InlineData: &genai.Blob{MIMEType: p.MimeType, Data: p.Data},
				})
				continue
			}
			if p.Text != "" {
				parts = append(parts, &genai.Part{Text: p.Text})
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: msg.Role, Parts: parts})
	}
	return contents
}

func chunkText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	text := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text
}

func chunkSources(resp *genai.GenerateContentResponse) []llm.Source {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var sources []llm.Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, llm.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return sources
}

// classify maps backend errors onto the sentinel errors callers branch
// on. Quota rejections (HTTP 429 or RESOURCE_EXHAUSTED) become
// ErrQuotaExhausted; everything else passes through.
func classify(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var p *genai.APIError
		if !errors.As(err, &p) {
			return err
		}
		apiErr = *p
	}
	if apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED" {
		return fmt.Errorf("%w: %s", llm.ErrQuotaExhausted, apiErr.Message)
	}
	return err
}
