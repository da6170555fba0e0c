// internal/runtime/runtime.go
package runtime

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/user/nexusterm/internal/chatlog"
	ctxengine "github.com/user/nexusterm/internal/context"
	"github.com/user/nexusterm/internal/persona"
	"github.com/user/nexusterm/internal/state"
	"github.com/user/nexusterm/internal/types"
	"github.com/user/nexusterm/pkg/llm"
)

// ErrBusy is returned by Send while a generation is in flight.
var ErrBusy = errors.New("a generation is already in flight")

// Event signals the UI that shared state changed.
type Event int

const (
	// EventLogChanged means the chat log mutated and should re-render.
	EventLogChanged Event = iota
	// EventDone means the in-flight generation finished.
	EventDone
)

// Options carries the per-send toggles.
type Options struct {
	Model           string
	PersonaKey      string
	UseSearch       bool
	UseThinking     bool
	UseDeepResearch bool
	Attachments     []types.Attachment
}

const (
	deepResearchModel  = "gemini-2.5-flash"
	deepResearchBudget = 8192

	imageGenFooter  = "*Generated by Nexus Imageneer*"
	imageEditFooter = "*Edited by Nexus Imageneer*"

	refusalDelay = 800 * time.Millisecond
)

var quotaNoticeLines = []string{
	"**⚠️ System Overload (Quota Exceeded)**",
	"",
	"You have reached the free tier generation limit for this model. Please try again in a few minutes or switch models.",
}

// Runtime orchestrates one generation at a time: it routes the prompt
// (chat, image, refusal), feeds provider deltas into the chat log, and
// applies the error taxonomy. State changes are announced on the
// events channel.
type Runtime struct {
	provider   llm.Provider
	log        *chatlog.Log
	sessions   *state.Store
	artifacts  *state.ArtifactStore
	engine     *ctxengine.Engine
	classifier persona.Classifier

	imageMinWait time.Duration
	events       chan Event

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(provider llm.Provider, log *chatlog.Log, sessions *state.Store, artifacts *state.ArtifactStore, engine *ctxengine.Engine, classifier persona.Classifier) *Runtime {
	return &Runtime{
		provider:     provider,
		log:          log,
		sessions:     sessions,
		artifacts:    artifacts,
		engine:       engine,
		classifier:   classifier,
		imageMinWait: 5 * time.Second,
		events:       make(chan Event, 256),
	}
}

// Events is the channel the UI listens on for re-render signals.
func (r *Runtime) Events() <-chan Event {
	return r.events
}

// Busy reports whether a generation is in flight.
func (r *Runtime) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Cancel aborts the in-flight generation, if any. The open turn is
// sealed with whatever content it has; cancelling twice is a no-op.
func (r *Runtime) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Send appends the user turn and starts processing it in the
// background. It returns ErrBusy while a generation is in flight; the
// empty prompt with no attachments is rejected.
func (r *Runtime) Send(prompt string, opts Options) error {
	if strings.TrimSpace(prompt) == "" && len(opts.Attachments) == 0 {
		return errors.New("empty prompt")
	}

	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return ErrBusy
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	r.log.Append(types.NewUserTurn(prompt, opts.Attachments))
	r.touch()

	go func() {
		defer func() {
			cancel()
			r.mu.Lock()
			r.cancel = nil
			r.mu.Unlock()
			r.emit(EventDone)
		}()
		r.process(ctx, prompt, opts)
	}()
	return nil
}

func (r *Runtime) process(ctx context.Context, prompt string, opts Options) {
	intent := r.classifier.Classify(opts.PersonaKey, prompt, len(opts.Attachments) > 0)

	switch intent {
	case persona.IntentRefuse:
		select {
		case <-time.After(refusalDelay):
		case <-ctx.Done():
			return
		}
		r.log.Append(types.NewAssistantTurn(persona.RefusalMessage))
		r.touch()

	case persona.IntentGenerateImage, persona.IntentEditImage:
		r.generateImage(ctx, prompt, opts, intent == persona.IntentEditImage)

	default:
		r.streamChat(ctx, opts)
	}
}

// generateImage runs the image path: a placeholder turn is shown for
// at least imageMinWait, then settled with a markdown reference to the
// stored artifact.
func (r *Runtime) generateImage(ctx context.Context, prompt string, opts Options, edit bool) {
	placeholder := r.log.BeginImage()
	r.touch()

	minWait := time.After(r.imageMinWait)

	parts := attachmentParts(opts.Attachments)
	parts = append(parts, llm.Part{Text: prompt})
	req := &llm.Request{Messages: []llm.Message{{Role: "user", Parts: parts}}}

	img, err := r.provider.GenerateImage(ctx, req)

	select {
	case <-minWait:
	case <-ctx.Done():
	}

	if err != nil {
		r.settleFailure(placeholder, err)
		return
	}

	path, err := r.artifacts.Put(extForMime(img.MimeType), img.Data)
	if err != nil {
		r.settleFailure(placeholder, err)
		return
	}

	footer := imageGenFooter
	if edit {
		footer = imageEditFooter
	}
	r.log.FinishImage(placeholder, fmt.Sprintf("![Image](%s)\n\n%s", path, footer), path)
	r.touch()
}

// streamChat runs the chat path, folding deltas into the open turn.
func (r *Runtime) streamChat(ctx context.Context, opts Options) {
	p := persona.Get(opts.PersonaKey)

	req := &llm.Request{
		Model:     opts.Model,
		System:    p.Instruction,
		UseSearch: opts.UseSearch,
	}
	if opts.UseDeepResearch {
		req.Model = deepResearchModel
		req.ThinkingBudget = deepResearchBudget
		req.UseSearch = true
		req.System += persona.DeepResearchSuffix
	}
	req.Messages = r.engine.Trim(req.System, historyMessages(r.log.Turns()))

	deltas, err := r.provider.Stream(ctx, req)
	if err != nil {
		r.handleGenerationError("", err)
		return
	}

	id, err := r.log.Begin(opts.UseThinking, opts.UseDeepResearch)
	if err != nil {
		slog.Warn("cannot open streaming turn", "error", err)
		return
	}
	r.touch()

	for delta := range deltas {
		if delta.Err != nil {
			r.handleGenerationError(id, delta.Err)
			return
		}
		sources := make([]types.Source, 0, len(delta.Sources))
		for _, s := range delta.Sources {
			sources = append(sources, types.Source{URI: s.URI, Title: s.Title})
		}
		r.log.ApplyChunk(id, delta.Text, sources)
		r.touch()
	}

	r.log.Seal(id)
	r.touch()
}

// handleGenerationError applies the error taxonomy: quota exhaustion
// gets exactly one loud notice, cancellation seals cleanly, and
// everything else is logged without touching the transcript beyond
// removing an empty placeholder.
func (r *Runtime) handleGenerationError(id types.TurnID, err error) {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		r.log.Append(types.NewNoticeTurn("CRITICAL ERROR: API Key missing."))
		r.touch()

	case errors.Is(err, llm.ErrQuotaExhausted):
		if id != "" {
			r.log.ReplaceWithNotice(id, quotaNoticeLines...)
		} else {
			r.log.Append(types.NewNoticeTurn(quotaNoticeLines...))
		}
		r.touch()

	case errors.Is(err, context.Canceled):
		if id != "" {
			if !r.log.DropIfEmpty(id) {
				r.log.Seal(id)
			}
			r.touch()
		}

	default:
		if id != "" {
			if !r.log.DropIfEmpty(id) {
				r.log.Seal(id)
			}
			r.touch()
		}
		slog.Warn("generation failed", "error", err)
	}
}

// settleFailure resolves a failed image placeholder.
func (r *Runtime) settleFailure(id types.TurnID, err error) {
	if errors.Is(err, llm.ErrQuotaExhausted) {
		r.log.ReplaceWithNotice(id, quotaNoticeLines...)
		r.touch()
		return
	}
	r.log.DropIfEmpty(id)
	r.touch()
	if !errors.Is(err, context.Canceled) {
		slog.Warn("image generation failed", "error", err)
	}
}

// Speak synthesizes a turn's content and stores it as a WAV artifact,
// returning the file path.
func (r *Runtime) Speak(ctx context.Context, turnID types.TurnID) (string, error) {
	var content string
	for _, turn := range r.log.Turns() {
		if turn.ID == turnID {
			content = turn.Content
			break
		}
	}
	if content == "" {
		return "", errors.New("turn has no speakable content")
	}

	audio, err := r.provider.Speak(ctx, stripMarkdown(content))
	if err != nil {
		return "", fmt.Errorf("synthesize speech: %w", err)
	}
	path, err := r.artifacts.Put("wav", audio.WAV())
	if err != nil {
		return "", err
	}
	return path, nil
}

// Transcribe converts an audio attachment into prompt text.
func (r *Runtime) Transcribe(ctx context.Context, att types.Attachment) (string, error) {
	data, err := base64.StdEncoding.DecodeString(att.Data)
	if err != nil {
		return "", fmt.Errorf("decode audio: %w", err)
	}
	text, err := r.provider.Transcribe(ctx, att.MimeType, data)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (r *Runtime) touch() {
	r.sessions.Touch(r.log.Turns())
	r.emit(EventLogChanged)
}

func (r *Runtime) emit(ev Event) {
	select {
	case r.events <- ev:
	default:
	}
}

// historyMessages maps the chat log into request messages: user turns
// carry attachments then text, assistant image turns are sent as the
// literal text "[Generated Image]", and system turns are excluded.
func historyMessages(turns []*types.ChatTurn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case types.RoleUser:
			parts := attachmentParts(turn.Attachments)
			if turn.Content != "" {
				parts = append(parts, llm.Part{Text: turn.Content})
			}
			if len(parts) == 0 {
				continue
			}
			messages = append(messages, llm.Message{Role: "user", Parts: parts})

		case types.RoleAssistant:
			if strings.HasPrefix(turn.Content, "![Image]") {
				messages = append(messages, llm.TextMessage("model", "[Generated Image]"))
				continue
			}
			if turn.Content == "" {
				continue
			}
			messages = append(messages, llm.TextMessage("model", turn.Content))
		}
	}
	return messages
}

func attachmentParts(attachments []types.Attachment) []llm.Part {
	parts := make([]llm.Part, 0, len(attachments))
	for _, att := range attachments {
		data, err := base64.StdEncoding.DecodeString(att.Data)
		if err != nil {
			slog.Warn("skipping undecodable attachment", "name", att.Name, "error", err)
			continue
		}
		parts = append(parts, llm.Part{MimeType: att.MimeType, Data: data})
	}
	return parts
}

func extForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

var markdownStripper = strings.NewReplacer("*", "", "#", "", "`", "", "_", "")

func stripMarkdown(s string) string {
	return markdownStripper.Replace(s)
}
