// internal/persona/classifier.go
package persona

import (
	"regexp"
	"strings"
)

// Intent is the coarse routing decision made before a prompt is sent.
type Intent int

const (
	// IntentChat routes to the streaming chat path.
	IntentChat Intent = iota
	// IntentGenerateImage routes to image generation.
	IntentGenerateImage
	// IntentEditImage routes to image generation with the attached
	// images as editing context.
	IntentEditImage
	// IntentRefuse short-circuits with a canned refusal.
	IntentRefuse
)

// Classifier decides how a prompt should be routed. Implementations
// can be swapped; the regex heuristics below are the default.
type Classifier interface {
	Classify(personaKey, prompt string, hasAttachments bool) Intent
}

var (
	essayRe     = regexp.MustCompile(`(?i)(essay|homework|assignment|paper|thesis|dissertation)`)
	imageGenRe  = regexp.MustCompile(`(?i)(generate|create|draw|make).*(image|picture|photo|drawing)`)
	imageEditRe = regexp.MustCompile(`(?i)(edit|change|modify|fix|add|remove)`)
)

// RegexClassifier routes prompts with keyword heuristics.
type RegexClassifier struct{}

func NewRegexClassifier() *RegexClassifier {
	return &RegexClassifier{}
}

func (c *RegexClassifier) Classify(personaKey, prompt string, hasAttachments bool) Intent {
	lower := strings.ToLower(prompt)

	if personaKey == Insulting && essayRe.MatchString(lower) {
		return IntentRefuse
	}

	isEdit := hasAttachments && imageEditRe.MatchString(lower)
	if isEdit {
		return IntentEditImage
	}
	if imageGenRe.MatchString(lower) {
		return IntentGenerateImage
	}
	return IntentChat
}
