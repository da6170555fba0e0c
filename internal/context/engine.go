// internal/context/engine.go
package context

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/nexusterm/pkg/llm"
)

// inlinePartTokens is the flat cost charged for a binary part. The
// tokenizer cannot see into images or audio, so each inline part is
// budgeted at roughly what the API charges for a small image.
const inlinePartTokens = 258

// Engine trims conversation history to a token budget before a
// request is sent.
type Engine struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// New creates a context engine with the specified token budget.
// model selects the tokenizer; unknown models fall back to cl100k_base.
// maxTokens is the model's context window size.
// reserve is the number of tokens to reserve for the model's response.
func New(model string, maxTokens, reserve int) (*Engine, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Engine{
		tokenizer: enc,
		maxTokens: maxTokens,
		reserve:   reserve,
	}, nil
}

// countTokens returns the token count for a string.
func (e *Engine) countTokens(text string) int {
	return len(e.tokenizer.Encode(text, nil, nil))
}

func (e *Engine) messageTokens(msg llm.Message) int {
	tokens := 0
	for _, part := range msg.Parts {
		if len(part.Data) > 0 {
			tokens += inlinePartTokens
			continue
		}
		tokens += e.countTokens(part.Text)
	}
	return tokens
}

// Trim drops the oldest messages until the conversation plus the
// system instruction fits the input budget. The newest message is
// always kept, even if it alone blows the budget.
func (e *Engine) Trim(system string, messages []llm.Message) []llm.Message {
	budget := e.maxTokens - e.reserve - e.countTokens(system)

	used := 0
	keepFrom := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		tokens := e.messageTokens(messages[i])
		if used+tokens > budget && keepFrom < len(messages) {
			break
		}
		used += tokens
		keepFrom = i
	}
	return messages[keepFrom:]
}
