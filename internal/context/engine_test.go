// internal/context/engine_test.go
package context

import (
	"strings"
	"testing"

	"github.com/user/nexusterm/pkg/llm"
)

func newTestEngine(t *testing.T, maxTokens, reserve int) *Engine {
	t.Helper()
	engine, err := New("gemini-2.5-flash", maxTokens, reserve)
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestTrim_KeepsEverythingUnderBudget(t *testing.T) {
	engine := newTestEngine(t, 10000, 1000)
	messages := []llm.Message{
		llm.TextMessage("user", "short question"),
		llm.TextMessage("model", "short answer"),
	}

	out := engine.Trim("system prompt", messages)
	if len(out) != 2 {
		t.Errorf("nothing should be trimmed, got %d messages", len(out))
	}
}

func TestTrim_DropsOldestFirst(t *testing.T) {
	engine := newTestEngine(t, 200, 50)

	long := strings.Repeat("word ", 60)
	messages := []llm.Message{
		llm.TextMessage("user", long),
		llm.TextMessage("model", long),
		llm.TextMessage("user", "latest question"),
	}

	out := engine.Trim("", messages)
	if len(out) == 3 {
		t.Fatal("expected oldest messages trimmed")
	}
	last := out[len(out)-1]
	if last.Parts[0].Text != "latest question" {
		t.Errorf("newest message must survive, got %q", last.Parts[0].Text)
	}
}

func TestTrim_NewestAlwaysKept(t *testing.T) {
	engine := newTestEngine(t, 20, 10)
	huge := strings.Repeat("word ", 500)
	messages := []llm.Message{llm.TextMessage("user", huge)}

	out := engine.Trim("", messages)
	if len(out) != 1 {
		t.Errorf("newest message must be kept even over budget, got %d", len(out))
	}
}

func TestTrim_BinaryPartsCharged(t *testing.T) {
	engine := newTestEngine(t, inlinePartTokens+50, 0)
	messages := []llm.Message{
		llm.TextMessage("user", "older text"),
		{Role: "user", Parts: []llm.Part{
			{MimeType: "image/png", Data: []byte{1}},
			{Text: "what is this?"},
		}},
	}

	out := engine.Trim("", messages)
	if len(out) != 1 {
		t.Errorf("image cost should push the older message out, got %d messages", len(out))
	}
}
