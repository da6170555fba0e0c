// pkg/llm/gemini/client_test.go
package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"

	"github.com/user/nexusterm/pkg/llm"
)

func TestClassify_QuotaByCode(t *testing.T) {
	err := genai.APIError{Code: 429, Message: "slow down"}
	if !errors.Is(classify(err), llm.ErrQuotaExhausted) {
		t.Error("429 should classify as quota exhausted")
	}
}

func TestClassify_QuotaByStatus(t *testing.T) {
	err := genai.APIError{Code: 403, Status: "RESOURCE_EXHAUSTED"}
	if !errors.Is(classify(err), llm.ErrQuotaExhausted) {
		t.Error("RESOURCE_EXHAUSTED should classify as quota exhausted")
	}
}

func TestClassify_WrappedAPIError(t *testing.T) {
	err := fmt.Errorf("send request: %w", genai.APIError{Code: 429})
	if !errors.Is(classify(err), llm.ErrQuotaExhausted) {
		t.Error("wrapped API errors should still classify")
	}
}

func TestClassify_OtherErrorsPassThrough(t *testing.T) {
	apiErr := genai.APIError{Code: 500, Status: "INTERNAL"}
	if errors.Is(classify(apiErr), llm.ErrQuotaExhausted) {
		t.Error("500 is not a quota error")
	}

	plain := errors.New("network down")
	if classify(plain) != plain {
		t.Error("non-API errors must pass through unchanged")
	}

	if errors.Is(classify(context.Canceled), llm.ErrQuotaExhausted) {
		t.Error("cancellation is not a quota error")
	}
}

func TestStream_NotConfigured(t *testing.T) {
	c := New(&llm.Config{})
	_, err := c.Stream(context.Background(), &llm.Request{})
	if !errors.Is(err, llm.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestToContents(t *testing.T) {
	messages := []llm.Message{
		{Role: "user", Parts: []llm.Part{
			{MimeType: "image/png", Data: []byte{1, 2, 3}},
			{Text: "what is this?"},
		}},
		llm.TextMessage("model", "a test image"),
		{Role: "user", Parts: []llm.Part{{}}}, // empty, dropped
	}

	contents := toContents(messages)
	if len(contents) != 2 {
		t.Fatalf("expected empty message dropped, got %d contents", len(contents))
	}
	if contents[0].Role != "user" || len(contents[0].Parts) != 2 {
		t.Errorf("wrong first content: %+v", contents[0])
	}
	if contents[0].Parts[0].InlineData == nil || contents[0].Parts[0].InlineData.MIMEType != "image/png" {
		t.Error("inline part lost")
	}
	if contents[1].Parts[0].Text != "a test image" {
		t.Errorf("wrong model text: %q", contents[1].Parts[0].Text)
	}
}

func TestGenerateConfig(t *testing.T) {
	c := New(&llm.Config{APIKey: "k"})

	config := c.generateConfig(&llm.Request{
		System:         "be brief",
		UseSearch:      true,
		ThinkingBudget: 8192,
	})
	if config.SystemInstruction == nil || config.SystemInstruction.Parts[0].Text != "be brief" {
		t.Error("system instruction missing")
	}
	if len(config.Tools) != 1 || config.Tools[0].GoogleSearch == nil {
		t.Error("search tool missing")
	}
	if config.ThinkingConfig == nil || *config.ThinkingConfig.ThinkingBudget != 8192 {
		t.Error("thinking budget missing")
	}

	config = c.generateConfig(&llm.Request{})
	if config.SystemInstruction != nil || config.Tools != nil || config.ThinkingConfig != nil {
		t.Error("bare request should produce a bare config")
	}
}
