// internal/sources/preview.go
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const maxPreviewChars = 4000

// Previewer fetches a grounding citation and renders a bounded
// markdown excerpt of the page.
type Previewer struct {
	client *http.Client
}

func NewPreviewer() *Previewer {
	return &Previewer{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Preview fetches the URI and converts its HTML to markdown, truncated
// to a readable length.
func (p *Previewer) Preview(ctx context.Context, uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("uri is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Nexusterm/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	md = strings.TrimSpace(md)

	if len(md) > maxPreviewChars {
		md = md[:maxPreviewChars] + "\n\n[Content truncated]"
	}
	return md, nil
}
