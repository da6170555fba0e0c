// internal/sources/preview_test.go
package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPreview_ConvertsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body><h1>Title</h1><p>Some <strong>bold</strong> text.</p></body></html>")
	}))
	defer srv.Close()

	p := NewPreviewer()
	md, err := p.Preview(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "# Title") {
		t.Errorf("heading not converted: %q", md)
	}
	if !strings.Contains(md, "**bold**") {
		t.Errorf("emphasis not converted: %q", md)
	}
}

func TestPreview_TruncatesLongPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<p>"+strings.Repeat("word ", 2000)+"</p>")
	}))
	defer srv.Close()

	p := NewPreviewer()
	md, err := p.Preview(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(md, "[Content truncated]") {
		t.Error("long page should be truncated")
	}
	if len(md) > maxPreviewChars+100 {
		t.Errorf("preview too long: %d chars", len(md))
	}
}

func TestPreview_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewPreviewer()
	if _, err := p.Preview(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 404")
	}
}

func TestPreview_EmptyURI(t *testing.T) {
	p := NewPreviewer()
	if _, err := p.Preview(context.Background(), ""); err == nil {
		t.Error("expected error for empty uri")
	}
}
