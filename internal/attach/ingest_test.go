// internal/attach/ingest_test.go
package attach

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngest(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "note.txt", []byte("hello"))
	png := writeFile(t, dir, "pic.png", []byte("\x89PNG\r\n\x1a\nfake"))

	results := make(map[string]Result)
	for r := range Ingest(context.Background(), []string{txt, png}) {
		results[r.Path] = r
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	note := results[txt]
	if note.Err != nil {
		t.Fatal(note.Err)
	}
	if note.Attachment.Name != "note.txt" {
		t.Errorf("wrong name: %q", note.Attachment.Name)
	}
	if !strings.HasPrefix(note.Attachment.MimeType, "text/plain") {
		t.Errorf("wrong mime type: %q", note.Attachment.MimeType)
	}
	decoded, err := base64.StdEncoding.DecodeString(note.Attachment.Data)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != "hello" {
		t.Errorf("data mangled: %q", decoded)
	}

	if results[png].Attachment.MimeType != "image/png" {
		t.Errorf("wrong png mime type: %q", results[png].Attachment.MimeType)
	}
}

func TestIngest_FailureIsolation(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", []byte("ok"))
	missing := filepath.Join(dir, "missing.txt")

	var okCount, errCount int
	for r := range Ingest(context.Background(), []string{good, missing, good}) {
		if r.Err != nil {
			errCount++
			if r.Path != missing {
				t.Errorf("unexpected failure for %s: %v", r.Path, r.Err)
			}
			continue
		}
		okCount++
	}

	if okCount != 2 || errCount != 1 {
		t.Errorf("expected 2 successes and 1 failure, got %d/%d", okCount, errCount)
	}
}

func TestIngest_Empty(t *testing.T) {
	ch := Ingest(context.Background(), nil)
	if _, open := <-ch; open {
		t.Error("channel should close immediately for no paths")
	}
}
