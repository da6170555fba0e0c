// internal/attach/ingest.go
package attach

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/user/nexusterm/internal/types"
)

// maxConcurrentReads bounds parallel file reads during ingestion.
const maxConcurrentReads = 4

// Result is the outcome of ingesting one file. Failures are per-file:
// a bad path never affects its siblings.
type Result struct {
	Path       string
	Attachment types.Attachment
	Err        error
}

// Ingest reads the given files concurrently and emits one Result per
// path, in completion order. The channel closes when all files have
// been processed.
func Ingest(ctx context.Context, paths []string) <-chan Result {
	out := make(chan Result, len(paths))
	sem := semaphore.NewWeighted(maxConcurrentReads)
	var wg sync.WaitGroup

	for _, path := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				out <- Result{Path: path, Err: err}
				return
			}
			defer sem.Release(1)

			att, err := readFile(path)
			if err != nil {
				out <- Result{Path: path, Err: err}
				return
			}
			out <- Result{Path: path, Attachment: att}
		}(path)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func readFile(path string) (types.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Attachment{}, fmt.Errorf("read attachment: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return types.Attachment{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
		Name:     filepath.Base(path),
	}, nil
}
