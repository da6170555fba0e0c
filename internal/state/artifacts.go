// internal/state/artifacts.go
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/nexusterm/internal/types"
)

// ArtifactStore writes generated media the terminal cannot display
// inline (images, synthesized speech) to individual files under
// <root>/artifacts/.
type ArtifactStore struct {
	root string
}

// NewArtifactStore creates a file-backed ArtifactStore rooted at the
// given directory.
func NewArtifactStore(root string) *ArtifactStore {
	return &ArtifactStore{root: root}
}

func (a *ArtifactStore) artifactsDir() string {
	return filepath.Join(a.root, "artifacts")
}

// Put stores raw bytes and returns the absolute path of the written
// file. ext is the file extension without the dot.
func (a *ArtifactStore) Put(ext string, data []byte) (string, error) {
	dir := a.artifactsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifacts dir: %w", err)
	}

	id := types.NewArtifactID()
	path := filepath.Join(dir, string(id)+"."+ext)

	// Atomic write: write to temp file then rename
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename artifact: %w", err)
	}
	return path, nil
}

// Get reads a stored artifact back.
func (a *ArtifactStore) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}
