// internal/types/interfaces.go
package types

import (
	"context"
)

// RemoteFileStore is a remote store holding a small number of named files.
// Find returns an empty ID when no file with the given name exists.
type RemoteFileStore interface {
	Find(ctx context.Context, name string) (string, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	Create(ctx context.Context, name, mimeType string, content []byte) (string, error)
	Update(ctx context.Context, fileID string, content []byte) error
}
