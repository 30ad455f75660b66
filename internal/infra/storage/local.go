package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.FileStore = (*LocalStore)(nil)

// LocalStore resolves storage locations against a single root directory.
// Locations are the relative paths the upload handler recorded; anything that
// would escape the root is refused.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, domain.ErrInvalidArgument
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Load(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, domain.ErrInvalidArgument
	}
	// Clean with a leading slash pins the location under the root.
	path := filepath.Join(s.root, filepath.Clean(string(os.PathSeparator)+location))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stored file %s: %w", location, err)
	}
	return data, nil
}
