package adapter

import "context"

// FileStore loads the stored bytes of an upload by its storage location.
// The upload handler wrote them before the file record ever became pending,
// so a missing blob is a hard error, not a race.
type FileStore interface {
	Load(ctx context.Context, location string) ([]byte, error)
}
