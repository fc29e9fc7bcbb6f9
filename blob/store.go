package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ContentID is the hex sha256 of a blob's bytes. It is the only handle
// handed out to callers; the same bytes always map to the same id.
type ContentID string

var (
	ErrNotFound  = errors.New("content not found")
	ErrInvalidID = errors.New("invalid content id")
)

func (id ContentID) String() string {
	return string(id)
}

// Validate rejects anything that is not a 64-char lowercase hex digest,
// which also keeps ids from ever being usable as path traversal input.
func (id ContentID) Validate() error {
	if len(id) != 64 {
		return fmt.Errorf("%w: %q", ErrInvalidID, string(id))
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return fmt.Errorf("%w: %q", ErrInvalidID, string(id))
		}
	}
	return nil
}

// Object is an opened blob. The reader is positioned at offset zero and
// is seekable so delivery can serve byte ranges from it.
type Object struct {
	io.ReadSeekCloser

	Size      int64
	MediaType string
	ModTime   time.Time
}

// Store is the content-addressed blob contract used by the pipeline and
// the delivery handlers. Implementations must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, r io.Reader, size int64, mediaType string) (ContentID, error)
	Open(ctx context.Context, id ContentID) (*Object, error)
}
