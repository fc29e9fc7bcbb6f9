package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileStore is a directory-backed content-addressed store. Blobs live
// under <root>/objects keyed by their sha256, with a JSON sidecar
// carrying the media type. It is the default backend for development
// and the one the tests run against.
type FileStore struct {
	root string
}

type sidecar struct {
	MediaType string    `json:"mediaType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewFileStore(root string) (*FileStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	for _, sub := range []string{"objects", "tmp"} {
		if err := os.MkdirAll(filepath.Join(absRoot, sub), 0o755); err != nil {
			return nil, fmt.Errorf("prepare blob store: %w", err)
		}
	}
	return &FileStore{root: absRoot}, nil
}

func (s *FileStore) Put(ctx context.Context, r io.Reader, size int64, mediaType string) (ContentID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "put-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	written, err := io.Copy(tmp, io.TeeReader(r, hasher))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("stage blob: %w", err)
	}
	if size >= 0 && written != size {
		return "", fmt.Errorf("stage blob: wrote %d bytes, expected %d", written, size)
	}

	id := ContentID(hex.EncodeToString(hasher.Sum(nil)))
	objectPath := s.objectPath(id)
	if _, err := os.Stat(objectPath); err == nil {
		// Same bytes, same id: the existing object wins.
		return id, nil
	}
	meta := sidecar{MediaType: mediaType, Size: written, CreatedAt: time.Now().UTC()}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(objectPath+".json", data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), objectPath); err != nil {
		return "", err
	}
	return id, nil
}

func (s *FileStore) Open(ctx context.Context, id ContentID) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.objectPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	obj := &Object{
		ReadSeekCloser: f,
		Size:           info.Size(),
		MediaType:      "application/octet-stream",
		ModTime:        info.ModTime(),
	}
	if data, err := os.ReadFile(s.objectPath(id) + ".json"); err == nil {
		var meta sidecar
		if json.Unmarshal(data, &meta) == nil && meta.MediaType != "" {
			obj.MediaType = meta.MediaType
		}
	}
	return obj, nil
}

func (s *FileStore) objectPath(id ContentID) string {
	return filepath.Join(s.root, "objects", string(id))
}
