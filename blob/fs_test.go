package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFileStorePutReturnsDigestID(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	payload := []byte("#EXTM3U\n#EXT-X-VERSION:3\n")
	id, err := store.Put(context.Background(), bytes.NewReader(payload), int64(len(payload)), "application/vnd.apple.mpegurl")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	sum := sha256.Sum256(payload)
	if want := ContentID(hex.EncodeToString(sum[:])); id != want {
		t.Fatalf("id = %s, want %s", id, want)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	payload := []byte("segment bytes")
	id, err := store.Put(context.Background(), bytes.NewReader(payload), int64(len(payload)), "video/MP2T")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	obj, err := store.Open(context.Background(), id)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer obj.Close()

	if obj.Size != int64(len(payload)) {
		t.Errorf("size = %d, want %d", obj.Size, len(payload))
	}
	if obj.MediaType != "video/MP2T" {
		t.Errorf("media type = %q, want video/MP2T", obj.MediaType)
	}
	got, err := io.ReadAll(obj)
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("object bytes mismatch: got %q", got)
	}
}

func TestFileStorePutIsIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	payload := []byte("same bytes")
	first, err := store.Put(context.Background(), bytes.NewReader(payload), -1, "video/mp4")
	if err != nil {
		t.Fatalf("first Put: %v", err)
	}
	second, err := store.Put(context.Background(), bytes.NewReader(payload), -1, "video/mp4")
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if first != second {
		t.Errorf("ids differ for identical bytes: %s vs %s", first, second)
	}
}

func TestFileStoreOpenMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	missing := ContentID(strings.Repeat("ab", 32))
	if _, err := store.Open(context.Background(), missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open missing = %v, want ErrNotFound", err)
	}
}

func TestContentIDValidate(t *testing.T) {
	cases := []struct {
		id ContentID
		ok bool
	}{
		{ContentID(strings.Repeat("0f", 32)), true},
		{"", false},
		{"../../etc/passwd", false},
		{ContentID(strings.Repeat("G", 64)), false},
		{ContentID(strings.Repeat("a", 63)), false},
	}
	for _, tc := range cases {
		err := tc.id.Validate()
		if tc.ok && err != nil {
			t.Errorf("Validate(%q) = %v, want nil", tc.id, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidID) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidID", tc.id, err)
		}
	}
}
