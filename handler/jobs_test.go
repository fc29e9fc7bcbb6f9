package handler_test

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"medianode/service"
)

func TestJobPlaylistServedWithPlaylistType(t *testing.T) {
	f := newFixture(t)
	result := f.ingest(t, "video bytes", "clip.mp4")

	w := f.get(fmt.Sprintf("/jobs/%s/720p/playlist", result.JobID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/vnd.apple.mpegurl" {
		t.Errorf("content type = %q", got)
	}
}

func TestMissingVariantFallsBackToAvailable(t *testing.T) {
	f := newFixture(t, "720p")
	result := f.ingest(t, "video bytes", "clip.mp4")

	info, ok := f.registry.Lookup(result.JobID)
	if !ok {
		t.Fatal("job not registered")
	}
	want, err := os.ReadFile(filepath.Join(info.Dir, "480p", service.PlaylistFilename))
	if err != nil {
		t.Fatal(err)
	}

	// 720p failed its encode; the request degrades to the first variant
	// that exists rather than 404ing.
	w := f.get(fmt.Sprintf("/jobs/%s/720p/playlist", result.JobID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != string(want) {
		t.Errorf("fallback did not serve the 480p playlist")
	}
}

func TestUnknownJobIs404(t *testing.T) {
	f := newFixture(t)
	w := f.get("/jobs/no-such-job/720p/playlist", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestSegmentRangeRequest(t *testing.T) {
	f := newFixture(t)
	result := f.ingest(t, "video bytes", "clip.mp4")

	path := fmt.Sprintf("/jobs/%s/720p/segment_000.ts", result.JobID)
	w := f.get(path, map[string]string{"Range": "bytes=0-3"})
	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", w.Code)
	}
	if w.Body.String() != "fake" {
		t.Errorf("body = %q, want first 4 bytes of the segment", w.Body.String())
	}
	wantRange := fmt.Sprintf("bytes 0-3/%d", len("fake segment data"))
	if got := w.Header().Get("Content-Range"); got != wantRange {
		t.Errorf("Content-Range = %q, want %q", got, wantRange)
	}

	full := f.get(path, nil)
	if full.Code != http.StatusOK {
		t.Fatalf("full fetch status = %d", full.Code)
	}
	if full.Body.String() != "fake segment data" {
		t.Errorf("full body = %q", full.Body.String())
	}
	if got := full.Header().Get("Content-Type"); got != "video/MP2T" {
		t.Errorf("segment content type = %q", got)
	}
}

func TestMissingSegmentIs404(t *testing.T) {
	f := newFixture(t)
	result := f.ingest(t, "video bytes", "clip.mp4")
	w := f.get(fmt.Sprintf("/jobs/%s/720p/segment_999.ts", result.JobID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestTraversalSegmentNameRejected(t *testing.T) {
	f := newFixture(t)
	result := f.ingest(t, "video bytes", "clip.mp4")
	w := f.get(fmt.Sprintf("/jobs/%s/720p/%%2e%%2e", result.JobID), nil)
	if w.Code != http.StatusBadRequest && w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want rejection", w.Code)
	}
}
