package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"medianode/blob"
)

func TestDirWatcherIngestsDroppedFile(t *testing.T) {
	tr := newTestTranscoder(t, testLadder())
	tr.SetEncodeFunc(fakeEncoder())
	store, err := blob.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	registry := NewRegistry()
	pipeline := NewPipeline(tr, NewManifestBuilder("http://localhost:8080"), store, registry, nil)

	dropDir := t.TempDir()
	watcher := NewDirWatcher(dropDir, 50*time.Millisecond, pipeline)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	// Let the watcher attach before dropping the file.
	time.Sleep(100 * time.Millisecond)
	dropped := filepath.Join(dropDir, "clip.mp4")
	if err := os.WriteFile(dropped, []byte("dropped video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(registry.JobIDs()) == 1 {
			if _, err := os.Stat(dropped); os.IsNotExist(err) {
				return // ingested and removed
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dropped file was not ingested; jobs=%v", registry.JobIDs())
}

func TestDirWatcherIgnoresNonVideoFiles(t *testing.T) {
	tr := newTestTranscoder(t, testLadder())
	tr.SetEncodeFunc(fakeEncoder())
	store, err := blob.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	registry := NewRegistry()
	pipeline := NewPipeline(tr, NewManifestBuilder("http://localhost:8080"), store, registry, nil)

	dropDir := t.TempDir()
	watcher := NewDirWatcher(dropDir, 50*time.Millisecond, pipeline)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dropDir, "notes.txt"), []byte("not a video"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if jobs := registry.JobIDs(); len(jobs) != 0 {
		t.Errorf("non-video file was ingested: %v", jobs)
	}
}
