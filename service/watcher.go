package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

var watchableExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

// DirWatcher ingests video files dropped into a directory. Writes are
// debounced per file so a file is only picked up once it has stopped
// growing; ingested files are removed from the drop directory.
type DirWatcher struct {
	dir      string
	debounce time.Duration
	pipeline *Pipeline

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewDirWatcher(dir string, debounce time.Duration, pipeline *Pipeline) *DirWatcher {
	if debounce <= 0 {
		debounce = 5 * time.Second
	}
	return &DirWatcher{
		dir:      dir,
		debounce: debounce,
		pipeline: pipeline,
		timers:   make(map[string]*time.Timer),
	}
}

// Run blocks until the context is cancelled.
func (w *DirWatcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("dir", w.dir).Msg("watching drop directory")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !watchableExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			w.startOrResetTimer(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zerolog.Ctx(ctx).Error().Err(err).Msg("watch error")
		case <-ctx.Done():
			w.stopTimers()
			return ctx.Err()
		}
	}
}

func (w *DirWatcher) startOrResetTimer(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, exists := w.timers[path]; exists {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
}

func (w *DirWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

func (w *DirWatcher) ingest(ctx context.Context, path string) {
	logger := zerolog.Ctx(ctx).With().Str("path", path).Logger()
	result, err := w.pipeline.IngestFile(ctx, path)
	if err != nil {
		logger.Error().Err(err).Msg("ingest dropped file")
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Warn().Err(err).Msg("remove ingested file")
	}
	logger.Info().Str("job_id", result.JobID).Str("manifest_cid", string(result.ManifestCID)).Msg("dropped file ingested")
}
