package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medianode/blob"
	"medianode/constant"
	"medianode/entities"
	"medianode/pkg/metrics"
	"medianode/repository"
)

// IngestResult is everything a caller needs after a successful ingest:
// the manifest content id for adaptive playback, the raw content id for
// the direct-play fallback, and the job id that keeps the staged
// variant files resolvable.
type IngestResult struct {
	JobID       string
	ManifestCID blob.ContentID
	RawCID      blob.ContentID
	Filename    string
	Size        int64
	Variants    []string
	Status      constant.JobStatus
}

// Pipeline orchestrates one upload end to end: stage, fan-out
// transcode, build the master manifest, publish manifest and raw source
// to the content store, register the job for delivery.
type Pipeline struct {
	transcoder *Transcoder
	manifest   *ManifestBuilder
	store      blob.Store
	registry   *Registry
	repo       repository.VideoRepository // optional
}

func NewPipeline(transcoder *Transcoder, manifest *ManifestBuilder, store blob.Store, registry *Registry, repo repository.VideoRepository) *Pipeline {
	return &Pipeline{
		transcoder: transcoder,
		manifest:   manifest,
		store:      store,
		registry:   registry,
		repo:       repo,
	}
}

func (p *Pipeline) Ingest(ctx context.Context, r io.Reader, filename string) (*IngestResult, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no payload", ErrInvalidInput)
	}

	jobID := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("job_id", jobID).Logger()
	ctx = logger.WithContext(ctx)

	stagingDir := p.transcoder.StagingDir(jobID)
	sourcePath, size, err := stageSource(stagingDir, filename, r)
	if err != nil {
		os.RemoveAll(stagingDir)
		return nil, err
	}
	logger.Info().Str("filename", filename).Int64("size", size).Msg("upload staged")

	tr, err := p.transcoder.Transcode(ctx, jobID, sourcePath)
	if err != nil {
		// Nothing was published, so nothing from this job is resolvable;
		// the staging directory has no reason to stay.
		os.RemoveAll(stagingDir)
		if errors.Is(err, ErrTranscodeFailed) {
			metrics.IngestFailures.WithLabelValues("transcode").Inc()
		}
		return nil, err
	}

	variantNames := make([]string, 0, len(tr.Results))
	for _, res := range tr.Results {
		variantNames = append(variantNames, res.Variant.Name)
	}

	status := constant.JobStatusFullyAvailable
	if len(tr.Failures) > 0 {
		status = constant.JobStatusPartiallyAvailable
	}

	// Register before publishing so the manifest's absolute URLs resolve
	// the moment anyone can know the manifest's content id.
	p.registry.Add(jobID, JobInfo{Dir: stagingDir, Variants: variantNames})

	manifestText := p.manifest.Build(jobID, tr.Results)
	manifestCID, err := p.store.Put(ctx, strings.NewReader(manifestText), int64(len(manifestText)), constant.MediaTypePlaylist)
	if err != nil {
		metrics.IngestFailures.WithLabelValues("publish").Inc()
		return nil, fmt.Errorf("%w: manifest: %v", ErrPublishFailed, err)
	}
	metrics.ManifestsPublished.Inc()
	metrics.BlobsPublished.Inc()

	rawCID, err := p.publishRaw(ctx, sourcePath, size)
	if err != nil {
		metrics.IngestFailures.WithLabelValues("publish").Inc()
		return nil, fmt.Errorf("%w: raw source: %v", ErrPublishFailed, err)
	}
	metrics.BlobsPublished.Inc()

	result := &IngestResult{
		JobID:       jobID,
		ManifestCID: manifestCID,
		RawCID:      rawCID,
		Filename:    filename,
		Size:        size,
		Variants:    variantNames,
		Status:      status,
	}
	logger.Info().
		Str("manifest_cid", string(manifestCID)).
		Str("raw_cid", string(rawCID)).
		Strs("variants", variantNames).
		Msg("ingest complete")

	if p.repo != nil {
		record := &entities.Video{
			ID:          uuid.New(),
			JobID:       jobID,
			Filename:    filename,
			SizeBytes:   size,
			ManifestCID: string(manifestCID),
			RawCID:      string(rawCID),
			Status:      constant.JobStatusPublished,
			Variants:    variantNames,
		}
		if err := p.repo.Create(ctx, record); err != nil {
			// The stream is already playable, so record loss is non-fatal.
			logger.Error().Err(err).Msg("persist video record")
		}
	}

	return result, nil
}

// IngestFile runs the pipeline over a file already on local disk; the
// queue consumer and the watch-directory ingester both come through here.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	defer f.Close()
	return p.Ingest(ctx, f, filepath.Base(path))
}

func (p *Pipeline) publishRaw(ctx context.Context, sourcePath string, size int64) (blob.ContentID, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return p.store.Put(ctx, f, size, constant.MediaTypeVideo)
}

func stageSource(stagingDir, filename string, r io.Reader) (string, int64, error) {
	sourceDir := filepath.Join(stagingDir, "source")
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		return "", 0, err
	}
	sourcePath := filepath.Join(sourceDir, sanitizeFilename(filename))
	f, err := os.Create(sourcePath)
	if err != nil {
		return "", 0, err
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, fmt.Errorf("stage upload: %w", err)
	}
	if size == 0 {
		return "", 0, fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}
	return sourcePath, size, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "source.mp4"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "source.mp4"
	}
	return b.String()
}
