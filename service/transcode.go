package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"medianode/config"
	"medianode/pkg/metrics"
)

const (
	PlaylistFilename = "playlist.m3u8"
	segmentPattern   = "segment_%03d.ts"
)

// EncodeSpec is one variant's encode invocation.
type EncodeSpec struct {
	Variant   config.Variant
	InputPath string
	OutputDir string
	Args      []string
}

// EncodeFunc runs one encode. The default implementation shells out to
// ffmpeg; tests substitute a fake that writes playlist and segment files.
type EncodeFunc func(ctx context.Context, spec EncodeSpec) error

// VariantResult describes one successfully encoded rendition.
type VariantResult struct {
	Variant      config.Variant
	PlaylistPath string
	SegmentPaths []string
}

// TranscodeResult carries the surviving variants in catalog order plus
// the per-variant failures that were absorbed.
type TranscodeResult struct {
	Results  []VariantResult
	Failures map[string]error
}

type Transcoder struct {
	stagingRoot    string
	segmentSeconds int
	variantTimeout time.Duration
	variants       []config.Variant
	encode         EncodeFunc
}

func NewTranscoder(cfg config.Transcode) (*Transcoder, error) {
	root, err := filepath.Abs(cfg.StagingRoot)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("prepare staging root: %w", err)
	}
	variants := cfg.Variants
	if len(variants) == 0 {
		variants = config.DefaultVariants()
	}
	segSeconds := cfg.SegmentSeconds
	if segSeconds <= 0 {
		segSeconds = 4
	}
	return &Transcoder{
		stagingRoot:    root,
		segmentSeconds: segSeconds,
		variantTimeout: cfg.VariantTimeout,
		variants:       variants,
		encode:         runFFmpeg,
	}, nil
}

// SetEncodeFunc swaps the encoder; used by tests.
func (t *Transcoder) SetEncodeFunc(fn EncodeFunc) {
	t.encode = fn
}

func (t *Transcoder) Variants() []config.Variant {
	return t.variants
}

func (t *Transcoder) StagingDir(jobID string) string {
	return filepath.Join(t.stagingRoot, jobID)
}

// Transcode encodes every catalog variant concurrently and waits for all
// of them to settle. Individual variant failures are absorbed; only a
// fully failed ladder (or a cancelled context) is an error.
func (t *Transcoder) Transcode(ctx context.Context, jobID, inputPath string) (*TranscodeResult, error) {
	type outcome struct {
		result VariantResult
		err    error
	}
	outcomes := make([]outcome, len(t.variants))

	g, gctx := errgroup.WithContext(ctx)
	for i, variant := range t.variants {
		g.Go(func() error {
			res, err := t.encodeVariant(gctx, jobID, inputPath, variant)
			if err != nil {
				outcomes[i] = outcome{err: err}
				return nil // absorbed; the remaining ladder keeps going
			}
			outcomes[i] = outcome{result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tr := &TranscodeResult{Failures: make(map[string]error)}
	var failed []error
	for i, o := range outcomes {
		name := t.variants[i].Name
		if o.err != nil {
			zerolog.Ctx(ctx).Error().Err(o.err).Str("job_id", jobID).Str("variant", name).Msg("variant encode failed")
			metrics.VariantFailures.WithLabelValues(name).Inc()
			tr.Failures[name] = o.err
			failed = append(failed, fmt.Errorf("%s: %w", name, o.err))
			continue
		}
		tr.Results = append(tr.Results, o.result)
	}
	if len(tr.Results) == 0 {
		return nil, errors.Join(ErrTranscodeFailed, errors.Join(failed...))
	}
	return tr, nil
}

func (t *Transcoder) encodeVariant(ctx context.Context, jobID, inputPath string, variant config.Variant) (VariantResult, error) {
	if t.variantTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.variantTimeout)
		defer cancel()
	}

	outputDir := filepath.Join(t.StagingDir(jobID), variant.Name)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return VariantResult{}, err
	}

	spec := EncodeSpec{
		Variant:   variant,
		InputPath: inputPath,
		OutputDir: outputDir,
		Args:      t.ffmpegArgs(inputPath, outputDir, variant),
	}
	if err := t.encode(ctx, spec); err != nil {
		return VariantResult{}, err
	}
	return verifyVariant(outputDir, variant)
}

func (t *Transcoder) ffmpegArgs(inputPath, outputDir string, v config.Variant) []string {
	scale := fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=decrease,pad=w=%d:h=%d:x=(ow-iw)/2:y=(oh-ih)/2",
		v.Width, v.Height, v.Width, v.Height)
	return []string{
		"-y",
		"-i", inputPath,
		"-vf", scale,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "22",
		"-b:v", fmt.Sprintf("%dk", v.Bitrate),
		"-maxrate", fmt.Sprintf("%dk", v.Bitrate),
		"-bufsize", fmt.Sprintf("%dk", v.Bitrate),
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", v.AudioRate),
		"-f", "hls",
		"-hls_time", strconv.Itoa(t.segmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(outputDir, segmentPattern),
		filepath.Join(outputDir, PlaylistFilename),
	}
}

// verifyVariant parses the variant playlist and requires every segment
// reference to exist on disk before the variant counts as complete.
func verifyVariant(outputDir string, variant config.Variant) (VariantResult, error) {
	playlistPath := filepath.Join(outputDir, PlaylistFilename)
	refs, err := ReadPlaylistSegments(playlistPath)
	if err != nil {
		return VariantResult{}, fmt.Errorf("read variant playlist: %w", err)
	}
	if len(refs) == 0 {
		return VariantResult{}, fmt.Errorf("variant %s playlist lists no segments", variant.Name)
	}
	segments := make([]string, 0, len(refs))
	for _, ref := range refs {
		segPath := filepath.Join(outputDir, ref)
		if _, err := os.Stat(segPath); err != nil {
			return VariantResult{}, fmt.Errorf("variant %s: segment %s missing: %w", variant.Name, ref, err)
		}
		segments = append(segments, segPath)
	}
	return VariantResult{Variant: variant, PlaylistPath: playlistPath, SegmentPaths: segments}, nil
}

// ReadPlaylistSegments returns the segment references listed in a media
// playlist, in order.
func ReadPlaylistSegments(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var refs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	return refs, scanner.Err()
}

func runFFmpeg(ctx context.Context, spec EncodeSpec) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", spec.Args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		zerolog.Ctx(ctx).Error().
			Str("variant", spec.Variant.Name).
			Str("output", tail(string(output), 2000)).
			Msg("ffmpeg failed")
		return fmt.Errorf("ffmpeg %s: %w", spec.Variant.Name, err)
	}
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
