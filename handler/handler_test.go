package handler_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"medianode/blob"
	"medianode/config"
	"medianode/handler"
	"medianode/server"
	"medianode/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router   *gin.Engine
	pipeline *service.Pipeline
	registry *service.Registry
	store    blob.Store
}

func testLadder() []config.Variant {
	return []config.Variant{
		{Name: "720p", Width: 1280, Height: 720, Bitrate: 3000, AudioRate: 128},
		{Name: "480p", Width: 854, Height: 480, Bitrate: 1500, AudioRate: 96},
		{Name: "360p", Width: 640, Height: 360, Bitrate: 800, AudioRate: 64},
	}
}

func fakeEncoder(failing ...string) service.EncodeFunc {
	return func(ctx context.Context, spec service.EncodeSpec) error {
		for _, name := range failing {
			if spec.Variant.Name == name {
				return fmt.Errorf("simulated encode failure for %s", name)
			}
		}
		var playlist strings.Builder
		playlist.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:4\n")
		for i := 0; i < 3; i++ {
			name := fmt.Sprintf("segment_%03d.ts", i)
			playlist.WriteString("#EXTINF:4.000,\n" + name + "\n")
			if err := os.WriteFile(filepath.Join(spec.OutputDir, name), []byte("fake segment data"), 0o644); err != nil {
				return err
			}
		}
		playlist.WriteString("#EXT-X-ENDLIST\n")
		return os.WriteFile(filepath.Join(spec.OutputDir, service.PlaylistFilename), []byte(playlist.String()), 0o644)
	}
}

func newFixture(t *testing.T, failing ...string) *fixture {
	t.Helper()
	tr, err := service.NewTranscoder(config.Transcode{
		StagingRoot:    t.TempDir(),
		SegmentSeconds: 4,
		Variants:       testLadder(),
	})
	if err != nil {
		t.Fatalf("NewTranscoder: %v", err)
	}
	tr.SetEncodeFunc(fakeEncoder(failing...))

	store, err := blob.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	registry := service.NewRegistry()
	manifest := service.NewManifestBuilder("http://localhost:8080")
	pipeline := service.NewPipeline(tr, manifest, store, registry, nil)
	h := handler.New(pipeline, registry, store, nil)
	return &fixture{
		router:   server.NewRouter(h),
		pipeline: pipeline,
		registry: registry,
		store:    store,
	}
}

func (f *fixture) ingest(t *testing.T, content, filename string) *service.IngestResult {
	t.Helper()
	result, err := f.pipeline.Ingest(context.Background(), strings.NewReader(content), filename)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return result
}

func (f *fixture) get(path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func newRecorderFor(f *fixture, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return body, mw.FormDataContentType()
}
