package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"medianode/blob"
	"medianode/config"
	"medianode/constant"
	"medianode/handler"
	"medianode/pkg/rabbitmq"
	"medianode/repository"
	"medianode/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Str("public_base", cfg.App.PublicBaseURL()).Msg("starting media node")
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := newBlobStore(ctx, cfg)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("initialise blob store")
	}

	transcoder, err := service.NewTranscoder(cfg.Transcode)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("initialise transcoder")
	}

	var repo repository.VideoRepository
	if cfg.DB != nil {
		repo, err = repository.NewRepo(cfg.DB)
		if err != nil {
			zerolog.Ctx(ctx).Fatal().Err(err).Msg("initialise repository")
		}
	}

	registry := service.NewRegistry()
	manifest := service.NewManifestBuilder(cfg.App.PublicBaseURL())
	pipeline := service.NewPipeline(transcoder, manifest, store, registry, repo)
	h := handler.New(pipeline, registry, store, repo)

	if cfg.Queue != nil && cfg.Storage != nil {
		conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("rabbitmq unavailable, queue ingestion disabled")
		} else {
			deps := handler.ServiceDependencies{
				Pipeline: pipeline,
				Storage:  cfg.Storage,
				Bucket:   cfg.MinIOBucket,
			}
			ingestConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, cfg.Server.Workers, handler.IngestJobHandler)
			go func() {
				if err := ingestConsumer.Consume(ctx, deps); err != nil && !errors.Is(err, context.Canceled) {
					zerolog.Ctx(ctx).Error().Err(err).Msg("ingest consumer stopped")
				}
			}()
		}
	}

	if cfg.Watch.Dir != "" {
		watcher := service.NewDirWatcher(cfg.Watch.Dir, cfg.Watch.DebounceTimeout, pipeline)
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zerolog.Ctx(ctx).Error().Err(err).Msg("directory watcher stopped")
			}
		}()
	}

	r := NewRouter(h)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("addr", srv.Addr).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("graceful shutdown")
	}
	zerolog.Ctx(ctx).Info().Msg("server stopped")
}

// NewRouter wires the delivery routes; split out so handler tests can
// exercise the exact production routing.
func NewRouter(h *handler.Handler) *gin.Engine {
	r := gin.Default()
	r.Use(handler.CORS())

	r.POST("/upload", h.Upload)
	r.GET("/jobs/:job/:variant/:file", h.JobFile)
	r.HEAD("/jobs/:job/:variant/:file", h.JobFile)
	r.GET("/content/:cid", h.Content)
	r.HEAD("/content/:cid", h.Content)
	r.GET("/videos", h.Videos)
	r.GET("/videos/:job", h.VideoByJob)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.Blob.Backend == "minio" {
		if cfg.Storage == nil {
			return nil, errors.New("minio backend selected but no client configured")
		}
		return blob.NewMinioStore(ctx, cfg.Storage, cfg.MinIOBucket)
	}
	return blob.NewFileStore(cfg.Blob.FSRoot)
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}
