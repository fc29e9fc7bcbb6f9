package handler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"medianode/dto"
	"medianode/service"
)

// ServiceDependencies is what the queue consumer hands to its message
// handlers.
type ServiceDependencies struct {
	Pipeline *service.Pipeline
	Storage  *minio.Client
	Bucket   string
}

// IngestJobHandler consumes an IngestMessage: the source object already
// sits in the bucket, so it is pulled to a local temp file and run
// through the same pipeline as a direct upload.
func IngestJobHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var message dto.IngestMessage
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("unmarshal ingest message")
		return err
	}
	logger := zerolog.Ctx(ctx).With().
		Str("queued_job_id", message.JobId.String()).
		Str("object_path", message.ObjectPath).
		Logger()
	ctx = logger.WithContext(ctx)

	tempDir, err := os.MkdirTemp("", "ingest-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	fileName := message.FileName
	if fileName == "" {
		fileName = filepath.Base(message.ObjectPath)
	}
	localPath := filepath.Join(tempDir, fileName)
	if err := deps.Storage.FGetObject(ctx, deps.Bucket, message.ObjectPath, localPath, minio.GetObjectOptions{}); err != nil {
		logger.Error().Err(err).Msg("download source object")
		return err
	}

	result, err := deps.Pipeline.IngestFile(ctx, localPath)
	if err != nil {
		logger.Error().Err(err).Msg("ingest queued object")
		return err
	}
	logger.Info().
		Str("job_id", result.JobID).
		Str("manifest_cid", string(result.ManifestCID)).
		Msg("queued ingest complete")
	return nil
}
