package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/minio/minio-go/v7"
)

// MinioStore keeps content-addressed blobs in a MinIO bucket, object
// name = sha256 digest, media type = object content type.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(ctx context.Context, client *minio.Client, bucket string) (*MinioStore, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

func (s *MinioStore) Put(ctx context.Context, r io.Reader, size int64, mediaType string) (ContentID, error) {
	// The digest has to be known before the object name can be chosen,
	// so the bytes are spooled once locally.
	tmp, err := os.CreateTemp("", "blob-*")
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
	if _, err := s.client.StatObject(ctx, s.bucket, string(id), minio.StatObjectOptions{}); err == nil {
		// Already stored under this digest, nothing to upload.
		return id, nil
	}
	_, err = s.client.FPutObject(ctx, s.bucket, string(id), tmp.Name(), minio.PutObjectOptions{
		ContentType: mediaType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", id, err)
	}
	return id, nil
}

func (s *MinioStore) Open(ctx context.Context, id ContentID) (*Object, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, string(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", id, err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	mediaType := info.ContentType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return &Object{
		ReadSeekCloser: obj,
		Size:           info.Size,
		MediaType:      mediaType,
		ModTime:        info.LastModified,
	}, nil
}
