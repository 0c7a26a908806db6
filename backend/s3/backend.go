package s3

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
)

// Config describes how to reach the bucket.
type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Prefix is prepended to every object key, allowing several roots to
	// share one bucket.
	Prefix string
}

type S3Backend struct {
	mu sync.RWMutex

	client     *minio.Client
	bucketName string
	prefix     string
}

func NewS3Backend(cfg Config) (*S3Backend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &S3Backend{
		client:     client,
		bucketName: cfg.Bucket,
		prefix:     prefix,
	}, nil
}

// Returns the identifier name defined for this backend
func (*S3Backend) Name() string {
	return "s3"
}

// Open is part of the lifecycle behaviour and verifies that the bucket exists.
func (sb *S3Backend) Open(ctx context.Context) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	exists, err := sb.client.BucketExists(ctx, sb.bucketName)
	if err != nil {
		return fmt.Errorf("%w: %w", data.ErrMountFailed, err)
	}

	if !exists {
		return fmt.Errorf("%w: bucket %q does not exist", data.ErrMountFailed, sb.bucketName)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (sb *S3Backend) Close(ctx context.Context) error {
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (sb *S3Backend) GetCapabilities() *backend.BackendCapabilities {
	return backend.ReadWrite(backend.CapabilityRemote)
}

// objectKey prepends the configured prefix to a location.
func (sb *S3Backend) objectKey(location string) string {
	return sb.prefix + location
}
