package s3

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/content"
	"github.com/mwantia/typedfs/data"
)

func (sb *S3Backend) Enumerate(ctx context.Context, folder data.ID) ([]*backend.Object, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	prefix := folder.String()
	if prefix != "" {
		prefix += "/"
	}

	// List objects with delimiter to get only direct children
	objectsCh := sb.client.ListObjects(ctx, sb.bucketName, minio.ListObjectsOptions{
		Prefix:    sb.objectKey(prefix),
		Recursive: false,
	})

	keys := make([]string, 0)
	infos := make(map[string]minio.ObjectInfo)
	for object := range objectsCh {
		if object.Err != nil {
			return nil, object.Err
		}

		key := strings.TrimPrefix(object.Key, sb.prefix)
		keys = append(keys, key)
		infos[key] = object
	}

	return backend.ChildrenOf(folder, keys, func(key string, obj *backend.Object) {
		info := infos[key]
		obj.ModTime = info.LastModified
		obj.Size = info.Size
	}), nil
}

func (sb *S3Backend) Locate(id data.ID, suffix string) string {
	return backend.Key(id, suffix)
}

func (sb *S3Backend) ReadObject(ctx context.Context, location string) (io.ReadCloser, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	object, err := sb.client.GetObject(ctx, sb.bucketName, sb.objectKey(location), minio.GetObjectOptions{})
	if err != nil {
		return nil, sb.mapError(err)
	}

	// GetObject is lazy, errors surface on the first read
	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, sb.mapError(err)
	}

	return object, nil
}

func (sb *S3Backend) WriteObject(ctx context.Context, location string) (io.WriteCloser, error) {
	if location == "" {
		return nil, data.ErrInvalid
	}

	return backend.NewBufferedWriter(func(buffer []byte) error {
		sb.mu.Lock()
		defer sb.mu.Unlock()

		_, suffix, _ := backend.SplitName(location)
		_, err := sb.client.PutObject(ctx, sb.bucketName, sb.objectKey(location),
			bytes.NewReader(buffer), int64(len(buffer)), minio.PutObjectOptions{
				ContentType: content.MIMEType(suffix),
			})
		return err
	}), nil
}

func (sb *S3Backend) DeleteObject(ctx context.Context, location string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	key := sb.objectKey(location)
	if _, err := sb.client.StatObject(ctx, sb.bucketName, key, minio.StatObjectOptions{}); err != nil {
		return sb.mapError(err)
	}

	return sb.client.RemoveObject(ctx, sb.bucketName, key, minio.RemoveObjectOptions{})
}

func (sb *S3Backend) mapError(err error) error {
	errResponse := minio.ToErrorResponse(err)
	if errResponse.Code == "NoSuchKey" {
		return data.ErrNotExist
	}
	return err
}
