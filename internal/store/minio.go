package store

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/imagehub/backend/internal/models"
)

const publicReadPolicy = `{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/images/*"]
  }]
}`

// MinioMediaStore keeps uploaded images in a MinIO bucket whose images/
// prefix is publicly readable. The object key is the deletion handle.
type MinioMediaStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioMediaStore connects to MinIO, ensures the bucket exists with a
// public-read policy and derives the public base URL when none is given.
func NewMinioMediaStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, publicBase string) (*MinioMediaStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	if err := client.SetBucketPolicy(ctx, bucket, fmt.Sprintf(publicReadPolicy, bucket)); err != nil {
		return nil, fmt.Errorf("minio bucket policy: %w", err)
	}

	if publicBase == "" {
		publicBase = joinURL(client.EndpointURL().String(), bucket)
	}
	return &MinioMediaStore{client: client, bucket: bucket, publicBase: publicBase}, nil
}

// Upload stores the file under a fresh key and returns its public URL.
func (s *MinioMediaStore) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (models.StoredObject, error) {
	key := objectKey(filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return models.StoredObject{}, fmt.Errorf("minio put %s: %w", key, err)
	}
	return models.StoredObject{URL: joinURL(s.publicBase, key), PublicID: key}, nil
}

// Remove deletes an object by its deletion handle.
func (s *MinioMediaStore) Remove(ctx context.Context, publicID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove %s: %w", publicID, err)
	}
	return nil
}
