package store

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/imagehub/backend/internal/models"
)

// S3MediaStore keeps uploaded images in an S3 bucket. Public access to the
// bucket is configured outside the service.
type S3MediaStore struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// NewS3MediaStore builds an S3 client. Static credentials are used when an
// access key is given, otherwise the default AWS credential chain. A custom
// endpoint switches to path-style addressing for S3-compatible backends.
func NewS3MediaStore(ctx context.Context, region, endpoint, accessKey, secretKey, bucket, publicBase string) (*S3MediaStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	if publicBase == "" {
		publicBase = s3PublicBase(region, endpoint, bucket)
	}
	return &S3MediaStore{client: client, bucket: bucket, publicBase: publicBase}, nil
}

func s3PublicBase(region, endpoint, bucket string) string {
	if endpoint != "" {
		return joinURL(endpoint, bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
}

func (s *S3MediaStore) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (models.StoredObject, error) {
	key := objectKey(filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return models.StoredObject{}, fmt.Errorf("s3 put %s: %w", key, err)
	}
	return models.StoredObject{URL: joinURL(s.publicBase, key), PublicID: key}, nil
}

func (s *S3MediaStore) Remove(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", publicID, err)
	}
	return nil
}
