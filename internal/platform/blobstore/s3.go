package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config holds construction parameters for the S3 backend. Endpoint is
// optional and enables S3-compatible stores such as MinIO.
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string
	PathStyle bool
}

// S3BlobStore implements BlobStore against an S3-compatible backend. Objects
// are keyed by the assigned blob id; URLs are presigned GETs.
type S3BlobStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// presignExpiry bounds how long a generated document URL stays valid.
const presignExpiry = 15 * time.Minute

// NewS3BlobStore creates an S3 blob store using the default AWS credentials
// chain.
func NewS3BlobStore(ctx context.Context, cfg S3Config) (*S3BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "eu-west-2"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3BlobStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

func (s *S3BlobStore) Store(ctx context.Context, fileName, contentType string, content io.Reader) (*BlobMetadata, error) {
	id := uuid.New().String()

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	input := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &id,
		Body:   bytes.NewReader(data),
		Metadata: map[string]string{
			"file-name": fileName,
		},
	}
	if contentType != "" {
		input.ContentType = &contentType
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("put object %s: %w", id, err)
	}

	return &BlobMetadata{
		ID:          id,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (s *S3BlobStore) Open(ctx context.Context, id string) (io.ReadCloser, *BlobMetadata, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &id})
	if err != nil {
		return nil, nil, fmt.Errorf("get object %s: %w", id, err)
	}

	meta := &BlobMetadata{ID: id}
	if out.ContentLength != nil {
		meta.Size = *out.ContentLength
	}
	if out.ContentType != nil {
		meta.ContentType = *out.ContentType
	}
	if out.LastModified != nil {
		meta.CreatedAt = *out.LastModified
	}
	if name, ok := out.Metadata["file-name"]; ok {
		meta.FileName = name
	}

	return out.Body, meta, nil
}

func (s *S3BlobStore) URL(ctx context.Context, id string) (string, error) {
	out, err := s.presign.PresignGetObject(ctx,
		&s3.GetObjectInput{Bucket: &s.bucket, Key: &id},
		func(po *s3.PresignOptions) { po.Expires = presignExpiry })
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", id, err)
	}
	return out.URL, nil
}

func (s *S3BlobStore) Delete(ctx context.Context, id string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &id}); err != nil {
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}
