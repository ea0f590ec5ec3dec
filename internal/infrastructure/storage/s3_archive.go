// Package storage archives rendered warehouse documents in S3-compatible
// object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/document"
	"github.com/pharmawms/backend/internal/infrastructure/config"
)

var _ document.Archive = (*S3DocumentArchive)(nil)

// ErrKeyRequired is returned when an object key is empty
var ErrKeyRequired = errors.New("storage key is required")

// S3DocumentArchive stores rendered documents in a bucket and hands out
// presigned download URLs. Works against AWS S3, MinIO and RustFS.
type S3DocumentArchive struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	expires       time.Duration
	logger        *zap.Logger
}

// Option configures an S3DocumentArchive
type Option func(*S3DocumentArchive)

// WithLogger sets the archive logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *S3DocumentArchive) {
		a.logger = logger
	}
}

// NewS3DocumentArchive builds an archive from storage configuration
func NewS3DocumentArchive(cfg *config.StorageConfig, opts ...Option) (*S3DocumentArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	a := &S3DocumentArchive{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		expires:       cfg.PresignExpires,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.expires <= 0 {
		a.expires = 15 * time.Minute
	}
	return a, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (a *S3DocumentArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("creating document bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put uploads a rendered document
func (a *S3DocumentArchive) Put(ctx context.Context, key, contentType string, body []byte) error {
	if key == "" {
		return ErrKeyRequired
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload document %s: %w", key, err)
	}
	a.logger.Debug("document archived", zap.String("key", key), zap.Int("bytes", len(body)))
	return nil
}

// PresignedURL returns a time-limited GET URL for an archived document
func (a *S3DocumentArchive) PresignedURL(ctx context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrKeyRequired
	}
	req, err := a.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(a.expires))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, time.Now().Add(a.expires), nil
}

// Bucket returns the bucket name
func (a *S3DocumentArchive) Bucket() string {
	return a.bucket
}
