package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"vulnsphere/internal/config"
	"vulnsphere/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 implements ObjectStorage on an S3 compatible bucket.
type S3 struct {
	client  *s3.Client
	bucket  string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewS3(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger, m *metrics.Metrics) (*S3, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.S3.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
	})

	s := &S3{
		client:  client,
		bucket:  cfg.S3.Bucket,
		logger:  logger.With("component", "s3_storage"),
		metrics: m,
	}

	hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := client.HeadBucket(hctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return nil, fmt.Errorf("failed to verify bucket %s: %w", s.bucket, err)
	}

	logger.Info("S3 storage initialized", "bucket", cfg.S3.Bucket, "region", cfg.S3.Region)
	return s, nil
}

func buildAWSConfig(ctx context.Context, cfg config.StorageConfig) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error

	if cfg.S3.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.S3.Region))
	}
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
		))
	}
	if cfg.S3.MaxRetries > 0 {
		optFns = append(optFns, awsconfig.WithRetryMaxAttempts(cfg.S3.MaxRetries))
	}
	optFns = append(optFns, awsconfig.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))

	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

// Put buffers the body so the request carries a content length. S3 PUTs are atomic.
func (s *S3) Put(ctx context.Context, key string, r io.Reader, meta ObjectMetadata) (err error) {
	defer func() { s.metrics.StorageOp("s3", "put", err) }()

	buf := &bytes.Buffer{}
	n, err := io.Copy(buf, r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(n),
	}
	if meta.ContentType != "" {
		input.ContentType = aws.String(meta.ContentType)
	}

	if _, err = s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("failed to put object", "error", err, "key", key)
		return fmt.Errorf("failed to put object: %w", err)
	}

	s.logger.Info("object stored", "key", key, "size_bytes", n)
	return nil
}

func (s *S3) Get(ctx context.Context, key string) (rc io.ReadCloser, err error) {
	defer func() { s.metrics.StorageOp("s3", "get", err) }()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

func (s *S3) Delete(ctx context.Context, key string) (err error) {
	defer func() { s.metrics.StorageOp("s3", "delete", err) }()

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

func isNotFoundError(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
