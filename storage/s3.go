package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/datazip-inc/deltalake/constants"
	"github.com/datazip-inc/deltalake/utils/backoff"
	"github.com/datazip-inc/deltalake/utils/logger"
)

// S3API is the subset of the S3 client the store calls.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store serves objects from a bucket. Paths are keys relative to PathPrefix.
type S3Store struct {
	client S3API
	config *S3Config
}

var _ ObjectStore = (*S3Store)(nil)

// NewS3Store loads AWS configuration and connects to the bucket.
func NewS3Store(ctx context.Context, cfg *S3Config) (*S3Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate s3 config: %s", err)
	}

	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	// static credentials when given, otherwise the default chain (IAM role, env vars, shared config)
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		logger.Info("Using static credentials for S3 authentication")
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	} else {
		logger.Info("Using default credential chain for S3 authentication")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %s", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		logger.Infof("Connecting to S3-compatible endpoint: %s", cfg.Endpoint)
		client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO and some S3-compatible services
		})
	} else {
		logger.Infof("Connecting to AWS S3 in region: %s", cfg.Region)
		client = s3.NewFromConfig(awsConfig)
	}

	return NewS3StoreWithClient(client, cfg), nil
}

// NewS3StoreWithClient wraps an existing client. cfg must already be validated.
func NewS3StoreWithClient(client S3API, cfg *S3Config) *S3Store {
	return &S3Store{client: client, config: cfg}
}

func (s *S3Store) key(filePath string) string {
	filePath = strings.TrimPrefix(filePath, "/")
	if s.config.PathPrefix == "" {
		return filePath
	}
	return path.Join(s.config.PathPrefix, filePath)
}

func (s *S3Store) retry(ctx context.Context, operation string, f func() error) error {
	return backoff.Retry(ctx, s.config.RetryCount, constants.DefaultRetrySleep, f, func(err error) bool {
		if ctx.Err() != nil || isNotFound(err) {
			return false
		}
		logger.Warnf("S3 %s failed, retrying: %s", operation, err)
		return true
	})
}

func (s *S3Store) Exists(ctx context.Context, filePath string) (bool, error) {
	key := s.key(filePath)
	err := s.retry(ctx, "head", func() error {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.config.BucketName),
			Key:    aws.String(key),
		})
		return err
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to head object %s: %w", key, err)
	}
	return true, nil
}

func (s *S3Store) List(ctx context.Context, dir, suffix string) ([]string, error) {
	prefix := s.key(dir) + "/"
	var files []string
	var continuationToken *string

	for {
		var result *s3.ListObjectsV2Output
		err := s.retry(ctx, "list", func() error {
			var err error
			result, err = s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(s.config.BucketName),
				Prefix:            aws.String(prefix),
				Delimiter:         aws.String("/"),
				ContinuationToken: continuationToken,
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}

		for _, obj := range result.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.Contains(name, "/") || !strings.HasSuffix(name, suffix) {
				continue
			}
			files = append(files, path.Join(dir, name))
		}

		if !aws.ToBool(result.IsTruncated) {
			break
		}
		continuationToken = result.NextContinuationToken
	}

	sort.Strings(files)
	return files, nil
}

func (s *S3Store) Open(ctx context.Context, filePath string) (io.ReadCloser, error) {
	key := s.key(filePath)
	var result *s3.GetObjectOutput
	err := s.retry(ctx, "get", func() error {
		var err error
		result, err = s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.config.BucketName),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return result.Body, nil
}

// OpenReaderAt uses ranged GETs when streaming is enabled, otherwise it loads
// the object into memory.
func (s *S3Store) OpenReaderAt(ctx context.Context, filePath string) (ReaderAt, error) {
	key := s.key(filePath)

	if s.config.StreamingEnabled != nil && *s.config.StreamingEnabled {
		var head *s3.HeadObjectOutput
		err := s.retry(ctx, "head", func() error {
			var err error
			head, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.config.BucketName),
				Key:    aws.String(key),
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to head object %s: %w", key, err)
		}
		size := aws.ToInt64(head.ContentLength)
		if size > 0 {
			logger.Debugf("Using S3 range requests for %s", key)
			return NewS3RangeReader(ctx, s.client, s.config.BucketName, key, size), nil
		}
	}

	logger.Debugf("Loading %s into memory", key)
	body, err := s.Open(ctx, filePath)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return &bytesReaderAt{Reader: bytes.NewReader(data)}, nil
}

type bytesReaderAt struct {
	*bytes.Reader
}

func (b *bytesReaderAt) Close() error {
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
