package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

// S3Config holds S3 connection settings.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// S3Storage stores entries as objects in a single S3 (or S3-compatible) bucket.
type S3Storage struct {
	client *s3.Client
	bucket string
}

// Ensure S3Storage implements StorageInterface
var _ StorageInterface = (*S3Storage)(nil)

// NewS3Storage creates a new S3 backend and makes sure the bucket exists.
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", ErrInitialization)
	}

	ctx := context.Background()
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %w", ErrInitialization, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		}
	})

	store := &S3Storage{client: client, bucket: cfg.Bucket}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	return store, nil
}

func (s *S3Storage) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		_, createErr := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(s.bucket),
		})
		if createErr != nil {
			return fmt.Errorf("bucket %s does not exist and cannot create: %w", s.bucket, createErr)
		}
		logrus.Infof("Created S3 bucket %s", s.bucket)
	}
	return nil
}

// Put uploads data in a single PutObject call, which S3 publishes atomically.
func (s *S3Storage) Put(name string, data []byte) (string, error) {
	if _, err := ValidateName(name); err != nil {
		return "", err
	}

	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put object %s: %w", ErrStorage, name, err)
	}

	logrus.Debugf("Stored %s in bucket %s", name, s.bucket)
	return name, nil
}

// List returns the top-level object keys of the bucket.
func (s *S3Storage) List() ([]string, error) {
	ctx := context.Background()

	names := make([]string, 0)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list objects: %w", ErrStorage, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || !listable(*obj.Key) {
				continue
			}
			names = append(names, *obj.Key)
		}
	}
	sort.Strings(names)

	return names, nil
}

// Get downloads an object.
func (s *S3Storage) Get(name string) ([]byte, error) {
	if _, err := ValidateName(name); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return nil, s.classify("get", name, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read object %s: %w", ErrStorage, name, err)
	}
	return data, nil
}

// Delete removes an object. S3 deletes are idempotent, so existence is
// checked first to report a missing entry.
func (s *S3Storage) Delete(name string) error {
	if _, err := ValidateName(name); err != nil {
		return err
	}

	ctx := context.Background()
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return s.classify("head", name, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return s.classify("delete", name, err)
	}

	logrus.Debugf("Deleted %s from bucket %s", name, s.bucket)
	return nil
}

func (s *S3Storage) classify(op, name string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return fmt.Errorf("%w: %s object %s: %w", ErrStorage, op, name, err)
}
