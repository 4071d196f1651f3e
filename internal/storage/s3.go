// Package storage retrieves authorized voucher documents from S3. Each SRI
// environment has its own bucket; within a bucket, documents live under
// "{entityID}/authorized/{accessKey}.xml" where entityID is the RUC encoded
// in the access key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"sri-notifier/internal/config"
	"sri-notifier/internal/types"
)

// S3API defines the subset of the S3 client used by the DocumentStore.
// Extracted for testability: tests can provide a mock implementation.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// DocumentStore reads authorized documents from the per-environment buckets.
type DocumentStore struct {
	api              S3API
	testBucket       string
	productionBucket string
	logger           *slog.Logger
}

// NewDocumentStore creates a DocumentStore over the given S3 API and bucket
// configuration.
func NewDocumentStore(api S3API, cfg config.StorageConfig, logger *slog.Logger) *DocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentStore{
		api:              api,
		testBucket:       cfg.TestBucket,
		productionBucket: cfg.ProductionBucket,
		logger:           logger,
	}
}

// Bucket returns the bucket holding documents for the given environment.
func (s *DocumentStore) Bucket(env types.Environment) string {
	if env == types.EnvProduction {
		return s.productionBucket
	}
	return s.testBucket
}

// ObjectKey derives the storage location of an authorized document from its
// access key. The access key is validated in the process: an empty or
// wrong-length key fails with the corresponding validation code.
func ObjectKey(accessKey string) (string, error) {
	entityID, err := types.EntityID(accessKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/authorized/%s.xml", entityID, accessKey), nil
}

// Get retrieves the authorized document for the access key from the
// environment's bucket. A missing object, or an object with no content,
// fails with not_found_document.
func (s *DocumentStore) Get(ctx context.Context, env types.Environment, accessKey string) ([]byte, error) {
	key, err := ObjectKey(accessKey)
	if err != nil {
		return nil, err
	}
	bucket := s.Bucket(env)

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapGetError(err, bucket, key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeNotFoundDocument,
			fmt.Sprintf("reading s3://%s/%s failed", bucket, key), err)
	}
	if len(data) == 0 {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundDocument,
			fmt.Sprintf("empty object body for s3://%s/%s", bucket, key), nil,
			map[string]any{"bucket": bucket, "key": key})
	}

	s.logger.Debug("document retrieved",
		"bucket", bucket,
		"key", key,
		"size_bytes", len(data),
	)

	return data, nil
}

// mapGetError translates S3 errors into domain AppErrors. Absence of the
// object is the expected failure mode (the document may not have landed yet)
// and stays retryable; anything else is an unexpected internal error.
func mapGetError(err error, bucket, key string) error {
	var noSuchKey *s3types.NoSuchKey
	var noSuchBucket *s3types.NoSuchBucket
	if errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return types.NewAppErrorWithDetails(types.ErrCodeNotFoundDocument,
			fmt.Sprintf("document not found at s3://%s/%s", bucket, key), err,
			map[string]any{"bucket": bucket, "key": key})
	}
	return types.NewAppError(types.ErrCodeInternalUnexpected,
		fmt.Sprintf("S3 GetObject failed for s3://%s/%s", bucket, key), err)
}
