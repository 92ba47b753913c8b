package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// S3Adapter keeps the text library and the synthesized-audio cache in
// an S3-compatible bucket. Library documents are small JSON objects and
// cached audio rarely exceeds a few hundred kilobytes, so every
// operation works on whole objects.
type S3Adapter struct {
	client *s3.Client
	bucket string
}

// NewS3Adapter connects to the bucket described by the storage
// configuration. Static credentials take precedence; without them the
// default AWS credential chain applies. A custom endpoint switches the
// client to path-style addressing for MinIO-style services.
func NewS3Adapter(opts types.S3StorageOpts) (*S3Adapter, error) {
	ctx := context.Background()

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Adapter{
		client: s3.NewFromConfig(cfg, clientOpts...),
		bucket: opts.Bucket,
	}, nil
}

// Put uploads one object. The reader is drained into memory first;
// nothing this backend stores justifies a multipart upload.
func (s *S3Adapter) Put(ctx context.Context, path string, data io.Reader) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read data for %s: %w", path, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
		Body:   bytes.NewReader(buf),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", path, err)
	}
	return nil
}

// Get opens one object for reading. The caller owns the returned body.
func (s *S3Adapter) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}
	return result.Body, nil
}

// Delete removes one object. Deleting a missing key succeeds, matching
// the local adapter.
func (s *S3Adapter) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// Exists reports whether an object is stored under the key. The audio
// cache probes with this before every synthesis.
func (s *S3Adapter) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check %s: %w", path, err)
	}
	return true, nil
}

// List returns every key under the prefix, following the paginator
// until the listing is exhausted. The library uses this to discover
// texts under its prefix.
func (s *S3Adapter) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				paths = append(paths, *obj.Key)
			}
		}
	}

	return paths, nil
}

// Close is a no-op; the S3 client holds no connections worth tearing
// down explicitly
func (s *S3Adapter) Close() error {
	return nil
}
