package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ethpandaops/smbench/pkg/config"
)

// Compile-time interface check.
var _ Reader = (*s3Reader)(nil)

type s3Reader struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Reader creates a Reader backed by S3-compatible storage.
func NewS3Reader(cfg *config.S3StorageConfig) Reader {
	return &s3Reader{
		client: NewS3Client(cfg),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}
}

func (r *s3Reader) key(parts ...string) string {
	return ObjectKey(r.prefix, parts...)
}

// ObjectKey joins parts below an optional bucket prefix.
func ObjectKey(prefix string, parts ...string) string {
	if prefix == "" {
		return path.Join(parts...)
	}

	return path.Join(append([]string{prefix}, parts...)...)
}

// GetRunsFile reads {prefix}/runs.json.
func (r *s3Reader) GetRunsFile(ctx context.Context) ([]byte, error) {
	return r.getObject(ctx, r.key(RunsFile))
}

// GetRunFile reads {prefix}/runs/{runID}.json.
func (r *s3Reader) GetRunFile(ctx context.Context, runID string) ([]byte, error) {
	if runID == "" || strings.Contains(runID, "/") {
		return nil, fmt.Errorf("invalid run id %q", runID)
	}

	return r.getObject(ctx, r.key(RunsDir, runID+".json"))
}

// ListRunIDs lists the JSON objects directly under {prefix}/runs/.
func (r *s3Reader) ListRunIDs(ctx context.Context) ([]string, error) {
	prefix := r.key(RunsDir) + "/"

	paginator := s3.NewListObjectsV2Paginator(
		r.client, &s3.ListObjectsV2Input{
			Bucket:    aws.String(r.bucket),
			Prefix:    aws.String(prefix),
			Delimiter: aws.String("/"),
		},
	)

	var ids []string

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing runs under %q: %w", prefix, err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil || !strings.HasSuffix(*obj.Key, ".json") {
				continue
			}

			ids = append(ids, strings.TrimSuffix(path.Base(*obj.Key), ".json"))
		}
	}

	sort.Strings(ids)

	return ids, nil
}

func (r *s3Reader) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting object %q: %w", key, err)
	}

	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object %q: %w", key, err)
	}

	return data, nil
}

func isS3NotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	return strings.Contains(err.Error(), "NoSuchKey")
}

// NewS3Client builds an S3 client from the storage config.
func NewS3Client(cfg *config.S3StorageConfig) *s3.Client {
	return s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		if o.Region == "" {
			o.Region = config.DefaultS3Region
		}

		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}

		o.UsePathStyle = cfg.ForcePathStyle

		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, "",
			)
		}
	})
}
