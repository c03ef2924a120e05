package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/smbench/pkg/config"
	"github.com/ethpandaops/smbench/pkg/storage"
)

// presignCacheEntry holds a cached presigned URL and its expiration time.
type presignCacheEntry struct {
	url       string
	expiresAt time.Time
}

// s3Presigner generates presigned GET URLs for the stored documents.
type s3Presigner struct {
	log           logrus.FieldLogger
	bucket        string
	prefix        string
	presignClient *s3.PresignClient
	expiry        time.Duration
	cacheTTL      time.Duration
	mu            sync.RWMutex
	cache         map[string]presignCacheEntry
}

// newS3Presigner creates a presigner for the configured bucket.
func newS3Presigner(
	log logrus.FieldLogger,
	cfg *config.S3StorageConfig,
) (*s3Presigner, error) {
	if cfg.PresignExpiry <= 0 {
		return nil, fmt.Errorf("storage.s3.presign_expiry must be positive")
	}

	return &s3Presigner{
		log:           log.WithField("component", "s3-presigner"),
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		presignClient: s3.NewPresignClient(storage.NewS3Client(cfg)),
		expiry:        cfg.PresignExpiry,
		cacheTTL:      cfg.PresignExpiry / 2,
		cache:         make(map[string]presignCacheEntry),
	}, nil
}

// GeneratePresignedURL returns a presigned GET URL for a document path
// such as "runs/<id>.json". Results are cached for half the expiry so a
// returned URL always has time left.
func (p *s3Presigner) GeneratePresignedURL(
	ctx context.Context,
	filePath string,
) (string, error) {
	if !isDocumentPath(filePath) {
		return "", fmt.Errorf("path %q is not a document", filePath)
	}

	key := storage.ObjectKey(p.prefix, filePath)
	now := time.Now()

	// Fast path: check cache under read lock.
	p.mu.RLock()
	if entry, ok := p.cache[key]; ok && now.Before(entry.expiresAt) {
		p.mu.RUnlock()

		return entry.url, nil
	}
	p.mu.RUnlock()

	// Slow path: acquire write lock and double-check.
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.cache[key]; ok && now.Before(entry.expiresAt) {
		return entry.url, nil
	}

	result, err := p.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.expiry))
	if err != nil {
		return "", fmt.Errorf("presigning URL for %q: %w", key, err)
	}

	p.cache[key] = presignCacheEntry{
		url:       result.URL,
		expiresAt: now.Add(p.cacheTTL),
	}

	return result.URL, nil
}
