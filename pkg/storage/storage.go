// Package storage reads published benchmark documents from a backend
// (local filesystem or S3) without exposing the backend's layout.
package storage

import (
	"context"
	"fmt"

	"github.com/ethpandaops/smbench/pkg/config"
)

// Document file names.
const (
	RunsFile = "runs.json"
	RunsDir  = "runs"
)

// Reader provides read access to the run documents. Backends lay them out
// as {root}/runs.json and {root}/runs/{id}.json.
type Reader interface {
	// GetRunsFile reads the runs list shared by the leaderboard and
	// compare pages. Returns (nil, nil) when the file does not exist.
	GetRunsFile(ctx context.Context) ([]byte, error)

	// GetRunFile reads the detail document of one run.
	// Returns (nil, nil) when the file does not exist.
	GetRunFile(ctx context.Context, runID string) ([]byte, error)

	// ListRunIDs returns the ids of every run detail document.
	ListRunIDs(ctx context.Context) ([]string, error)
}

// NewReader builds the Reader selected by cfg.
func NewReader(cfg *config.StorageConfig) (Reader, error) {
	switch {
	case cfg.S3.Enabled:
		return NewS3Reader(&cfg.S3), nil
	case cfg.Local.Enabled:
		return NewLocalReader(&cfg.Local), nil
	default:
		return nil, fmt.Errorf("no storage backend enabled")
	}
}
