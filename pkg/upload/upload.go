// Package upload publishes an exported static site to remote storage.
package upload

import "context"

// Uploader uploads a local site directory to remote storage.
type Uploader interface {
	// Preflight verifies that the remote storage is reachable and writable.
	Preflight(ctx context.Context) error

	// Upload uploads every file under localDir, keyed by its path relative
	// to localDir below the configured prefix. It returns the number of
	// files uploaded.
	Upload(ctx context.Context, localDir string) (int, error)
}
