package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethpandaops/smbench/pkg/config"
)

// Compile-time interface check.
var _ Reader = (*localReader)(nil)

type localReader struct {
	dir string
}

// NewLocalReader creates a Reader backed by a local directory.
func NewLocalReader(cfg *config.LocalStorageConfig) Reader {
	return &localReader{dir: cfg.Dir}
}

// GetRunsFile reads {dir}/runs.json.
func (r *localReader) GetRunsFile(_ context.Context) ([]byte, error) {
	return readFile(filepath.Join(r.dir, RunsFile))
}

// GetRunFile reads {dir}/runs/{runID}.json.
func (r *localReader) GetRunFile(_ context.Context, runID string) ([]byte, error) {
	if runID == "" || strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return nil, fmt.Errorf("invalid run id %q", runID)
	}

	return readFile(filepath.Join(r.dir, RunsDir, runID+".json"))
}

// ListRunIDs returns the base names of the JSON files under {dir}/runs/.
func (r *localReader) ListRunIDs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.dir, RunsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading runs directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}

		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}

	sort.Strings(ids)

	return ids, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return data, nil
}
