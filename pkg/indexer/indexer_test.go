package indexer_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/smbench/pkg/config"
	"github.com/ethpandaops/smbench/pkg/dataset"
	"github.com/ethpandaops/smbench/pkg/indexer"
	"github.com/ethpandaops/smbench/pkg/indexstore"
	"github.com/ethpandaops/smbench/pkg/storage"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

func writeRun(t *testing.T, dir, id, status string, verdict string) {
	t.Helper()

	doc := `{
  "run": {"id": "` + id + `", "model_identifier": "openai/gpt-4o", "final_score": 50, "status": "` + status + `"},
  "totalTests": 2,
  "results": [
    {"test_case": {"id": 1, "category": {"name": "Overfit"}}, "model_response": "ok", "pass_fail": ` + verdict + `}
  ]
}`

	require.NoError(t, os.WriteFile(filepath.Join(dir, "runs", id+".json"), []byte(doc), 0o644))
}

type fixture struct {
	dir   string
	store indexstore.Store
	idx   indexer.Indexer
}

func setup(t *testing.T) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "runs"), 0o755))

	store := indexstore.NewStore(log, &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, store.Start(context.Background()))
	t.Cleanup(func() { _ = store.Stop() })

	source := dataset.NewSource(log, storage.NewLocalReader(&config.LocalStorageConfig{
		Enabled: true,
		Dir:     dir,
	}))

	return &fixture{
		dir:   dir,
		store: store,
		idx:   indexer.NewIndexer(log, store, source, vendor.Default(), time.Hour, 2),
	}
}

func TestIndexer_Sync(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	writeRun(t, f.dir, "done", "completed", `"pass"`)
	writeRun(t, f.dir, "live", "running", `null`)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "runs", "broken.json"), []byte(`{}`), 0o644))

	stats, err := f.idx.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.StorageRuns)
	assert.Equal(t, int64(2), stats.Indexed)
	assert.Equal(t, int64(1), stats.Failed)

	done, err := f.store.GetRun(ctx, "done")
	require.NoError(t, err)
	require.NotNil(t, done)
	assert.Equal(t, "completed", done.Status)
	assert.Equal(t, "OpenAI", done.Vendor)
	assert.Equal(t, 1, done.Passed)
	assert.Equal(t, 1, done.Pending())
	assert.Nil(t, done.ReindexedAt)

	// Only the running run is picked up again.
	writeRun(t, f.dir, "live", "completed", `"fail"`)

	stats, err = f.idx.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Indexed)
	assert.Equal(t, int64(1), stats.Reindexed)

	live, err := f.store.GetRun(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "completed", live.Status)
	assert.Equal(t, 1, live.Failed)
	assert.NotNil(t, live.ReindexedAt)

	// Terminal runs are not re-read.
	stats, err = f.idx.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Reindexed)
}

func TestIndexer_RemovesDeletedRuns(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	writeRun(t, f.dir, "a", "completed", `"pass"`)
	writeRun(t, f.dir, "b", "completed", `"pass"`)

	_, err := f.idx.Sync(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(f.dir, "runs", "a.json")))

	stats, err := f.idx.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)

	ids, err := f.store.ListRunIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestIndexer_StartStop(t *testing.T) {
	f := setup(t)
	writeRun(t, f.dir, "a", "completed", `"pass"`)

	require.NoError(t, f.idx.Start(context.Background()))

	assert.Eventually(t, func() bool {
		entry, err := f.store.GetRun(context.Background(), "a")

		return err == nil && entry != nil
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, f.idx.Stop())
	require.NoError(t, f.idx.Stop(), "stop is idempotent")
}

func TestBuildEntry(t *testing.T) {
	ctx := context.Background()

	log := logrus.New()
	log.SetOutput(io.Discard)

	src := dataset.NewSource(log, storage.NewLocalReader(&config.LocalStorageConfig{
		Enabled: true,
		Dir:     "../dataset/testdata",
	}))

	doc, err := src.Run(ctx, "run-gpt")
	require.NoError(t, err)

	entry := indexer.BuildEntry(doc, vendor.Default())
	assert.Equal(t, "run-gpt", entry.RunID)
	assert.Equal(t, "OpenAI", entry.Vendor)
	assert.Equal(t, "1.2", entry.Version)
	assert.Equal(t, "All categories", entry.Scope)
	assert.Equal(t, 4, entry.TotalTests)
	assert.Equal(t, 3, entry.JudgedTests)
	assert.Equal(t, 1, entry.Passed)
	assert.Equal(t, 1, entry.Partial)
	assert.Equal(t, 1, entry.Failed)
	assert.Equal(t, int64(15400), entry.TotalTokens)
	assert.InDelta(t, 82.5, entry.Score, 1e-9)
}
