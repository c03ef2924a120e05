// Package indexer keeps the run catalog in sync with storage.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethpandaops/smbench/pkg/dataset"
	"github.com/ethpandaops/smbench/pkg/indexstore"
	"github.com/ethpandaops/smbench/pkg/vendor"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// defaultConcurrency is the number of runs indexed in parallel when
// no explicit concurrency value is configured.
const defaultConcurrency = 4

// Stats describes one indexing pass.
type Stats struct {
	StorageRuns int
	Indexed     int64
	Reindexed   int64
	Failed      int64
	Removed     int
}

// Indexer is a background service that periodically scans storage
// and upserts run summaries into the index store.
type Indexer interface {
	Start(ctx context.Context) error
	Stop() error

	// Sync performs one indexing pass synchronously.
	Sync(ctx context.Context) (Stats, error)
}

// Compile-time interface check.
var _ Indexer = (*indexer)(nil)

type indexer struct {
	log         logrus.FieldLogger
	store       indexstore.Store
	source      *dataset.Source
	resolver    *vendor.Resolver
	interval    time.Duration
	concurrency int
	done        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	dbMu        sync.Mutex // serializes DB writes to avoid SQLite contention
}

// NewIndexer creates a new background indexer.
func NewIndexer(
	log logrus.FieldLogger,
	store indexstore.Store,
	source *dataset.Source,
	resolver *vendor.Resolver,
	interval time.Duration,
	concurrency int,
) Indexer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &indexer{
		log:         log.WithField("component", "indexer"),
		store:       store,
		source:      source,
		resolver:    resolver,
		interval:    interval,
		concurrency: concurrency,
		done:        make(chan struct{}),
	}
}

// Start launches a background goroutine that runs an immediate indexing
// pass and then ticks at the configured interval.
func (idx *indexer) Start(ctx context.Context) error {
	if idx.interval <= 0 {
		return fmt.Errorf("indexing interval must be positive, got %s", idx.interval)
	}

	idx.log.WithFields(logrus.Fields{
		"interval":    idx.interval.String(),
		"concurrency": idx.concurrency,
	}).Info("Starting indexer")

	idx.wg.Add(1)

	go func() {
		defer idx.wg.Done()

		idx.runPass(ctx)

		ticker := time.NewTicker(idx.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				idx.runPass(ctx)
			case <-idx.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop signals the indexer goroutine to stop and waits for it.
func (idx *indexer) Stop() error {
	idx.stopOnce.Do(func() { close(idx.done) })
	idx.wg.Wait()

	idx.log.Info("Indexer stopped")

	return nil
}

func (idx *indexer) runPass(ctx context.Context) {
	start := time.Now()

	stats, err := idx.Sync(ctx)
	if err != nil {
		idx.log.WithError(err).Warn("Indexing pass failed")

		return
	}

	idx.log.WithFields(logrus.Fields{
		"storage_runs": stats.StorageRuns,
		"indexed":      stats.Indexed,
		"reindexed":    stats.Reindexed,
		"failed":       stats.Failed,
		"removed":      stats.Removed,
		"duration":     time.Since(start).Round(time.Millisecond),
	}).Info("Indexing pass completed")
}

// Sync discovers new runs, re-indexes runs that are still in progress and
// drops catalog entries whose document disappeared from storage.
func (idx *indexer) Sync(ctx context.Context) (Stats, error) {
	var stats Stats

	storageIDs, err := idx.source.RunIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing storage run IDs: %w", err)
	}

	stats.StorageRuns = len(storageIDs)

	indexedIDs, err := idx.store.ListRunIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing indexed run IDs: %w", err)
	}

	incompleteIDs, err := idx.store.ListIncompleteRunIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing incomplete run IDs: %w", err)
	}

	indexedSet := toSet(indexedIDs)
	incompleteSet := toSet(incompleteIDs)
	storageSet := toSet(storageIDs)

	type runTask struct {
		runID          string
		alreadyIndexed bool
	}

	tasks := make([]runTask, 0, len(storageIDs))

	for _, id := range storageIDs {
		_, alreadyIndexed := indexedSet[id]
		_, isIncomplete := incompleteSet[id]

		if alreadyIndexed && !isIncomplete {
			continue
		}

		tasks = append(tasks, runTask{runID: id, alreadyIndexed: alreadyIndexed})
	}

	stale := make([]string, 0)

	for _, id := range indexedIDs {
		if _, ok := storageSet[id]; !ok {
			stale = append(stale, id)
		}
	}

	if err := idx.store.DeleteRuns(ctx, stale); err != nil {
		return stats, fmt.Errorf("removing stale runs: %w", err)
	}

	stats.Removed = len(stale)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)

	var indexed, reindexed, failed atomic.Int64

	for _, task := range tasks {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			case <-idx.done:
				return nil
			default:
			}

			if err := idx.indexRun(gCtx, task.runID, task.alreadyIndexed); err != nil {
				idx.log.WithError(err).
					WithField("run_id", task.runID).
					Warn("Failed to index run")

				failed.Add(1)

				return nil //nolint:nilerr // log and continue
			}

			if task.alreadyIndexed {
				reindexed.Add(1)
			} else {
				indexed.Add(1)
			}

			return nil
		})
	}

	err = g.Wait()

	stats.Indexed = indexed.Load()
	stats.Reindexed = reindexed.Load()
	stats.Failed = failed.Load()

	if err != nil && !errors.Is(err, context.Canceled) {
		return stats, fmt.Errorf("indexing runs: %w", err)
	}

	return stats, nil
}

// indexRun loads one run document and upserts its summary.
func (idx *indexer) indexRun(ctx context.Context, runID string, isReindex bool) error {
	doc, err := idx.source.Run(ctx, runID)
	if err != nil {
		return fmt.Errorf("loading run: %w", err)
	}

	entry := BuildEntry(doc, idx.resolver)
	entry.RunID = runID

	now := time.Now().UTC()
	entry.IndexedAt = now

	if isReindex {
		entry.ReindexedAt = &now
	}

	idx.dbMu.Lock()
	defer idx.dbMu.Unlock()

	if err := idx.store.UpsertRun(ctx, entry); err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	return nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}
