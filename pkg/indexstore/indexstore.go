// Package indexstore persists the run catalog built by the indexer.
package indexstore

import (
	"context"
	"fmt"

	"github.com/ethpandaops/smbench/pkg/config"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ListFilter narrows ListRuns. Zero values match everything.
type ListFilter struct {
	Status string
	Vendor string
}

// Store provides persistence for the run catalog.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	UpsertRun(ctx context.Context, run *RunEntry) error
	GetRun(ctx context.Context, runID string) (*RunEntry, error)
	ListRuns(ctx context.Context, filter ListFilter) ([]RunEntry, error)
	ListRunIDs(ctx context.Context) ([]string, error)
	ListIncompleteRunIDs(ctx context.Context) ([]string, error)
	DeleteRuns(ctx context.Context, runIDs []string) error
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new index Store backed by the configured database driver.
func NewStore(log logrus.FieldLogger, cfg *config.DatabaseConfig) Store {
	return &store{
		log: log.WithField("component", "indexstore"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dialector = postgres.Open(s.cfg.Postgres.DSN())
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}

	s.db = db

	if s.cfg.Driver == "sqlite" {
		// Every pooled connection to ":memory:" is a separate database.
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("getting underlying db: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	if err := s.db.WithContext(ctx).AutoMigrate(&RunEntry{}); err != nil {
		return fmt.Errorf("running index migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).Info("Index database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// UpsertRun inserts a run or replaces every column of the row with the
// same run_id.
func (s *store) UpsertRun(ctx context.Context, run *RunEntry) error {
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}},
			UpdateAll: true,
		}).
		Create(run).Error; err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	return nil
}

// GetRun returns the entry for runID, or (nil, nil) when absent.
func (s *store) GetRun(ctx context.Context, runID string) (*RunEntry, error) {
	var runs []RunEntry
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Limit(1).
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}

	if len(runs) == 0 {
		return nil, nil
	}

	return &runs[0], nil
}

// ListRuns returns matching runs ordered by score, best first.
func (s *store) ListRuns(ctx context.Context, filter ListFilter) ([]RunEntry, error) {
	q := s.db.WithContext(ctx)

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if filter.Vendor != "" {
		q = q.Where("vendor = ?", filter.Vendor)
	}

	runs := make([]RunEntry, 0, 16)
	if err := q.Order("score DESC").Order("run_id ASC").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	return runs, nil
}

// ListRunIDs returns the ids of every indexed run.
func (s *store) ListRunIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&RunEntry{}).
		Pluck("run_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing run ids: %w", err)
	}

	return ids, nil
}

// terminalStatuses are run statuses that will not change.
var terminalStatuses = []string{"completed", "cancelled", "failed"}

// ListIncompleteRunIDs returns ids of runs that may still change.
func (s *store) ListIncompleteRunIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&RunEntry{}).
		Where("status NOT IN ?", terminalStatuses).
		Pluck("run_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing incomplete run ids: %w", err)
	}

	return ids, nil
}

// DeleteRuns removes the entries of runIDs.
func (s *store) DeleteRuns(ctx context.Context, runIDs []string) error {
	if len(runIDs) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).
		Where("run_id IN ?", runIDs).
		Delete(&RunEntry{}).Error; err != nil {
		return fmt.Errorf("deleting runs: %w", err)
	}

	return nil
}
