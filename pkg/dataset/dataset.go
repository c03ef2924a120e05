// Package dataset loads the page documents from storage, validating and
// normalizing them before they reach the view layer.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/ethpandaops/smbench/pkg/model"
	"github.com/ethpandaops/smbench/pkg/storage"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrInvalidRunID is returned for run ids outside [A-Za-z0-9._-].
var ErrInvalidRunID = errors.New("invalid run id")

var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidRunID reports whether id may be used to address a run document.
func ValidRunID(id string) bool {
	return runIDPattern.MatchString(id) && id != "." && id != ".."
}

// Source reads documents through a storage.Reader. Every call performs a
// fresh read; nothing is cached.
type Source struct {
	log    logrus.FieldLogger
	reader storage.Reader
}

// NewSource creates a Source over reader.
func NewSource(log logrus.FieldLogger, reader storage.Reader) *Source {
	return &Source{
		log:    log.WithField("component", "dataset"),
		reader: reader,
	}
}

// Reader returns the underlying storage reader.
func (s *Source) Reader() storage.Reader {
	return s.reader
}

// Leaderboard loads the runs list for the leaderboard page.
func (s *Source) Leaderboard(ctx context.Context) (*model.LeaderboardDocument, error) {
	data, err := s.runsFile(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := model.DecodeLeaderboard(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", storage.RunsFile, err)
	}

	return doc, nil
}

// Compare loads the runs list and category table for the compare page.
func (s *Source) Compare(ctx context.Context) (*model.CompareDocument, error) {
	data, err := s.runsFile(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := model.DecodeCompare(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", storage.RunsFile, err)
	}

	return doc, nil
}

// Run loads the detail document of one run.
func (s *Source) Run(ctx context.Context, id string) (*model.RunDocument, error) {
	if !ValidRunID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRunID, id)
	}

	data, err := s.reader.GetRunFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading run %q: %w", id, err)
	}

	if data == nil {
		return nil, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}

	doc, err := model.DecodeRun(data)
	if err != nil {
		s.log.WithError(err).WithField("run_id", id).Warn("Invalid run document")

		return nil, fmt.Errorf("decoding run %q: %w", id, err)
	}

	return doc, nil
}

// RunIDs lists the ids of every stored run document that passes
// ValidRunID.
func (s *Source) RunIDs(ctx context.Context) ([]string, error) {
	ids, err := s.reader.ListRunIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	valid := make([]string, 0, len(ids))

	for _, id := range ids {
		if !ValidRunID(id) {
			s.log.WithField("run_id", id).Debug("Skipping run with invalid id")

			continue
		}

		valid = append(valid, id)
	}

	return valid, nil
}

func (s *Source) runsFile(ctx context.Context) ([]byte, error) {
	data, err := s.reader.GetRunsFile(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", storage.RunsFile, err)
	}

	if data == nil {
		return nil, fmt.Errorf("%s: %w", storage.RunsFile, ErrNotFound)
	}

	return data, nil
}
