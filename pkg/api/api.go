// Package api serves the results viewer: the HTML pages, their JSON view
// models and the compare session endpoints.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/smbench/pkg/config"
	"github.com/ethpandaops/smbench/pkg/dataset"
	"github.com/ethpandaops/smbench/pkg/indexer"
	"github.com/ethpandaops/smbench/pkg/indexstore"
	"github.com/ethpandaops/smbench/pkg/render"
	"github.com/ethpandaops/smbench/pkg/vendor"
)

const (
	shutdownTimeout        = 10 * time.Second
	sessionCleanupInterval = time.Minute
)

// Server exposes the API HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log        logrus.FieldLogger
	cfg        *config.Config
	source     *dataset.Source
	resolver   *vendor.Resolver
	renderer   *render.Renderer
	sessions   *sessionRegistry
	dataServer *localFileServer
	logoServer *localFileServer
	presigner  *s3Presigner
	indexStore indexstore.Store
	indexer    indexer.Indexer
	httpServer *http.Server
	wg         sync.WaitGroup
	done       chan struct{}
	stopOnce   sync.Once
}

// NewServer creates a new API server reading documents from source.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.Config,
	source *dataset.Source,
	resolver *vendor.Resolver,
) Server {
	return &server{
		log:      log.WithField("component", "api"),
		cfg:      cfg,
		source:   source,
		resolver: resolver,
		done:     make(chan struct{}),
	}
}

// Start prepares the renderer and optional services, then starts the HTTP
// server and the background loops.
func (s *server) Start(ctx context.Context) error {
	if err := s.prepare(ctx); err != nil {
		return err
	}

	router := s.buildRouter()

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Expire idle compare sessions.
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := s.sessions.Sweep(); n > 0 {
					s.log.WithField("expired", n).Debug("Expired compare sessions")
				}
			case <-s.done:
				return
			}
		}
	}()

	// Bind the listener synchronously so we fail fast on port conflicts.
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Listen, err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithField("listen", s.cfg.Server.Listen).
			Info("API server starting")

		if err := s.httpServer.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	// The first indexing pass may be slow; start it once the server is
	// reachable.
	if s.indexer != nil {
		if err := s.indexer.Start(ctx); err != nil {
			return fmt.Errorf("starting indexer: %w", err)
		}
	}

	return nil
}

// Stop gracefully shuts down the HTTP server and the background services.
func (s *server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
	})

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	if s.sessions != nil {
		s.sessions.CloseAll()
	}

	if s.indexer != nil {
		if err := s.indexer.Stop(); err != nil {
			s.log.WithError(err).Warn("Indexer stop error")
		}
	}

	if s.indexStore != nil {
		if err := s.indexStore.Stop(); err != nil {
			return fmt.Errorf("stopping index store: %w", err)
		}
	}

	s.log.Info("API server stopped")

	return nil
}

// prepare builds everything the router needs. The indexer is created but
// not started.
func (s *server) prepare(ctx context.Context) error {
	renderer, err := render.New(render.Site{
		Title:    s.cfg.Site.Title,
		BasePath: s.cfg.Site.BasePath,
	})
	if err != nil {
		return fmt.Errorf("building renderer: %w", err)
	}

	s.renderer = renderer
	s.sessions = newSessionRegistry(s.cfg.Compare.SessionTTL, s.cfg.Compare.MaxSessions)

	switch {
	case s.cfg.Storage.S3.Enabled:
		presigner, err := newS3Presigner(s.log, &s.cfg.Storage.S3)
		if err != nil {
			return fmt.Errorf("initializing s3 presigner: %w", err)
		}

		s.presigner = presigner

		s.log.Info("S3 presigned document downloads enabled")
	case s.cfg.Storage.Local.Enabled:
		s.dataServer = newLocalFileServer(s.log, "data", s.cfg.Storage.Local.Dir)
	}

	if s.cfg.Server.LogosDir != "" {
		s.logoServer = newLocalFileServer(s.log, "logos", s.cfg.Server.LogosDir)

		s.log.WithField("dir", s.cfg.Server.LogosDir).Info("Serving vendor logos")
	}

	if s.cfg.Indexing.Enabled {
		if err := s.prepareIndexing(ctx); err != nil {
			return fmt.Errorf("preparing indexing: %w", err)
		}
	}

	return nil
}

// prepareIndexing opens the index store and creates the indexer without
// starting its background goroutine.
func (s *server) prepareIndexing(ctx context.Context) error {
	s.indexStore = indexstore.NewStore(s.log, &s.cfg.Indexing.Database)

	if err := s.indexStore.Start(ctx); err != nil {
		return fmt.Errorf("starting index store: %w", err)
	}

	s.indexer = indexer.NewIndexer(
		s.log,
		s.indexStore,
		s.source,
		s.resolver,
		s.cfg.Indexing.Interval,
		s.cfg.Indexing.Concurrency,
	)

	s.log.Info("Indexing service enabled")

	return nil
}
