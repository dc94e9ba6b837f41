// Package api serves read-only baseline, comparison and trend data over
// HTTP for dashboards and CI tooling.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethpandaops/regressoor/pkg/baseline"
	"github.com/ethpandaops/regressoor/pkg/config"
	"github.com/ethpandaops/regressoor/pkg/criterion"
	"github.com/ethpandaops/regressoor/pkg/index"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

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
	baselines  baseline.Store
	extractor  *criterion.Extractor
	indexStore index.Store
	indexer    index.Indexer
	rateLimits *rateLimiterMap
	httpServer *http.Server
}

// NewServer creates a new API server.
func NewServer(log logrus.FieldLogger, cfg *config.Config) Server {
	return &server{
		log:       log.WithField("component", "api"),
		cfg:       cfg,
		baselines: baseline.NewStore(log, cfg.Baseline.Dir, nil),
		extractor: criterion.NewExtractor(log, cfg.Criterion.ResultsDir),
	}
}

// Start initializes the index (when enabled) and starts the HTTP server.
func (s *server) Start(ctx context.Context) error {
	apiCfg := s.cfg.API
	if apiCfg == nil {
		return fmt.Errorf("api configuration is missing")
	}

	if apiCfg.Indexing != nil && apiCfg.Indexing.Enabled {
		if err := s.startIndexing(ctx, apiCfg); err != nil {
			return fmt.Errorf("starting indexing: %w", err)
		}
	}

	s.httpServer = &http.Server{
		Addr:              apiCfg.Server.Listen,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.WithField("listen", apiCfg.Server.Listen).
		Info("Starting API server")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server failed")
		}
	}()

	return nil
}

// startIndexing opens the index store and launches the background indexer.
func (s *server) startIndexing(ctx context.Context, apiCfg *config.APIConfig) error {
	s.indexStore = index.NewStore(s.log, &apiCfg.Database)
	if err := s.indexStore.Start(ctx); err != nil {
		return fmt.Errorf("starting index store: %w", err)
	}

	interval := time.Duration(0)

	if apiCfg.Indexing.Interval != "" {
		parsed, err := time.ParseDuration(apiCfg.Indexing.Interval)
		if err != nil {
			return fmt.Errorf("parsing indexing interval: %w", err)
		}

		interval = parsed
	}

	s.indexer = index.NewIndexer(
		s.log, s.indexStore, s.baselines, interval, apiCfg.Indexing.Concurrency,
	)

	return s.indexer.Start(ctx)
}

// Stop gracefully shuts down the HTTP server and the index.
func (s *server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
	}

	if s.rateLimits != nil {
		s.rateLimits.stop()
	}

	if s.indexer != nil {
		if err := s.indexer.Stop(); err != nil {
			return fmt.Errorf("stopping indexer: %w", err)
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
