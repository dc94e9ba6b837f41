package index

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethpandaops/regressoor/pkg/baseline"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// defaultConcurrency is the number of baseline files indexed in
	// parallel when no explicit value is configured.
	defaultConcurrency = 4

	// defaultInterval is the default time between indexing passes.
	defaultInterval = 5 * time.Minute
)

// Indexer is a background service that periodically scans the baseline
// directory and upserts newly saved records into the index store.
type Indexer interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Indexer = (*indexer)(nil)

type indexer struct {
	log         logrus.FieldLogger
	store       Store
	baselines   baseline.Store
	interval    time.Duration
	concurrency int
	done        chan struct{}
	wg          sync.WaitGroup
	dbMu        sync.Mutex // serializes DB writes to avoid SQLite contention
}

// NewIndexer creates a new background indexer.
func NewIndexer(
	log logrus.FieldLogger,
	store Store,
	baselines baseline.Store,
	interval time.Duration,
	concurrency int,
) Indexer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	if interval <= 0 {
		interval = defaultInterval
	}

	return &indexer{
		log:         log.WithField("component", "indexer"),
		store:       store,
		baselines:   baselines,
		interval:    interval,
		concurrency: concurrency,
		done:        make(chan struct{}),
	}
}

// Start launches a background goroutine that runs an immediate indexing
// pass and then ticks at the configured interval.
func (idx *indexer) Start(ctx context.Context) error {
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
	close(idx.done)
	idx.wg.Wait()

	idx.log.Info("Indexer stopped")

	return nil
}

// runPass indexes every baseline file not yet present in the store.
// Records are immutable once saved, so already-indexed files are never
// re-read.
func (idx *indexer) runPass(ctx context.Context) {
	start := time.Now()

	records, err := idx.listRecords()
	if err != nil {
		idx.log.WithError(err).Warn("Indexing pass failed to scan baselines")

		return
	}

	indexedFiles, err := idx.store.ListIndexedFiles(ctx)
	if err != nil {
		idx.log.WithError(err).Warn("Indexing pass failed to list index")

		return
	}

	indexedSet := make(map[string]struct{}, len(indexedFiles))
	for _, f := range indexedFiles {
		indexedSet[f] = struct{}{}
	}

	var tasks []baseline.Record

	for _, rec := range records {
		if _, ok := indexedSet[rec.File]; !ok {
			tasks = append(tasks, rec)
		}
	}

	if len(tasks) == 0 {
		return
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)

	var indexed atomic.Int64

	for _, rec := range tasks {
		g.Go(func() error {
			if err := idx.indexRecord(gCtx, rec); err != nil {
				idx.log.WithError(err).WithField("file", rec.File).
					Warn("Failed to index baseline")

				return nil
			}

			indexed.Add(1)

			return nil
		})
	}

	_ = g.Wait()

	idx.log.WithFields(logrus.Fields{
		"indexed":  indexed.Load(),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Indexing pass completed")
}

// listRecords enumerates parseable baseline filenames without loading
// their contents; validation happens per-file in indexRecord.
func (idx *indexer) listRecords() ([]baseline.Record, error) {
	entries, err := os.ReadDir(idx.baselines.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	records := make([]baseline.Record, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		if rec, ok := baseline.ParseFilename(e.Name()); ok {
			records = append(records, rec)
		}
	}

	return records, nil
}

// indexRecord loads one validated baseline and upserts it with its
// per-benchmark means.
func (idx *indexer) indexRecord(ctx context.Context, rec baseline.Record) error {
	snap, err := idx.baselines.LoadValidated(rec.File)
	if err != nil {
		return err
	}

	means := make([]BenchmarkMean, 0, len(snap))
	for name, m := range snap {
		means = append(means, BenchmarkMean{
			File:      rec.File,
			Benchmark: name,
			MeanNs:    m.MeanNs,
			MedianNs:  m.MedianNs,
		})
	}

	idx.dbMu.Lock()
	defer idx.dbMu.Unlock()

	if err := idx.store.UpsertBaseline(ctx, &Baseline{
		File:           rec.File,
		Tag:            rec.Tag,
		CapturedAt:     rec.CapturedAt,
		BenchmarkCount: len(snap),
	}); err != nil {
		return err
	}

	return idx.store.ReplaceMeans(ctx, rec.File, means)
}
