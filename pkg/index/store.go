// Package index maintains a queryable database index of saved baseline
// records so the API and list command do not have to rescan and reparse
// the baseline directory on every request.
package index

import (
	"context"
	"fmt"

	"github.com/ethpandaops/regressoor/pkg/config"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store provides persistence for the indexed baseline data.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	UpsertBaseline(ctx context.Context, b *Baseline) error
	ListBaselines(ctx context.Context) ([]Baseline, error)
	ListIndexedFiles(ctx context.Context) ([]string, error)

	ReplaceMeans(ctx context.Context, file string, means []BenchmarkMean) error
	ListMeans(ctx context.Context, benchmark string) ([]BenchmarkMean, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.APIDatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new index Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.APIDatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "index"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(
		&Baseline{},
		&BenchmarkMean{},
	); err != nil {
		return fmt.Errorf("running index migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).
		Info("Index database connected")

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

// UpsertBaseline inserts or updates a baseline record keyed by file name.
func (s *store) UpsertBaseline(ctx context.Context, b *Baseline) error {
	result := s.db.WithContext(ctx).
		Where("file = ?", b.File).
		Assign(b).
		FirstOrCreate(b)
	if result.Error != nil {
		return fmt.Errorf("upserting baseline: %w", result.Error)
	}

	return nil
}

// ListBaselines returns all indexed baselines ordered by capture time.
func (s *store) ListBaselines(ctx context.Context) ([]Baseline, error) {
	var baselines []Baseline

	result := s.db.WithContext(ctx).
		Order("captured_at ASC").
		Find(&baselines)
	if result.Error != nil {
		return nil, fmt.Errorf("listing baselines: %w", result.Error)
	}

	return baselines, nil
}

// ListIndexedFiles returns the file names of all indexed baselines.
func (s *store) ListIndexedFiles(ctx context.Context) ([]string, error) {
	var files []string

	result := s.db.WithContext(ctx).
		Model(&Baseline{}).
		Order("captured_at ASC").
		Pluck("file", &files)
	if result.Error != nil {
		return nil, fmt.Errorf("listing indexed files: %w", result.Error)
	}

	return files, nil
}

// ReplaceMeans replaces the per-benchmark rows for one baseline file.
func (s *store) ReplaceMeans(
	ctx context.Context, file string, means []BenchmarkMean,
) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file = ?", file).
			Delete(&BenchmarkMean{}).Error; err != nil {
			return fmt.Errorf("deleting stale means: %w", err)
		}

		if len(means) == 0 {
			return nil
		}

		if err := tx.CreateInBatches(means, 200).Error; err != nil {
			return fmt.Errorf("inserting means: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("replacing means for %s: %w", file, err)
	}

	return nil
}

// ListMeans returns one benchmark's indexed means across all baselines,
// ordered by the owning baseline's capture time.
func (s *store) ListMeans(
	ctx context.Context, benchmark string,
) ([]BenchmarkMean, error) {
	var means []BenchmarkMean

	result := s.db.WithContext(ctx).
		Joins("JOIN baselines ON baselines.file = benchmark_means.file").
		Where("benchmark_means.benchmark = ?", benchmark).
		Order("baselines.captured_at ASC").
		Find(&means)
	if result.Error != nil {
		return nil, fmt.Errorf("listing means: %w", result.Error)
	}

	return means, nil
}
