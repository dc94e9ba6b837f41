// Package config loads and validates the regressoor configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/regressoor/pkg/baseline"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultCriterionDir is the default criterion results directory.
	DefaultCriterionDir = "./target/criterion"

	// DefaultBaselineDir is the default directory for baseline records.
	DefaultBaselineDir = "./performance_baselines"

	// DefaultReportsDir is the default directory for generated reports.
	DefaultReportsDir = "./performance_reports"

	// DefaultThreshold is the default regression threshold percentage.
	DefaultThreshold = 10.0

	// DefaultTrendWindowDays is the default trend lookback window.
	DefaultTrendWindowDays = 30
)

// Config is the root configuration for regressoor.
type Config struct {
	Global    GlobalConfig    `yaml:"global"`
	Criterion CriterionConfig `yaml:"criterion"`
	Baseline  BaselineConfig  `yaml:"baseline"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Report    ReportConfig    `yaml:"report"`
	Upload    *UploadConfig   `yaml:"upload,omitempty"`
	API       *APIConfig      `yaml:"api,omitempty"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
}

// CriterionConfig locates the measurement tool output.
type CriterionConfig struct {
	ResultsDir string `yaml:"results_dir"`
}

// BaselineConfig contains baseline storage settings.
type BaselineConfig struct {
	Dir string `yaml:"dir"`
	// Owner is an optional "UID:GID" applied to written baseline files,
	// for CI runners executing as root over a user-owned checkout.
	Owner string `yaml:"owner,omitempty"`
}

// AnalysisConfig contains comparison and trend settings.
type AnalysisConfig struct {
	// Threshold is the regression threshold percentage.
	Threshold float64 `yaml:"threshold"`
	// TrendWindowDays is the lookback window for trend analysis.
	TrendWindowDays int `yaml:"trend_window_days"`
}

// ReportConfig contains report output settings.
type ReportConfig struct {
	Dir string `yaml:"dir"`
}

// UploadConfig contains remote storage settings for baseline uploads.
type UploadConfig struct {
	S3 *S3UploadConfig `yaml:"s3,omitempty"`
}

// S3UploadConfig configures uploads to S3-compatible storage.
type S3UploadConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix,omitempty"`
	Region          string `yaml:"region,omitempty"`
	EndpointURL     string `yaml:"endpoint_url,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	StorageClass    string `yaml:"storage_class,omitempty"`
	ACL             string `yaml:"acl,omitempty"`
}

// APIConfig configures the read-only HTTP API server.
type APIConfig struct {
	Server   APIServerConfig    `yaml:"server"`
	Database APIDatabaseConfig  `yaml:"database"`
	Indexing *APIIndexingConfig `yaml:"indexing,omitempty"`
}

// APIServerConfig contains HTTP listener settings.
type APIServerConfig struct {
	Listen      string          `yaml:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// RateLimitConfig contains per-IP request rate limits.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute,omitempty"`
}

// APIDatabaseConfig selects and configures the index database.
type APIDatabaseConfig struct {
	Driver   string               `yaml:"driver"`
	SQLite   SQLiteDatabaseConfig `yaml:"sqlite,omitempty"`
	Postgres PostgresConfig       `yaml:"postgres,omitempty"`
}

// SQLiteDatabaseConfig contains SQLite settings.
type SQLiteDatabaseConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// APIIndexingConfig configures the background baseline indexer.
type APIIndexingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Interval    string `yaml:"interval,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty"`
}

// Load reads and parses a configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// Default returns a configuration with all defaults applied. Every
// command works without a config file when run from a project root.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Criterion.ResultsDir == "" {
		c.Criterion.ResultsDir = DefaultCriterionDir
	}

	if c.Baseline.Dir == "" {
		c.Baseline.Dir = DefaultBaselineDir
	}

	if c.Report.Dir == "" {
		c.Report.Dir = DefaultReportsDir
	}

	if c.Analysis.Threshold == 0 {
		c.Analysis.Threshold = DefaultThreshold
	}

	if c.Analysis.TrendWindowDays == 0 {
		c.Analysis.TrendWindowDays = DefaultTrendWindowDays
	}

	if c.API != nil {
		if c.API.Server.Listen == "" {
			c.API.Server.Listen = ":8080"
		}

		if c.API.Server.RateLimit.Enabled && c.API.Server.RateLimit.RequestsPerMinute == 0 {
			c.API.Server.RateLimit.RequestsPerMinute = 120
		}

		if c.API.Database.Driver == "" {
			c.API.Database.Driver = "sqlite"
		}

		if c.API.Database.Driver == "sqlite" && c.API.Database.SQLite.Path == "" {
			c.API.Database.SQLite.Path = filepath.Join(c.Baseline.Dir, "index.db")
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Analysis.Threshold < 0 {
		return fmt.Errorf("analysis threshold must not be negative")
	}

	if c.Analysis.TrendWindowDays < 1 {
		return fmt.Errorf("trend window must be at least one day")
	}

	if _, err := baseline.ParseOwner(c.Baseline.Owner); err != nil {
		return fmt.Errorf("baseline.owner: %w", err)
	}

	if c.Upload != nil && c.Upload.S3 != nil && c.Upload.S3.Bucket == "" {
		return fmt.Errorf("upload.s3: bucket is required")
	}

	if c.API != nil {
		switch c.API.Database.Driver {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf(
				"api.database: unsupported driver %q", c.API.Database.Driver,
			)
		}
	}

	return nil
}
