// Package criterion extracts benchmark statistics from a criterion
// output directory tree (target/criterion) into a snapshot.
package criterion

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethpandaops/regressoor/pkg/baseline"
	"github.com/sirupsen/logrus"
)

// estimatesFile is the per-benchmark statistics file criterion writes.
const estimatesFile = "estimates.json"

// runDirs are the criterion run-type directories that contain estimate
// files worth extracting. Criterion writes the current run to "new".
var runDirs = map[string]struct{}{
	"new":  {},
	"base": {},
}

// estimate mirrors one statistic in criterion's estimates.json.
type estimate struct {
	PointEstimate      float64             `json:"point_estimate"`
	ConfidenceInterval *confidenceInterval `json:"confidence_interval"`
}

type confidenceInterval struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// estimates mirrors the statistics regressoor consumes from criterion.
type estimates struct {
	Mean         *estimate `json:"mean"`
	StdDev       *estimate `json:"std_dev"`
	Median       *estimate `json:"median"`
	MedianAbsDev *estimate `json:"median_abs_dev"`
}

// Extractor reads measurements from a criterion results directory.
type Extractor struct {
	log logrus.FieldLogger
	dir string
}

// NewExtractor creates an extractor rooted at the criterion results
// directory (typically <project>/target/criterion).
func NewExtractor(log logrus.FieldLogger, dir string) *Extractor {
	return &Extractor{
		log: log.WithField("component", "criterion"),
		dir: dir,
	}
}

// Extract walks the results tree and collects one measurement per
// benchmark. The benchmark name is the estimate file's directory path
// relative to the results root, minus the trailing run-type segment,
// e.g. action_calculations/calculate_action/50/new/estimates.json
// becomes "action_calculations/calculate_action/50". Files that fail to
// parse are skipped with a warning. A missing results directory yields
// an empty snapshot.
func (e *Extractor) Extract() (baseline.Snapshot, error) {
	snap := baseline.Snapshot{}

	if _, err := os.Stat(e.dir); os.IsNotExist(err) {
		e.log.WithField("dir", e.dir).
			Warn("Criterion results directory not found")

		return snap, nil
	}

	capturedAt := time.Now().UTC().Format(time.RFC3339)

	err := filepath.WalkDir(e.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || d.Name() != estimatesFile {
			return nil
		}

		if _, ok := runDirs[filepath.Base(filepath.Dir(path))]; !ok {
			return nil
		}

		rel, err := filepath.Rel(e.dir, path)
		if err != nil {
			return err
		}

		// Drop the trailing "<run_type>/estimates.json" segments.
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}

		name := strings.Join(parts[:len(parts)-2], "/")

		m, perr := parseEstimates(path, capturedAt)
		if perr != nil {
			e.log.WithError(perr).WithField("file", rel).
				Warn("Could not parse estimates file")

			return nil
		}

		snap[name] = m

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// parseEstimates reads a single estimates.json into a measurement.
func parseEstimates(path, capturedAt string) (baseline.Measurement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return baseline.Measurement{}, err
	}

	var est estimates
	if err := json.Unmarshal(data, &est); err != nil {
		return baseline.Measurement{}, err
	}

	m := baseline.Measurement{
		MeanNs:    pointEstimate(est.Mean),
		StdDevNs:  pointEstimate(est.StdDev),
		MedianNs:  pointEstimate(est.Median),
		MadNs:     pointEstimate(est.MedianAbsDev),
		Timestamp: capturedAt,
	}

	if est.Mean != nil && est.Mean.ConfidenceInterval != nil {
		lower := est.Mean.ConfidenceInterval.LowerBound
		upper := est.Mean.ConfidenceInterval.UpperBound
		m.MeanCILower = &lower
		m.MeanCIUpper = &upper
	}

	return m, nil
}

// pointEstimate unwraps a statistic, defaulting to zero when absent.
func pointEstimate(e *estimate) float64 {
	if e == nil {
		return 0
	}

	return e.PointEstimate
}
