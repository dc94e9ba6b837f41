// Package baseline persists and retrieves named snapshots of benchmark
// measurements as dated JSON files in a baseline directory.
package baseline

import (
	"strings"
	"time"
)

// TimestampLayout is the layout of the timestamp segment embedded in
// baseline filenames. Timestamps carry no zone and are treated as UTC.
const TimestampLayout = "20060102_150405"

// LatestAlias is the name of the alias file that always points at the
// most recently saved baseline record.
const LatestAlias = "latest.json"

// Measurement holds the timing statistics for a single benchmark.
// All durations are nanoseconds.
type Measurement struct {
	MeanNs      float64  `json:"mean_ns"`
	StdDevNs    float64  `json:"std_dev_ns"`
	MedianNs    float64  `json:"median_ns"`
	MadNs       float64  `json:"mad_ns"`
	Timestamp   string   `json:"timestamp"`
	MeanCILower *float64 `json:"mean_ci_lower,omitempty"`
	MeanCIUpper *float64 `json:"mean_ci_upper,omitempty"`
}

// Snapshot maps benchmark names to their measurements and represents
// one point-in-time capture of all benchmark results.
type Snapshot map[string]Measurement

// Record is a handle to a persisted baseline file.
type Record struct {
	// File is the filename within the baseline directory.
	File string
	// Tag is the optional free-form tag embedded in the filename.
	Tag string
	// CapturedAt is the UTC timestamp parsed from the filename.
	CapturedAt time.Time
}

// Entry pairs a record handle with its loaded snapshot.
type Entry struct {
	Record   Record
	Snapshot Snapshot
}

// Filename builds the baseline filename for a tag and capture time:
// baseline_<tag>_<YYYYMMDD_HHMMSS>.json, or baseline_<YYYYMMDD_HHMMSS>.json
// when the tag is empty.
func Filename(tag string, capturedAt time.Time) string {
	stamp := capturedAt.UTC().Format(TimestampLayout)
	if tag == "" {
		return "baseline_" + stamp + ".json"
	}

	return "baseline_" + tag + "_" + stamp + ".json"
}

// ParseFilename parses a baseline filename into a record handle. The
// timestamp is always the last two underscore-separated segments, so
// tags containing underscores round-trip correctly. Returns false for
// names that do not match the scheme or carry an unparsable timestamp.
func ParseFilename(name string) (Record, bool) {
	stem := strings.TrimSuffix(name, ".json")
	if stem == name || !strings.HasPrefix(stem, "baseline_") {
		return Record{}, false
	}

	parts := strings.Split(strings.TrimPrefix(stem, "baseline_"), "_")
	if len(parts) < 2 {
		return Record{}, false
	}

	stamp := parts[len(parts)-2] + "_" + parts[len(parts)-1]

	capturedAt, err := time.ParseInLocation(TimestampLayout, stamp, time.UTC)
	if err != nil {
		return Record{}, false
	}

	return Record{
		File:       name,
		Tag:        strings.Join(parts[:len(parts)-2], "_"),
		CapturedAt: capturedAt,
	}, true
}
