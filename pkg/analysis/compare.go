// Package analysis classifies benchmark changes between snapshots and
// detects long-term trends across baseline history. All functions here
// are pure: results depend only on their inputs.
package analysis

import (
	"sort"

	"github.com/ethpandaops/regressoor/pkg/baseline"
)

// DefaultThreshold is the default regression threshold percentage.
const DefaultThreshold = 10.0

// Change describes one benchmark's percentage change against a baseline.
type Change struct {
	Benchmark     string  `json:"benchmark"`
	ChangePercent float64 `json:"change_percent"`
	CurrentNs     float64 `json:"current_ns"`
	BaselineNs    float64 `json:"baseline_ns"`
	CurrentStd    float64 `json:"current_std"`
	BaselineStd   float64 `json:"baseline_std"`
}

// NewBenchmark describes a benchmark present only in the current snapshot.
type NewBenchmark struct {
	Benchmark string  `json:"benchmark"`
	MeanNs    float64 `json:"mean_ns"`
}

// Summary aggregates a comparison. It is only produced when at least one
// benchmark was actually compared; a comparison of all-new benchmarks has
// no meaningful change to summarize.
type Summary struct {
	TotalBenchmarks int     `json:"total_benchmarks"`
	Regressions     int     `json:"regressions"`
	Improvements    int     `json:"improvements"`
	Stable          int     `json:"stable"`
	New             int     `json:"new"`
	AvgChange       float64 `json:"avg_change"`
	MedianChange    float64 `json:"median_change"`
	MaxRegression   float64 `json:"max_regression"`
	MaxImprovement  float64 `json:"max_improvement"`
}

// Comparison categorizes every benchmark of a current snapshot against a
// prior baseline.
type Comparison struct {
	Regressions  []Change       `json:"regressions"`
	Improvements []Change       `json:"improvements"`
	Stable       []Change       `json:"stable"`
	New          []NewBenchmark `json:"new_benchmarks"`
	Summary      *Summary       `json:"summary,omitempty"`
}

// Compare classifies each benchmark in current against base using the
// given threshold percentage. Benchmarks absent from base are new;
// benchmarks with a baseline mean of zero are skipped entirely, since
// their change percentage is undefined. The boundary is strict: a change
// of exactly the threshold is stable.
func Compare(current, base baseline.Snapshot, threshold float64) *Comparison {
	cmp := &Comparison{
		Regressions:  []Change{},
		Improvements: []Change{},
		Stable:       []Change{},
		New:          []NewBenchmark{},
	}

	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		cur := current[name]

		prev, ok := base[name]
		if !ok {
			cmp.New = append(cmp.New, NewBenchmark{
				Benchmark: name,
				MeanNs:    cur.MeanNs,
			})

			continue
		}

		if prev.MeanNs == 0 {
			continue
		}

		changePercent := (cur.MeanNs - prev.MeanNs) / prev.MeanNs * 100

		change := Change{
			Benchmark:     name,
			ChangePercent: changePercent,
			CurrentNs:     cur.MeanNs,
			BaselineNs:    prev.MeanNs,
			CurrentStd:    cur.StdDevNs,
			BaselineStd:   prev.StdDevNs,
		}

		switch {
		case changePercent > threshold:
			cmp.Regressions = append(cmp.Regressions, change)
		case changePercent < -threshold:
			cmp.Improvements = append(cmp.Improvements, change)
		default:
			cmp.Stable = append(cmp.Stable, change)
		}
	}

	cmp.Summary = summarize(cmp, len(current))

	return cmp
}

// summarize computes the summary statistics over all compared benchmarks.
func summarize(cmp *Comparison, total int) *Summary {
	changes := make([]float64, 0,
		len(cmp.Regressions)+len(cmp.Improvements)+len(cmp.Stable))

	for _, groups := range [][]Change{cmp.Regressions, cmp.Improvements, cmp.Stable} {
		for _, c := range groups {
			changes = append(changes, c.ChangePercent)
		}
	}

	if len(changes) == 0 {
		return nil
	}

	summary := &Summary{
		TotalBenchmarks: total,
		Regressions:     len(cmp.Regressions),
		Improvements:    len(cmp.Improvements),
		Stable:          len(cmp.Stable),
		New:             len(cmp.New),
		AvgChange:       mean(changes),
		MedianChange:    median(changes),
	}

	for _, r := range cmp.Regressions {
		if r.ChangePercent > summary.MaxRegression {
			summary.MaxRegression = r.ChangePercent
		}
	}

	for _, i := range cmp.Improvements {
		if magnitude := -i.ChangePercent; magnitude > summary.MaxImprovement {
			summary.MaxImprovement = magnitude
		}
	}

	return summary
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}

	return sorted[mid]
}
