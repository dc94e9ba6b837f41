package analysis

import (
	"errors"
	"sort"

	"github.com/ethpandaops/regressoor/pkg/baseline"
)

// Epsilon is the dead zone around a zero slope. Without it,
// floating-point noise would flip the direction of flat series.
const Epsilon = 1e-9

// ErrInsufficientHistory is returned when fewer than two usable baseline
// records fall within the lookback window. A single data point cannot
// establish a trend, which is distinct from a window with no trends.
var ErrInsufficientHistory = errors.New("not enough historical data for trend analysis")

// Direction classifies the slope of a benchmark's mean duration.
type Direction string

const (
	// TrendImproving means durations are decreasing over the window.
	TrendImproving Direction = "improving"
	// TrendDegrading means durations are increasing over the window.
	TrendDegrading Direction = "degrading"
	// TrendStable means the slope sits within the epsilon dead zone.
	TrendStable Direction = "stable"
)

// Trend is the per-benchmark result of trend analysis.
type Trend struct {
	Slope         float64   `json:"slope"`
	Direction     Direction `json:"trend"`
	DataPoints    int       `json:"data_points"`
	FirstValue    float64   `json:"first_value"`
	LastValue     float64   `json:"last_value"`
	ChangePercent float64   `json:"change_percent"`
}

// TrendReport is the result of analyzing a window of baseline history.
type TrendReport struct {
	PeriodDays        int              `json:"period_days"`
	BaselinesAnalyzed int              `json:"baselines_analyzed"`
	Trends            map[string]Trend `json:"trends"`
}

// AnalyzeTrends classifies each benchmark's history across the given
// entries, which must be ordered ascending by capture time. A benchmark
// must appear in at least two entries to be analyzed. The independent
// variable is the entry's position in the sequence, not wall-clock time.
func AnalyzeTrends(entries []baseline.Entry, periodDays int) (*TrendReport, error) {
	if len(entries) < 2 {
		return nil, ErrInsufficientHistory
	}

	names := make(map[string]struct{})
	for _, e := range entries {
		for name := range e.Snapshot {
			names[name] = struct{}{}
		}
	}

	trends := make(map[string]Trend, len(names))

	for name := range names {
		values := make([]float64, 0, len(entries))

		for _, e := range entries {
			if m, ok := e.Snapshot[name]; ok {
				values = append(values, m.MeanNs)
			}
		}

		if len(values) < 2 {
			continue
		}

		trends[name] = trendOf(values)
	}

	return &TrendReport{
		PeriodDays:        periodDays,
		BaselinesAnalyzed: len(entries),
		Trends:            trends,
	}, nil
}

// trendOf computes the least-squares slope of values over their index
// positions and classifies the direction. Decreasing duration means the
// benchmark is getting faster, so a negative slope is an improvement.
func trendOf(values []float64) Trend {
	slope := olsSlope(values)

	var direction Direction

	switch {
	case slope < -Epsilon:
		direction = TrendImproving
	case slope > Epsilon:
		direction = TrendDegrading
	default:
		direction = TrendStable
	}

	first := values[0]
	last := values[len(values)-1]

	var changePercent float64
	if abs(first) > Epsilon {
		changePercent = (last - first) / first * 100
	}

	return Trend{
		Slope:         slope,
		Direction:     direction,
		DataPoints:    len(values),
		FirstValue:    first,
		LastValue:     last,
		ChangePercent: changePercent,
	}
}

// olsSlope computes the ordinary least-squares slope of y over x=0..n-1.
// The degenerate zero denominator cannot occur with n >= 2 distinct
// positions, but is guarded anyway and defined as a zero slope.
func olsSlope(values []float64) float64 {
	n := float64(len(values))

	var sumX, sumY, sumXY, sumXX float64

	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}

	return (n*sumXY - sumX*sumY) / denominator
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}

// DirectionNames returns the benchmark names in the report with the
// given direction, sorted for stable output.
func (r *TrendReport) DirectionNames(direction Direction) []string {
	names := make([]string, 0, len(r.Trends))

	for name, t := range r.Trends {
		if t.Direction == direction {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return names
}
