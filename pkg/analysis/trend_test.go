package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/regressoor/pkg/baseline"
)

func entriesOf(t *testing.T, series map[string][]float64) []baseline.Entry {
	t.Helper()

	var length int
	for _, values := range series {
		if len(values) > length {
			length = len(values)
		}
	}

	entries := make([]baseline.Entry, length)
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := range entries {
		snap := baseline.Snapshot{}

		for name, values := range series {
			if i < len(values) {
				snap[name] = baseline.Measurement{MeanNs: values[i]}
			}
		}

		capturedAt := start.AddDate(0, 0, i)
		entries[i] = baseline.Entry{
			Record: baseline.Record{
				File:       fmt.Sprintf("baseline_%s.json", capturedAt.Format(baseline.TimestampLayout)),
				CapturedAt: capturedAt,
			},
			Snapshot: snap,
		}
	}

	return entries
}

func TestAnalyzeTrendsInsufficientHistory(t *testing.T) {
	t.Run("no entries", func(t *testing.T) {
		_, err := AnalyzeTrends(nil, 30)
		require.ErrorIs(t, err, ErrInsufficientHistory)
	})

	t.Run("single entry", func(t *testing.T) {
		entries := entriesOf(t, map[string][]float64{"bench": {100}})

		_, err := AnalyzeTrends(entries, 30)
		require.ErrorIs(t, err, ErrInsufficientHistory)
	})
}

func TestAnalyzeTrendsDirections(t *testing.T) {
	tests := []struct {
		name          string
		values        []float64
		direction     Direction
		changePercent float64
	}{
		{
			name:          "decreasing durations improve",
			values:        []float64{120, 110, 100},
			direction:     TrendImproving,
			changePercent: -100.0 / 6,
		},
		{
			name:          "increasing durations degrade",
			values:        []float64{100, 110, 120},
			direction:     TrendDegrading,
			changePercent: 20,
		},
		{
			name:          "constant series is stable",
			values:        []float64{50, 50, 50, 50},
			direction:     TrendStable,
			changePercent: 0,
		},
		{
			name:          "symmetric noise is stable",
			values:        []float64{100, 101, 101, 100},
			direction:     TrendStable,
			changePercent: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := entriesOf(t, map[string][]float64{"bench": tt.values})

			report, err := AnalyzeTrends(entries, 30)
			require.NoError(t, err)

			assert.Equal(t, 30, report.PeriodDays)
			assert.Equal(t, len(tt.values), report.BaselinesAnalyzed)

			trend, ok := report.Trends["bench"]
			require.True(t, ok)

			assert.Equal(t, tt.direction, trend.Direction)
			assert.Equal(t, len(tt.values), trend.DataPoints)
			assert.InDelta(t, tt.values[0], trend.FirstValue, 1e-9)
			assert.InDelta(t, tt.values[len(tt.values)-1], trend.LastValue, 1e-9)
			assert.InDelta(t, tt.changePercent, trend.ChangePercent, 1e-6)
		})
	}
}

func TestAnalyzeTrendsChangePercentZeroFirstValue(t *testing.T) {
	entries := entriesOf(t, map[string][]float64{"bench": {0, 100}})

	report, err := AnalyzeTrends(entries, 7)
	require.NoError(t, err)

	trend := report.Trends["bench"]
	assert.Equal(t, TrendDegrading, trend.Direction)
	assert.InDelta(t, 0, trend.ChangePercent, 1e-9)
}

func TestAnalyzeTrendsExcludesSingleOccurrence(t *testing.T) {
	entries := entriesOf(t, map[string][]float64{
		"tracked": {100, 110, 120},
		"onceoff": {100},
	})

	report, err := AnalyzeTrends(entries, 30)
	require.NoError(t, err)

	assert.Contains(t, report.Trends, "tracked")
	assert.NotContains(t, report.Trends, "onceoff")
}

func TestOLSSlope(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{name: "perfect ascent", values: []float64{0, 10, 20, 30}, expected: 10},
		{name: "perfect descent", values: []float64{30, 20, 10}, expected: -10},
		{name: "flat", values: []float64{7, 7, 7}, expected: 0},
		{name: "two points", values: []float64{100, 150}, expected: 50},
		{name: "degenerate single point", values: []float64{42}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, olsSlope(tt.values), 1e-9)
		})
	}
}

func TestDirectionNames(t *testing.T) {
	report := &TrendReport{
		Trends: map[string]Trend{
			"zeta":  {Direction: TrendDegrading},
			"alpha": {Direction: TrendDegrading},
			"mid":   {Direction: TrendImproving},
		},
	}

	assert.Equal(t, []string{"alpha", "zeta"}, report.DirectionNames(TrendDegrading))
	assert.Equal(t, []string{"mid"}, report.DirectionNames(TrendImproving))
	assert.Empty(t, report.DirectionNames(TrendStable))
}
