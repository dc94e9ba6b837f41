package index

import "time"

// Baseline is one indexed baseline record.
type Baseline struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	File           string    `gorm:"uniqueIndex;size:512" json:"file"`
	Tag            string    `gorm:"index;size:255" json:"tag,omitempty"`
	CapturedAt     time.Time `gorm:"index" json:"captured_at"`
	BenchmarkCount int       `json:"benchmark_count"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// BenchmarkMean is one benchmark's central statistics within an indexed
// baseline, kept for fast per-benchmark history queries.
type BenchmarkMean struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	File      string  `gorm:"index;size:512" json:"file"`
	Benchmark string  `gorm:"index;size:512" json:"benchmark"`
	MeanNs    float64 `json:"mean_ns"`
	MedianNs  float64 `json:"median_ns"`
}
