package measure

import "time"

// Measure keeps one metric per stage.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
	// Order returns the stage names in the order their metric was added.
	Order() []string
}

// Metric holds the timings of a single stage.
type Metric interface {
	SetDuration(elapsed time.Duration)
	GetDuration() time.Duration
	// Done reports whether the stage finished.
	Done() bool
}
