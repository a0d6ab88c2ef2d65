package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "securelog"
)

var (
	// ScanDuration measures one full tree walk, callback included
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Time spent on a complete scan of one mounted tree",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"result"},
	)

	// MatchDuration measures a single worker round trip
	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Time spent waiting for the match worker",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	// ScansTotal counts scans by result
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Total number of scans",
		},
		[]string{"result"},
	)

	// FindingsTotal counts findings by detector
	FindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Total number of secrets reported",
		},
		[]string{"detector"},
	)

	// MatchFailuresTotal counts match calls that resolved to no matches
	MatchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_failures_total",
			Help:      "Total number of match calls absorbed as zero matches",
		},
		[]string{"reason"},
	)

	// PatternErrorsTotal counts rules skipped because they did not compile
	PatternErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pattern_errors_total",
			Help:      "Total number of patterns skipped for compile errors",
		},
		[]string{"pattern"},
	)

	// WorkersActive tracks mounted scan contexts
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_active",
			Help:      "Number of match workers currently running",
		},
	)
)

// Label values
const (
	ResultFound      = "found"
	ResultClean      = "clean"
	ResultSuperseded = "superseded"
	ResultError      = "error"

	ReasonTimeout    = "timeout"
	ReasonNotRunning = "not_running"
	ReasonCanceled   = "canceled"
)

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
