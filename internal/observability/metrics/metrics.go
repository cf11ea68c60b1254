// Package metrics records per-run Prometheus metrics for batch loads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "qingest"

// Recorder holds the metrics of a single load run on its own registry.
// A nil Recorder ignores every call.
type Recorder struct {
	registry *prometheus.Registry

	RecordsLoaded   prometheus.Counter
	RecordsInserted prometheus.Counter
	RunFailures     *prometheus.CounterVec
	RunDuration     prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Recorder{
		registry: registry,
		RecordsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Question records that passed validation",
		}),
		RecordsInserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_inserted_total",
			Help:      "Question records written to the store",
		}),
		RunFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Failed runs by error kind",
		}, []string{"kind"}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run in seconds",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordLoaded counts validated records.
func (r *Recorder) RecordLoaded(n int) {
	if r == nil {
		return
	}
	r.RecordsLoaded.Add(float64(n))
}

// RecordInserted counts written records.
func (r *Recorder) RecordInserted(n int) {
	if r == nil {
		return
	}
	r.RecordsInserted.Add(float64(n))
}

// RecordFailure counts a failed run of the given kind.
func (r *Recorder) RecordFailure(kind string) {
	if r == nil {
		return
	}
	r.RunFailures.WithLabelValues(kind).Inc()
}

// RecordSuccess stamps the completion time of a successful run.
func (r *Recorder) RecordSuccess(at time.Time) {
	if r == nil {
		return
	}
	r.LastSuccess.Set(float64(at.Unix()))
}

// RecordDuration sets the run duration.
func (r *Recorder) RecordDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.RunDuration.Set(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
