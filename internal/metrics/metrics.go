package metrics

import (
	"time"

	"github.com/ludviglundgren/torrent-reconcile/internal/reconcile"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "trc"

// JobCollector counts job runs and their outcome per job.
type JobCollector struct {
	RunTotal         *prometheus.CounterVec
	TorrentsTotal    *prometheus.CounterVec
	LastRunTimestamp *prometheus.GaugeVec
	LastRunDuration  *prometheus.GaugeVec
	FailureRecords   prometheus.Gauge
}

func NewJobCollector(r prometheus.Registerer) *JobCollector {
	m := &JobCollector{
		RunTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "job",
			Name:      "run_total",
			Help:      "Total number of job runs by result",
		}, []string{"job", "result"}),
		TorrentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "job",
			Name:      "torrents_total",
			Help:      "Total number of torrents handled by jobs by outcome",
		}, []string{"job", "outcome"}),
		LastRunTimestamp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "job",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run",
		}, []string{"job"}),
		LastRunDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "job",
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last finished run",
		}, []string{"job"}),
		FailureRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "delete",
			Name:      "failure_records",
			Help:      "Number of torrents with an unreachable streak",
		}),
	}

	r.MustRegister(m.RunTotal, m.TorrentsTotal, m.LastRunTimestamp, m.LastRunDuration, m.FailureRecords)
	return m
}

// ObserveRun implements reconcile.Recorder.
func (m *JobCollector) ObserveRun(sum reconcile.Summary, err error) {
	result := "success"
	switch {
	case errors.Is(err, reconcile.ErrStopped):
		result = "stopped"
	case err != nil:
		result = "error"
	}

	m.RunTotal.WithLabelValues(sum.Job, result).Inc()

	m.TorrentsTotal.WithLabelValues(sum.Job, "scanned").Add(float64(sum.Scanned))
	m.TorrentsTotal.WithLabelValues(sum.Job, "changed").Add(float64(sum.Changed))
	m.TorrentsTotal.WithLabelValues(sum.Job, "failed").Add(float64(sum.Failed))
	m.TorrentsTotal.WithLabelValues(sum.Job, "deleted").Add(float64(sum.Deleted))

	if result == "stopped" {
		return
	}

	m.LastRunTimestamp.WithLabelValues(sum.Job).Set(float64(time.Now().Unix()))
	m.LastRunDuration.WithLabelValues(sum.Job).Set(sum.Duration.Seconds())

	if sum.Job == reconcile.JobDelete && err == nil && !sum.DryRun {
		m.FailureRecords.Set(float64(sum.Tracked))
	}
}

type Manager struct {
	registry *prometheus.Registry
	Jobs     *JobCollector
}

func NewManager() *Manager {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Manager{
		registry: registry,
		Jobs:     NewJobCollector(registry),
	}
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}
