package pool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a prometheus collector for a pool, attached via WithMetrics.
// One Metrics instance belongs to one pool; sharing it across pools with
// the same registerer would double-register the collectors.
type Metrics struct {
	registry     prometheus.Registerer
	tasksTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	queueDepth   prometheus.Gauge
	workersBusy  prometheus.Gauge
}

// NewMetrics creates and registers the pool collectors under the given
// namespace. A nil reg falls back to prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registry: reg,
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pool_tasks_total",
				Help:      "Total number of resolved tasks by terminal status",
			},
			[]string{"status"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pool_task_duration_seconds",
				Help:      "Task body execution time",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_queue_depth",
				Help:      "Number of tasks waiting in the work queue",
			},
		),
		workersBusy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_workers_busy",
				Help:      "Number of workers currently executing a task",
			},
		),
	}

	reg.MustRegister(
		m.tasksTotal,
		m.taskDuration,
		m.queueDepth,
		m.workersBusy,
	)
	return m
}

// RecordTask counts a resolved task and observes its execution time.
func (m *Metrics) RecordTask(status Status, elapsed time.Duration) {
	m.tasksTotal.WithLabelValues(status.String()).Inc()
	m.taskDuration.WithLabelValues(status.String()).Observe(elapsed.Seconds())
}

// SetQueueDepth records the current work queue length.
func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// WorkerBusy marks a worker as executing a task.
func (m *Metrics) WorkerBusy() {
	m.workersBusy.Inc()
}

// WorkerIdle marks a worker as done with its task.
func (m *Metrics) WorkerIdle() {
	m.workersBusy.Dec()
}
