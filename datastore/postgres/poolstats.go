package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Stat is the subset of [pgxpool.Stat] the pool collector reports.
type stat interface {
	AcquireCount() int64
	AcquireDuration() time.Duration
	AcquiredConns() int32
	CanceledAcquireCount() int64
	EmptyAcquireCount() int64
	IdleConns() int32
	MaxConns() int32
	TotalConns() int32
}

var _ stat = (*pgxpool.Stat)(nil)

type poolMetric struct {
	desc *prometheus.Desc
	kind prometheus.ValueType
	get  func(stat) float64
}

// PoolCollector is a [prometheus.Collector] reporting connection pool
// statistics, labelled with the pool's application name.
type poolCollector struct {
	name    string
	stat    func() stat
	metrics []poolMetric
}

var _ prometheus.Collector = (*poolCollector)(nil)

func newPoolCollector(statFn func() stat, name string) *poolCollector {
	labels := []string{"application_name"}
	desc := func(n, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("upgradeplan", "pgxpool", n), help, labels, nil)
	}
	return &poolCollector{
		name: name,
		stat: statFn,
		metrics: []poolMetric{
			{
				desc: desc("acquire_count", "Cumulative count of successful acquires from the pool."),
				kind: prometheus.CounterValue,
				get:  func(s stat) float64 { return float64(s.AcquireCount()) },
			},
			{
				desc: desc("acquire_duration_seconds_total", "Total duration of all successful acquires from the pool."),
				kind: prometheus.CounterValue,
				get:  func(s stat) float64 { return s.AcquireDuration().Seconds() },
			},
			{
				desc: desc("acquired_conns", "Number of currently acquired connections in the pool."),
				kind: prometheus.GaugeValue,
				get:  func(s stat) float64 { return float64(s.AcquiredConns()) },
			},
			{
				desc: desc("canceled_acquire_count", "Cumulative count of acquires from the pool that were canceled by a context."),
				kind: prometheus.CounterValue,
				get:  func(s stat) float64 { return float64(s.CanceledAcquireCount()) },
			},
			{
				desc: desc("empty_acquire_count", "Cumulative count of acquires that waited for a connection because the pool was empty."),
				kind: prometheus.CounterValue,
				get:  func(s stat) float64 { return float64(s.EmptyAcquireCount()) },
			},
			{
				desc: desc("idle_conns", "Number of currently idle connections in the pool."),
				kind: prometheus.GaugeValue,
				get:  func(s stat) float64 { return float64(s.IdleConns()) },
			},
			{
				desc: desc("max_conns", "Maximum size of the pool."),
				kind: prometheus.GaugeValue,
				get:  func(s stat) float64 { return float64(s.MaxConns()) },
			},
			{
				desc: desc("total_conns", "Total number of connections currently in the pool."),
				kind: prometheus.GaugeValue,
				get:  func(s stat) float64 { return float64(s.TotalConns()) },
			},
		},
	}
}

// Describe implements [prometheus.Collector].
func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements [prometheus.Collector].
func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.get(s), c.name)
	}
}
