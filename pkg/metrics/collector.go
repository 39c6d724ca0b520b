package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ajitpratap0/unitpool/pkg/pool"
)

// StatusSource is anything that can report pool status, normally *pool.Pool.
type StatusSource interface {
	Status() pool.Status
}

type statusMetric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(pool.Status) float64
}

// PoolCollector reads a pool's status on every scrape. Each collector
// labels its series with the pool name.
type PoolCollector struct {
	src     StatusSource
	name    string
	metrics []statusMetric
}

// NewPoolCollector creates a collector for src. The pool label is taken
// from the status snapshot at construction.
func NewPoolCollector(src StatusSource) *PoolCollector {
	name := src.Status().Name
	labels := prometheus.Labels{"pool": name}

	gauge := func(n, help string, fn func(pool.Status) float64) statusMetric {
		return statusMetric{
			desc:  prometheus.NewDesc("unitpool_"+n, help, nil, labels),
			kind:  prometheus.GaugeValue,
			value: fn,
		}
	}
	counter := func(n, help string, fn func(pool.Status) uint64) statusMetric {
		return statusMetric{
			desc:  prometheus.NewDesc("unitpool_"+n+"_total", help, nil, labels),
			kind:  prometheus.CounterValue,
			value: func(s pool.Status) float64 { return float64(fn(s)) },
		}
	}

	return &PoolCollector{
		src:  src,
		name: name,
		metrics: []statusMetric{
			gauge("units_allocated", "Units allocated and not yet destroyed",
				func(s pool.Status) float64 { return float64(s.Allocated) }),
			gauge("units_consumed", "Units currently issued to callers",
				func(s pool.Status) float64 { return float64(s.Consumed) }),
			gauge("units_remaining", "Units available in the free and recycle queues",
				func(s pool.Status) float64 { return float64(s.Remaining) }),
			gauge("free_queue_length", "Units never issued since allocation",
				func(s pool.Status) float64 { return float64(s.FreeLen) }),
			gauge("recycle_queue_length", "Units returned and awaiting reuse",
				func(s pool.Status) float64 { return float64(s.RecycleLen) }),
			gauge("unit_size_bytes", "Configured unit size in bytes",
				func(s pool.Status) float64 { return float64(s.UnitSize) }),
			counter("fetches", "Units issued", func(s pool.Status) uint64 { return s.Fetches }),
			counter("recycles", "Units accepted back", func(s pool.Status) uint64 { return s.Recycles }),
			counter("rejected_recycles", "Recycle calls for units not issued by the pool",
				func(s pool.Status) uint64 { return s.Rejected }),
			counter("units_destroyed", "Units released to the allocator",
				func(s pool.Status) uint64 { return s.Destroyed }),
			counter("batches", "Batch allocations", func(s pool.Status) uint64 { return s.Batches }),
			counter("shrinks", "Idle shrink cycles", func(s pool.Status) uint64 { return s.Shrinks }),
			counter("allocation_failures", "Failed batch allocations",
				func(s pool.Status) uint64 { return s.Failures }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector. One status snapshot backs every
// series of a scrape.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Status()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(s))
	}
}
