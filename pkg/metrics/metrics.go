// Package metrics exports unitpool activity as Prometheus metrics.
//
// # Overview
//
// The metrics package provides:
//   - PoolCollector, a prometheus.Collector reading pool status on scrape
//   - Fetch/recycle latency histograms and throughput gauges for drivers
//   - Timer, ThroughputTracker and LatencyTracker helpers
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewPoolCollector(p))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
//	timer := metrics.NewTimer("fetch")
//	u, err := p.Fetch()
//	metrics.OperationLatency.WithLabelValues(p.Name(), "fetch").
//	    Observe(float64(timer.Stop().Nanoseconds()))
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationLatency tracks pool operation latency in nanoseconds.
	// Labels: pool, operation (fetch/recycle)
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "unitpool_operation_latency_nanoseconds",
			Help: "Pool operation latency in nanoseconds",
			Buckets: []float64{
				50,     // uncontended fast path
				100,    // 100ns
				500,    // ledger rebalancing
				1000,   // 1μs
				10000,  // 10μs - batch growth
				100000, // 100μs - contended lock or mmap
				1e6,    // 1ms
			},
		},
		[]string{"pool", "operation"},
	)

	// Throughput tracks operations per second.
	// Labels: pool, operation
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "unitpool_throughput_ops_per_second",
			Help: "Current pool throughput in operations per second",
		},
		[]string{"pool", "operation"},
	)

	// ProcessResidentMemory tracks the resident set size reported by benchmark drivers.
	ProcessResidentMemory = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unitpool_process_resident_bytes",
			Help: "Resident memory of the process in bytes",
		},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer's label.
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. It can be called
// repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks operations per second over time windows.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64     // Operations since last reset
	lastReset time.Time // Time of last reset
	pool      string
	operation string
}

// NewThroughputTracker creates a tracker labeled with the pool and operation.
//
// Example:
//
//	tracker := metrics.NewThroughputTracker("frames", "fetch")
//	for i := 0; i < n; i++ {
//	    u, _ := p.Fetch()
//	    tracker.Increment(1)
//	    ...
//	}
//	opsPerSec := tracker.GetAndReset()
func NewThroughputTracker(pool, operation string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		pool:      pool,
		operation: operation,
	}
}

// Increment adds n to the operation count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput, updates the Prometheus
// gauge, resets the counter and returns the throughput.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	Throughput.WithLabelValues(t.pool, t.operation).Set(throughput)

	return throughput
}

// LatencyTracker keeps the most recent latencies for percentile queries
type LatencyTracker struct {
	mu      sync.Mutex
	values  []time.Duration
	next    int // slot overwritten once values is full
	maxSize int
}

// NewLatencyTracker creates a new latency tracker
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LatencyTracker{
		values:  make([]time.Duration, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record records a latency value, evicting the oldest when full
func (l *LatencyTracker) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.values) < l.maxSize {
		l.values = append(l.values, d)
		return
	}
	l.values[l.next] = d
	l.next = (l.next + 1) % l.maxSize
}

// GetPercentile returns the percentile value (0-100) of the recorded latencies
func (l *LatencyTracker) GetPercentile(p float64) time.Duration {
	l.mu.Lock()
	sorted := make([]time.Duration, len(l.values))
	copy(sorted, l.values)
	l.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * p / 100)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
