package testutil

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// PoolSuite is a base suite for pool tests. Every test gets a fresh fake
// clock and a logger bound to the running test.
type PoolSuite struct {
	suite.Suite
	Clock  *FakeClock
	Logger *zap.Logger
}

// SetupTest runs before each test in the suite
func (s *PoolSuite) SetupTest() {
	s.Clock = NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.Logger = zaptest.NewLogger(s.T())
}

// PerformanceTest measures an operation loop against optional targets.
type PerformanceTest struct {
	t         *testing.T
	name      string
	threshold struct {
		minThroughput float64 // ops/sec
		maxLatency    time.Duration
	}
}

// NewPerformanceTest creates a new performance test
func NewPerformanceTest(t *testing.T, name string) *PerformanceTest {
	return &PerformanceTest{t: t, name: name}
}

// WithThroughputTarget sets minimum throughput requirement
func (p *PerformanceTest) WithThroughputTarget(opsPerSec float64) *PerformanceTest {
	p.threshold.minThroughput = opsPerSec
	return p
}

// WithLatencyTarget sets maximum average latency
func (p *PerformanceTest) WithLatencyTarget(maxLatency time.Duration) *PerformanceTest {
	p.threshold.maxLatency = maxLatency
	return p
}

// Run executes fn, which reports how many operations it performed.
func (p *PerformanceTest) Run(fn func() int64) {
	p.t.Helper()

	before := CaptureMemoryProfile()
	start := time.Now()
	ops := fn()
	duration := time.Since(start)
	after := CaptureMemoryProfile()

	if ops <= 0 {
		p.t.Fatalf("performance test %s performed no operations", p.name)
	}
	throughput := float64(ops) / duration.Seconds()
	avgLatency := duration / time.Duration(ops)

	p.t.Logf("Performance Test: %s", p.name)
	p.t.Logf("  Operations: %d", ops)
	p.t.Logf("  Duration: %v", duration)
	p.t.Logf("  Throughput: %.0f ops/sec", throughput)
	p.t.Logf("  Avg Latency: %v", avgLatency)
	p.t.Logf("  Heap Allocs: %d", after.Mallocs-before.Mallocs)

	if p.threshold.minThroughput > 0 && throughput < p.threshold.minThroughput {
		p.t.Errorf("Throughput %.0f ops/sec below target %.0f ops/sec",
			throughput, p.threshold.minThroughput)
	}
	if p.threshold.maxLatency > 0 && avgLatency > p.threshold.maxLatency {
		p.t.Errorf("Latency %v exceeds target %v", avgLatency, p.threshold.maxLatency)
	}
}

// MemoryProfile captures memory statistics
type MemoryProfile struct {
	HeapAlloc uint64
	HeapInuse uint64
	Sys       uint64
	Mallocs   uint64
	Frees     uint64
}

// CaptureMemoryProfile captures current memory profile
func CaptureMemoryProfile() *MemoryProfile {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &MemoryProfile{
		HeapAlloc: m.HeapAlloc,
		HeapInuse: m.HeapInuse,
		Sys:       m.Sys,
		Mallocs:   m.Mallocs,
		Frees:     m.Frees,
	}
}

// FormatBytes formats bytes into a human-readable string
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
