package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/unitpool/internal/workload"
	"github.com/ajitpratap0/unitpool/pkg/config"
	"github.com/ajitpratap0/unitpool/pkg/logger"
	"github.com/ajitpratap0/unitpool/pkg/metrics"
	"github.com/ajitpratap0/unitpool/pkg/mmap"
	"github.com/ajitpratap0/unitpool/pkg/pool"
)

// benchFlags holds bench-only settings
type benchFlags struct {
	unitSize    int
	batchCount  int
	maxUnits    int
	strategy    string
	ledgerMode  string
	allocator   string
	workers     int
	operations  int
	hold        int
	duration    time.Duration
	foreign     int
	metricsAddr string
	shrinkAfter time.Duration
	cpuProfile  string
	memProfile  string
}

// benchReport is printed as JSON when the run finishes
type benchReport struct {
	Workload    workload.Result `json:"workload"`
	Pool        pool.Status     `json:"pool"`
	RSSBefore   uint64          `json:"rss_before_shrink,omitempty"`
	RSSAfter    uint64          `json:"rss_after_shrink,omitempty"`
	ShrinkAfter string          `json:"shrink_after,omitempty"`
}

func newBenchCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var f benchFlags

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive a pool with concurrent fetch/recycle traffic",
		Long: `Run workers that fetch units, hold them briefly and recycle them, then
print the workload result and final pool status as JSON.

Example:
  unitpool bench --unit-size 4096 --batch 64 --strategy slab --allocator mmap \
    --workers 8 --ops 100000 --metrics-addr :9464 --shrink-after 2s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyBenchFlags(cmd, &cfg.Pool, &f)
			if f.metricsAddr == "" && cfg.Metrics.Enabled {
				f.metricsAddr = cfg.Metrics.Addr
			}
			return runBench(cmd, cfg, &f)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&f.unitSize, "unit-size", 4096, "Unit size in bytes")
	flags.IntVar(&f.batchCount, "batch", 1, "Units allocated per growth step (overrides pool.batch_count)")
	flags.IntVar(&f.maxUnits, "max-units", 0, "Cap on allocated units (0 = unlimited)")
	flags.StringVar(&f.strategy, "strategy", string(config.StrategyIndependent), "Allocation strategy (independent, slab)")
	flags.StringVar(&f.ledgerMode, "ledger", string(config.LedgerIntrusive), "Ledger storage (intrusive, separate)")
	flags.StringVar(&f.allocator, "allocator", string(config.AllocatorHeap), "Memory source (heap, mmap)")
	flags.IntVar(&f.workers, "workers", runtime.NumCPU(), "Concurrent workers")
	flags.IntVar(&f.operations, "ops", 10000, "Fetches per worker (0 = until --duration)")
	flags.IntVar(&f.hold, "hold", 4, "Units each worker holds before recycling")
	flags.DurationVar(&f.duration, "duration", 0, "Stop after this long (0 = no limit)")
	flags.IntVar(&f.foreign, "foreign-every", 0, "Recycle a foreign unit every N fetches to exercise rejection")
	flags.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	flags.DurationVar(&f.shrinkAfter, "shrink-after", 0, "Idle window; after the run wait it out and report RSS across the shrink")
	flags.StringVar(&f.cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	flags.StringVar(&f.memProfile, "memprofile", "", "Write heap profile to file")
	return cmd
}

// applyBenchFlags lets explicitly set flags override file and environment
func applyBenchFlags(cmd *cobra.Command, pc *config.PoolConfig, f *benchFlags) {
	flags := cmd.Flags()
	if flags.Changed("unit-size") || pc.UnitSize <= 0 {
		pc.UnitSize = f.unitSize
	}
	if flags.Changed("batch") {
		pc.BatchCount = f.batchCount
	}
	if flags.Changed("max-units") {
		pc.MaxUnits = f.maxUnits
	}
	if flags.Changed("strategy") {
		pc.Strategy = config.Strategy(f.strategy)
	}
	if flags.Changed("ledger") {
		pc.LedgerMode = config.LedgerMode(f.ledgerMode)
	}
	if flags.Changed("allocator") {
		pc.Allocator = config.AllocatorKind(f.allocator)
	}
	if f.shrinkAfter > 0 {
		pc.IdleWindow = f.shrinkAfter
	}
	if pc.Name == "" || pc.Name == "default" {
		pc.Name = "bench"
	}
}

func runBench(cmd *cobra.Command, cfg *config.Config, f *benchFlags) error {
	log := logger.Named("bench")
	if cfg.Pool.Allocator == config.AllocatorMmap && !mmap.Supported() {
		log.Warn("anonymous mappings unsupported on this platform, mmap allocator uses the heap")
	}

	p, err := pool.NewFromConfig(cfg.Pool, pool.WithLogger(logger.Named("pool")))
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Destroy(); err != nil {
			log.Error("pool destroy reported an error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.metricsAddr != "" {
		shutdown := serveMetrics(f.metricsAddr, p, log)
		defer shutdown()
	}

	if f.cpuProfile != "" {
		out, err := os.Create(f.cpuProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer out.Close()
		if err := pprof.StartCPUProfile(out); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	driver := workload.New(p, workload.Config{
		Workers:             f.workers,
		Operations:          f.operations,
		Hold:                f.hold,
		Duration:            f.duration,
		ForeignRecycleEvery: f.foreign,
	}, log)
	res, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	report := benchReport{Workload: res}
	if f.shrinkAfter > 0 {
		report.ShrinkAfter = f.shrinkAfter.String()
		report.RSSBefore, report.RSSAfter, err = waitForShrink(ctx, p, f.shrinkAfter, log)
		if err != nil {
			return err
		}
	}
	report.Pool = p.Status()

	if f.memProfile != "" {
		if err := writeHeapProfile(f.memProfile); err != nil {
			return err
		}
	}

	data, err := gojson.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// serveMetrics exposes the pool collector and the process-wide metrics
func serveMetrics(addr string, p *pool.Pool, log *zap.Logger) func() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewPoolCollector(p))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		prometheus.Gatherers{reg, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// waitForShrink idles past the shrink window, evaluating the policy on both
// sides of it, and samples RSS before and after.
func waitForShrink(ctx context.Context, p *pool.Pool, window time.Duration, log *zap.Logger) (before, after uint64, err error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to inspect process: %w", err)
	}
	before = residentBytes(proc)

	// starts the idle timer if the last recycle did not
	p.Maintain()
	select {
	case <-ctx.Done():
		return before, before, nil
	case <-time.After(window + window/10 + 10*time.Millisecond):
	}
	p.Maintain()

	runtime.GC()
	after = residentBytes(proc)
	log.Info("shrink cycle complete",
		zap.Uint64("rss_before", before),
		zap.Uint64("rss_after", after),
		zap.Int("allocated", p.Status().Allocated))
	return before, after, nil
}

func residentBytes(proc *process.Process) uint64 {
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0
	}
	metrics.ProcessResidentMemory.Set(float64(info.RSS))
	return info.RSS
}

func writeHeapProfile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create memory profile: %w", err)
	}
	defer out.Close()

	runtime.GC() // Get up-to-date statistics
	if err := pprof.WriteHeapProfile(out); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	return nil
}
