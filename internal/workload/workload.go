// Package workload drives a pool with concurrent fetch/hold/recycle traffic.
package workload

import (
	"context"
	stderrors "errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/unitpool/pkg/errors"
	"github.com/ajitpratap0/unitpool/pkg/metrics"
	"github.com/ajitpratap0/unitpool/pkg/pool"
)

// Config configures a workload run
type Config struct {
	Workers    int           // 0 = auto (NumCPU)
	Operations int           // fetches per worker; 0 = run until Duration or cancel
	Hold       int           // units each worker holds before recycling them (min 1)
	Duration   time.Duration // 0 = no time limit
	// ForeignRecycleEvery recycles a unit the pool never issued after every
	// Nth fetch to exercise the ownership check. 0 disables.
	ForeignRecycleEvery int
}

// Result summarizes a run
type Result struct {
	Workers      int           `json:"workers"`
	Fetches      int64         `json:"fetches"`
	Recycles     int64         `json:"recycles"`
	Rejected     int64         `json:"rejected"`
	Errors       int64         `json:"errors"`
	Duration     time.Duration `json:"duration"`
	OpsPerSecond float64       `json:"ops_per_second"`
	FetchP50     time.Duration `json:"fetch_p50"`
	FetchP99     time.Duration `json:"fetch_p99"`
}

// Driver runs a workload against one pool
type Driver struct {
	cfg    Config
	pool   *pool.Pool
	logger *zap.Logger

	fetches  int64
	recycles int64
	rejected int64
	errs     int64

	latency    *metrics.LatencyTracker
	throughput *metrics.ThroughputTracker

	errOnce  sync.Once
	firstErr error
}

// New creates a driver; zero config fields get defaults
func New(p *pool.Pool, cfg Config, logger *zap.Logger) *Driver {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Hold < 1 {
		cfg.Hold = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		cfg:        cfg,
		pool:       p,
		logger:     logger,
		latency:    metrics.NewLatencyTracker(10000),
		throughput: metrics.NewThroughputTracker(p.Name(), "fetch"),
	}
}

// Run starts the workers and blocks until they finish, the duration elapses
// or ctx is cancelled. Every unit fetched is recycled before Run returns.
// The first fetch failure stops the run and is returned.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	if d.cfg.Operations <= 0 && d.cfg.Duration <= 0 && ctx.Done() == nil {
		return Result{}, errors.New(errors.ErrorTypeValidation, "workload needs operations, a duration or a cancellable context")
	}
	if d.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Duration)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.logger.Info("Workload started",
		zap.String("pool", d.pool.Name()),
		zap.Int("workers", d.cfg.Workers),
		zap.Int("operations", d.cfg.Operations),
		zap.Int("hold", d.cfg.Hold))

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := d.worker(ctx, id); err != nil {
				d.errOnce.Do(func() { d.firstErr = err })
				cancel()
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	res := Result{
		Workers:  d.cfg.Workers,
		Fetches:  atomic.LoadInt64(&d.fetches),
		Recycles: atomic.LoadInt64(&d.recycles),
		Rejected: atomic.LoadInt64(&d.rejected),
		Errors:   atomic.LoadInt64(&d.errs),
		Duration: elapsed,
		FetchP50: d.latency.GetPercentile(50),
		FetchP99: d.latency.GetPercentile(99),
	}
	if elapsed > 0 {
		res.OpsPerSecond = float64(res.Fetches+res.Recycles) / elapsed.Seconds()
	}
	d.throughput.GetAndReset()

	d.logger.Info("Workload finished",
		zap.Int64("fetches", res.Fetches),
		zap.Int64("recycles", res.Recycles),
		zap.Int64("rejected", res.Rejected),
		zap.Duration("duration", elapsed),
		zap.Float64("ops_per_second", res.OpsPerSecond))
	return res, d.firstErr
}

func (d *Driver) worker(ctx context.Context, id int) error {
	held := make([]*pool.Unit, 0, d.cfg.Hold)
	defer func() { d.recycleAll(held) }()

	name := d.pool.Name()
	fetchLatency := metrics.OperationLatency.WithLabelValues(name, "fetch")
	recycleLatency := metrics.OperationLatency.WithLabelValues(name, "recycle")

	for op := 1; d.cfg.Operations <= 0 || op <= d.cfg.Operations; op++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		timer := metrics.NewTimer("fetch")
		u, err := d.pool.Fetch()
		elapsed := timer.Stop()
		if err != nil {
			atomic.AddInt64(&d.errs, 1)
			d.logger.Error("fetch failed", zap.Int("worker", id), zap.Error(err))
			return err
		}
		fetchLatency.Observe(float64(elapsed.Nanoseconds()))
		d.latency.Record(elapsed)
		d.throughput.Increment(1)
		atomic.AddInt64(&d.fetches, 1)

		// touch the unit so the memory is really used
		b := u.Bytes()
		for i := 0; i < len(b); i += 64 {
			b[i] = byte(op)
		}
		held = append(held, u)
		if n := d.cfg.ForeignRecycleEvery; n > 0 && op%n == 0 {
			d.recycleForeign(id)
		}
		if len(held) < d.cfg.Hold {
			continue
		}

		timer = metrics.NewTimer("recycle")
		d.recycleAll(held)
		recycleLatency.Observe(float64(timer.Stop().Nanoseconds()))

		held = held[:0]
	}
	return nil
}

func (d *Driver) recycleAll(units []*pool.Unit) {
	for _, u := range units {
		if err := d.pool.Recycle(u); err != nil {
			atomic.AddInt64(&d.errs, 1)
			d.logger.Warn("recycle failed", zap.Uint64("unit", u.ID()), zap.Error(err))
			continue
		}
		atomic.AddInt64(&d.recycles, 1)
	}
}

// recycleForeign hands the pool a unit it never issued, which it must refuse.
func (d *Driver) recycleForeign(worker int) {
	err := d.pool.Recycle(new(pool.Unit))
	if stderrors.Is(err, pool.ErrNotOwned) {
		atomic.AddInt64(&d.rejected, 1)
		return
	}
	atomic.AddInt64(&d.errs, 1)
	d.logger.Warn("foreign unit not rejected", zap.Int("worker", worker), zap.Error(err))
}
