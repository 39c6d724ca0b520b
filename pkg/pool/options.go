package pool

import (
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/unitpool/pkg/config"
)

// Clock supplies the current time to the shrink policy.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Pool at construction. Options are applied in order,
// so a later option overrides an earlier one.
//
// Example:
//
//	p := pool.New(
//	    pool.WithUnitSize(512),
//	    pool.WithFreeSizeThreshold(4096),
//	    pool.WithSizeFunc(func(u *pool.Unit) int { return u.Len() }),
//	    pool.WithFreeFunc(func(u *pool.Unit) { clear(u.Bytes()) }),
//	)
type Option func(*Pool)

// WithName labels the pool in logs, status and metrics.
func WithName(name string) Option {
	return func(p *Pool) { p.name = name }
}

// WithUnitSize sets the size of every unit in bytes.
func WithUnitSize(n int) Option {
	return func(p *Pool) { p.unitSize = n }
}

// WithBatchCount sets how many units are allocated per growth step.
// Values below 1 are treated as 1.
func WithBatchCount(n int) Option {
	return func(p *Pool) { p.allocnum = max(n, 1) }
}

// WithFreeSizeThreshold destroys recycled units whose reported size is at
// least n bytes instead of keeping them. Zero disables the check.
func WithFreeSizeThreshold(n int) Option {
	return func(p *Pool) { p.freeThreshold = n }
}

// WithInitFunc runs fn on every unit returned by Fetch, outside the pool lock.
func WithInitFunc(fn func(*Unit)) Option {
	return func(p *Pool) { p.initFn = fn }
}

// WithFreeFunc runs fn on every unit before its memory is released.
func WithFreeFunc(fn func(*Unit)) Option {
	return func(p *Pool) { p.freeFn = fn }
}

// WithSizeFunc reports a unit's effective size for the free-size threshold.
func WithSizeFunc(fn func(*Unit) int) Option {
	return func(p *Pool) { p.sizeFn = fn }
}

// WithStrategy selects independent or slab allocation. Slab carves each
// batch from one region, which is returned to the allocator only after
// every unit cut from it has been destroyed.
func WithStrategy(s config.Strategy) Option {
	return func(p *Pool) { p.strategy = s }
}

// WithLedgerMode selects intrusive or separate ledger storage.
func WithLedgerMode(m config.LedgerMode) Option {
	return func(p *Pool) { p.ledgerMode = m }
}

// WithAllocator replaces the memory source. A nil allocator is ignored.
//
// Parameters:
//   - a: HeapAllocator, MmapAllocator or a custom implementation; it must be
//     safe to call Free from any goroutine
func WithAllocator(a Allocator) Option {
	return func(p *Pool) {
		if a != nil {
			p.alloc = a
		}
	}
}

// WithIdleWindow sets how long the pool must stay over-provisioned before
// surplus units are released.
func WithIdleWindow(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.idleWindow = d
		}
	}
}

// WithMaxUnits caps the number of allocated units. Zero means unlimited.
func WithMaxUnits(n int) Option {
	return func(p *Pool) { p.maxUnits = n }
}

// WithClock replaces the time source, mainly for tests.
func WithClock(c Clock) Option {
	return func(p *Pool) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets the logger. Defaults to the global logger named "pool".
func WithLogger(l *zap.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// configOptions translates a validated PoolConfig into options.
func configOptions(cfg config.PoolConfig) []Option {
	return []Option{
		WithName(cfg.Name),
		WithUnitSize(cfg.UnitSize),
		WithBatchCount(cfg.BatchCount),
		WithFreeSizeThreshold(cfg.FreeSizeThreshold),
		WithMaxUnits(cfg.MaxUnits),
		WithStrategy(cfg.Strategy),
		WithLedgerMode(cfg.LedgerMode),
		WithAllocator(allocatorFor(cfg.Allocator)),
		WithIdleWindow(cfg.IdleWindow),
	}
}
