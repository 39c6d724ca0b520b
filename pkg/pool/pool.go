package pool

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/unitpool/pkg/config"
	"github.com/ajitpratap0/unitpool/pkg/errors"
	"github.com/ajitpratap0/unitpool/pkg/logger"
	"github.com/ajitpratap0/unitpool/pkg/ringqueue"
)

// Kind sentinels for errors.Is.
var (
	ErrInvalidUnitSize = errors.Kind(errors.ErrorTypeConfig, "unit size must be positive")
	ErrAllocation      = errors.Kind(errors.ErrorTypeAllocation, "unit allocation failed")
	ErrNotOwned        = errors.Kind(errors.ErrorTypeNotOwned, "unit is not issued by this pool")
	ErrClosed          = errors.Kind(errors.ErrorTypeClosed, "pool is destroyed")
	ErrLeaked          = errors.Kind(errors.ErrorTypeLeak, "units still issued at destroy")
)

// Pool hands out fixed-size units and takes them back. It is safe for
// concurrent use.
//
// Fresh units sit in a free queue and returned ones in a recycle queue.
// Fetch prefers the free queue; shrinking prefers the recycle queue. Every
// issued unit is recorded in a ledger, so recycling a unit twice (or one
// the pool never issued) is rejected without touching the counters.
type Pool struct {
	mu sync.Mutex

	name          string
	unitSize      int
	allocnum      int
	freeThreshold int
	maxUnits      int
	strategy      config.Strategy
	ledgerMode    config.LedgerMode
	alloc         Allocator
	idleWindow    time.Duration
	clock         Clock
	log           *zap.Logger

	initFn func(*Unit)
	freeFn func(*Unit)
	sizeFn func(*Unit) int

	free     *ringqueue.Queue[*Unit]
	recycled *ringqueue.Queue[*Unit]
	issued   ledger
	nextID   uint64

	allocated int
	consumed  int
	remaining int

	idle      bool
	idleSince time.Time
	closed    bool

	stats counters
}

type counters struct {
	fetches   uint64
	recycles  uint64
	rejected  uint64
	destroyed uint64
	batches   uint64
	shrinks   uint64
	failures  uint64
}

// New creates an empty pool. No memory is allocated until the first Fetch
// or Reserve, so a pool created without WithUnitSize can still be
// configured with SetUnitSize before use.
//
// Parameters:
//   - opts: Functional options; unset values default to batch count 1,
//     independent allocation, an intrusive ledger, the heap allocator and
//     a 300s idle window
//
// Example:
//
//	p := pool.New(
//	    pool.WithName("frames"),
//	    pool.WithUnitSize(4096),
//	    pool.WithBatchCount(64),
//	    pool.WithStrategy(config.StrategySlab),
//	)
//	defer p.Destroy()
func New(opts ...Option) *Pool {
	p := &Pool{
		name:       "default",
		allocnum:   1,
		strategy:   config.StrategyIndependent,
		ledgerMode: config.LedgerIntrusive,
		alloc:      HeapAllocator{},
		idleWindow: config.DefaultIdleWindow,
		clock:      systemClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Named("pool")
	}
	p.log = p.log.With(zap.String("pool", p.name))

	p.free = ringqueue.New[*Unit](p.allocnum)
	p.recycled = ringqueue.New[*Unit](p.allocnum)
	p.issued = newLedger(p.ledgerMode)
	return p
}

// NewFromConfig validates cfg and creates a pool from it. Options are
// applied after the configuration, so they can supply callbacks or
// override individual settings.
//
// Parameters:
//   - cfg: Pool settings, usually loaded with config.LoadPoolConfig
//   - opts: Extra options applied on top of cfg
//
// Example:
//
//	cfg, err := config.LoadPoolConfig("pool.yaml")
//	if err != nil {
//	    return err
//	}
//	p, err := pool.NewFromConfig(cfg, pool.WithInitFunc(func(u *pool.Unit) {
//	    clear(u.Bytes())
//	}))
func NewFromConfig(cfg config.PoolConfig, opts ...Option) (*Pool, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return New(append(configOptions(cfg), opts...)...), nil
}

// Name returns the pool's label.
func (p *Pool) Name() string { return p.name }

// Fetch issues a unit, allocating a new batch when no unit is available.
// Never-issued units are handed out before recycled ones. After taking a
// unit, Fetch refills an empty pool with one more batch so the next call
// does not wait on allocation. The init function, if any, runs on the unit
// after the pool lock is released.
//
// Errors:
//   - ErrClosed after Destroy
//   - ErrInvalidUnitSize when no positive unit size is set
//   - ErrAllocation when the allocator fails or MaxUnits is reached
//
// Example:
//
//	u, err := p.Fetch()
//	if err != nil {
//	    return err
//	}
//	defer p.Recycle(u)
//	n := copy(u.Bytes(), payload)
func (p *Pool) Fetch() (*Unit, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New(errors.ErrorTypeClosed, "fetch from destroyed pool").
			WithDetail("pool", p.name)
	}
	if p.unitSize <= 0 {
		p.mu.Unlock()
		return nil, errors.New(errors.ErrorTypeConfig, "unit size must be positive").
			WithDetail("unit_size", p.unitSize)
	}

	if p.free.Len() == 0 && p.recycled.Len() == 0 {
		if err := p.grow(); err != nil {
			p.stats.failures++
			p.mu.Unlock()
			return nil, err
		}
	}

	u, ok := p.free.PopFront()
	if !ok {
		u, _ = p.recycled.PopFront()
	}
	if !p.issued.insert(u) {
		p.mu.Unlock()
		panic(fmt.Sprintf("pool %q: unit %d issued twice, ledger corrupted", p.name, u.id))
	}
	p.remaining--
	p.consumed++
	p.stats.fetches++

	// Refill eagerly so the next Fetch finds a unit waiting. The caller
	// already has its unit, so a failure here is not counted; the next
	// Fetch retries and reports it.
	if p.free.Len() == 0 && p.recycled.Len() == 0 && !p.atLimit() {
		if err := p.grow(); err != nil {
			p.log.Warn("eager batch allocation failed", zap.Error(err))
		}
	}

	doomed := p.checkShrink()
	initFn, freeFn := p.initFn, p.freeFn
	p.mu.Unlock()

	p.release(doomed, freeFn)
	if initFn != nil {
		initFn(u)
	}
	return u, nil
}

// Recycle returns an issued unit to the pool. Recycling a unit that is not
// currently issued by this pool fails with a not-owned error and changes
// nothing. This covers double recycles, nil units and units of other pools.
//
// The unit's length is restored to the unit size. When a size function and
// free-size threshold are set and the unit reports a size at or above the
// threshold, the unit is destroyed instead of queued.
//
// Parameters:
//   - u: A unit obtained from this pool's Fetch and not yet recycled
//
// Example:
//
//	if err := p.Recycle(u); errors.Is(err, pool.ErrNotOwned) {
//	    log.Warn("unit recycled twice", zap.Uint64("unit", u.ID()))
//	}
func (p *Pool) Recycle(u *Unit) error {
	if u == nil {
		return errors.New(errors.ErrorTypeNotOwned, "cannot recycle nil unit")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New(errors.ErrorTypeClosed, "recycle into destroyed pool").
			WithDetail("pool", p.name)
	}
	if !p.issued.remove(u) {
		p.stats.rejected++
		p.mu.Unlock()
		p.log.Warn("rejected recycle of unit not issued by pool", zap.Uint64("unit", u.id))
		return errors.New(errors.ErrorTypeNotOwned, "unit is not issued by this pool").
			WithDetail("unit", u.id).
			WithDetail("pool", p.name)
	}
	p.stats.recycles++

	var doomed []*Unit
	switch {
	case p.sizeFn != nil && p.freeThreshold > 0 && p.sizeFn(u) >= p.freeThreshold:
		doomed = append(doomed, u)
		p.allocated--
		p.consumed--
		p.stats.destroyed++
	default:
		u.buf = u.home
		if err := p.recycled.Push(u); err != nil {
			// The recycle queue could not grow; drop the unit instead.
			p.log.Warn("recycle queue full, destroying unit", zap.Uint64("unit", u.id), zap.Error(err))
			doomed = append(doomed, u)
			p.allocated--
			p.consumed--
			p.stats.destroyed++
			break
		}
		p.remaining++
		p.consumed--
	}

	doomed = append(doomed, p.checkShrink()...)
	freeFn := p.freeFn
	p.mu.Unlock()

	p.release(doomed, freeFn)
	return nil
}

// Reserve allocates whole batches until at least n units are available
// without further allocation.
func (p *Pool) Reserve(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New(errors.ErrorTypeClosed, "reserve on destroyed pool")
	}
	if p.unitSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "unit size must be positive").
			WithDetail("unit_size", p.unitSize)
	}
	for p.remaining < n {
		if err := p.grow(); err != nil {
			p.stats.failures++
			return err
		}
	}
	return nil
}

// Maintain evaluates the idle shrink policy without issuing or returning a
// unit. Callers with long quiet periods can run it on a ticker so surplus
// units are released even when no traffic arrives.
func (p *Pool) Maintain() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	doomed := p.checkShrink()
	freeFn := p.freeFn
	p.mu.Unlock()

	p.release(doomed, freeFn)
}

// Destroy frees every unit held by the pool and discards the ledger. Units
// still issued are the caller's and are not freed; their count is reported
// as a leak error. After Destroy, Fetch and Recycle fail.
func (p *Pool) Destroy() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	var doomed []*Unit
	collect := func(u *Unit) { doomed = append(doomed, u) }
	p.recycled.Destroy(collect)
	p.free.Destroy(collect)
	leaked := p.issued.len()
	p.issued.clear()

	p.allocated -= len(doomed)
	p.remaining = 0
	p.stats.destroyed += uint64(len(doomed))
	p.idle = false
	freeFn := p.freeFn
	p.mu.Unlock()

	p.release(doomed, freeFn)

	if leaked > 0 {
		p.log.Error("pool destroyed with units still issued", zap.Int("leaked", leaked))
		return errors.New(errors.ErrorTypeLeak, "units still issued at destroy").
			WithDetail("pool", p.name).
			WithDetail("leaked", leaked)
	}
	p.log.Debug("pool destroyed", zap.Int("freed", len(doomed)))
	return nil
}

// SetUnitSize changes the unit size. Call it before the first Fetch.
func (p *Pool) SetUnitSize(n int) {
	p.mu.Lock()
	p.unitSize = n
	p.mu.Unlock()
}

// SetBatchCount changes the growth step, treating values below 1 as 1.
func (p *Pool) SetBatchCount(n int) {
	p.mu.Lock()
	p.allocnum = max(n, 1)
	p.mu.Unlock()
}

// SetFreeSizeThreshold changes the immediate-destroy threshold.
func (p *Pool) SetFreeSizeThreshold(n int) {
	p.mu.Lock()
	p.freeThreshold = n
	p.mu.Unlock()
}

// SetInitFunc replaces the unit initializer.
func (p *Pool) SetInitFunc(fn func(*Unit)) {
	p.mu.Lock()
	p.initFn = fn
	p.mu.Unlock()
}

// SetFreeFunc replaces the unit destructor.
func (p *Pool) SetFreeFunc(fn func(*Unit)) {
	p.mu.Lock()
	p.freeFn = fn
	p.mu.Unlock()
}

// SetSizeFunc replaces the size query.
func (p *Pool) SetSizeFunc(fn func(*Unit) int) {
	p.mu.Lock()
	p.sizeFn = fn
	p.mu.Unlock()
}

// grow allocates one batch onto the free queue. Called with mu held; on
// failure the pool is unchanged.
// atLimit reports whether another batch would exceed maxUnits.
func (p *Pool) atLimit() bool {
	return p.maxUnits > 0 && p.allocated+p.allocnum > p.maxUnits
}

func (p *Pool) grow() error {
	n := p.allocnum
	if p.atLimit() {
		return errors.New(errors.ErrorTypeAllocation, "unit limit reached").
			WithDetail("allocated", p.allocated).
			WithDetail("batch", n).
			WithDetail("max_units", p.maxUnits)
	}
	if err := p.free.Reserve(n); err != nil {
		return errors.Wrap(err, errors.ErrorTypeAllocation, "free queue growth failed")
	}

	units, err := carve(p.alloc, p.strategy, p.unitSize, n, p.newID)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeAllocation) {
			return err
		}
		return errors.Wrap(err, errors.ErrorTypeAllocation, "batch allocation failed")
	}
	for _, u := range units {
		// room was reserved above
		_ = p.free.Push(u)
	}

	p.allocated += n
	p.remaining += n
	p.stats.batches++
	p.log.Debug("allocated batch",
		zap.Int("units", n),
		zap.Int("unit_size", p.unitSize),
		zap.String("strategy", string(p.strategy)),
		zap.Int("allocated", p.allocated))
	return nil
}

func (p *Pool) newID() uint64 {
	p.nextID++
	return p.nextID
}

// checkShrink applies the idle shrink policy and returns the units it
// removed from the queues. Called with mu held.
func (p *Pool) checkShrink() []*Unit {
	threshold := 2 * p.allocnum
	if p.allocated <= p.allocnum || p.remaining < threshold {
		p.idle = false
		return nil
	}

	now := p.clock.Now()
	if !p.idle {
		p.idle = true
		p.idleSince = now
		return nil
	}
	if now.Sub(p.idleSince) <= p.idleWindow {
		return nil
	}

	var doomed []*Unit
	// Drain all the way down to one batch, not just below the threshold.
	for p.allocated > p.allocnum {
		u, ok := p.recycled.PopFront()
		if !ok {
			if u, ok = p.free.PopFront(); !ok {
				break
			}
		}
		doomed = append(doomed, u)
		p.allocated--
		p.remaining--
	}
	p.idle = false
	p.stats.shrinks++
	p.stats.destroyed += uint64(len(doomed))
	p.log.Info("shrank idle pool",
		zap.Int("released", len(doomed)),
		zap.Int("allocated", p.allocated),
		zap.Int("remaining", p.remaining),
		zap.Duration("idle", now.Sub(p.idleSince)))
	return doomed
}

// release runs the destructor on each unit and returns backing regions to
// the allocator once their last unit is gone. Called without mu.
func (p *Pool) release(units []*Unit, freeFn func(*Unit)) {
	for _, u := range units {
		if freeFn != nil {
			freeFn(u)
		}
		reg := u.reg
		u.buf, u.home, u.reg = nil, nil, nil
		if reg != nil && reg.release() {
			if err := p.alloc.Free(reg.data); err != nil {
				p.log.Error("failed to free unit memory", zap.Uint64("unit", u.id), zap.Error(err))
			}
		}
	}
}
