package pool_test

import (
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/unitpool/pkg/config"
	"github.com/ajitpratap0/unitpool/pkg/errors"
	"github.com/ajitpratap0/unitpool/pkg/mmap"
	"github.com/ajitpratap0/unitpool/pkg/pool"
	"github.com/ajitpratap0/unitpool/pkg/testutil"
)

// countingAllocator counts calls and can fail after a number of allocations.
type countingAllocator struct {
	mu        sync.Mutex
	allocs    int
	frees     int
	failAfter int // 0 never fails
}

func (a *countingAllocator) Alloc(size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failAfter > 0 && a.allocs >= a.failAfter {
		return nil, fmt.Errorf("out of memory")
	}
	a.allocs++
	return make([]byte, size), nil
}

func (a *countingAllocator) Free([]byte) error {
	a.mu.Lock()
	a.frees++
	a.mu.Unlock()
	return nil
}

func (a *countingAllocator) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs, a.frees
}

func fetchN(t *testing.T, p *pool.Pool, n int) []*pool.Unit {
	t.Helper()
	units := make([]*pool.Unit, 0, n)
	for i := 0; i < n; i++ {
		u, err := p.Fetch()
		require.NoError(t, err)
		units = append(units, u)
	}
	return units
}

func assertBalanced(t *testing.T, s pool.Status) {
	t.Helper()
	assert.Equal(t, s.Allocated, s.Consumed+s.Remaining, "allocated must equal consumed+remaining")
	assert.Equal(t, s.Remaining, s.FreeLen+s.RecycleLen)
}

// PoolTestSuite covers fetch, recycle and shrink with a fake clock.
type PoolTestSuite struct {
	testutil.PoolSuite
	logs *observer.ObservedLogs
	log  *zap.Logger
}

func (s *PoolTestSuite) SetupTest() {
	s.PoolSuite.SetupTest()
	core, logs := observer.New(zapcore.DebugLevel)
	s.logs = logs
	s.log = zap.New(zapcore.NewTee(core, s.Logger.Core()))
}

func (s *PoolTestSuite) newPool(opts ...pool.Option) *pool.Pool {
	base := []pool.Option{pool.WithClock(s.Clock), pool.WithLogger(s.log)}
	return pool.New(append(base, opts...)...)
}

func (s *PoolTestSuite) TestBatchOfFourScenario() {
	p := s.newPool(pool.WithUnitSize(64), pool.WithBatchCount(4))
	units := fetchN(s.T(), p, 4)
	for _, u := range units[:2] {
		s.Require().NoError(p.Recycle(u))
	}

	st := p.Status()
	s.Equal(8, st.Allocated)
	s.Equal(2, st.Consumed)
	s.Equal(6, st.Remaining)
	s.Equal(uint64(2), st.Batches)
	assertBalanced(s.T(), st)
}

func (s *PoolTestSuite) TestNoDoubleIssuance() {
	p := s.newPool(pool.WithUnitSize(8), pool.WithBatchCount(3))
	seen := map[uint64]bool{}
	units := fetchN(s.T(), p, 10)
	for _, u := range units {
		s.False(seen[u.ID()], "unit %d issued twice", u.ID())
		seen[u.ID()] = true
	}
}

func (s *PoolTestSuite) TestDoubleRecycleRejected() {
	p := s.newPool(pool.WithUnitSize(16), pool.WithBatchCount(2))
	u, err := p.Fetch()
	s.Require().NoError(err)
	s.Require().NoError(p.Recycle(u))
	before := p.Status()

	err = p.Recycle(u)
	s.Require().Error(err)
	s.True(stderrors.Is(err, pool.ErrNotOwned))
	s.True(errors.IsType(err, errors.ErrorTypeNotOwned))
	s.Equal(u.ID(), errors.GetDetails(err)["unit"])

	after := p.Status()
	s.Equal(before.Allocated, after.Allocated)
	s.Equal(before.Consumed, after.Consumed)
	s.Equal(before.Remaining, after.Remaining)
	s.Equal(uint64(1), after.Rejected)
	s.Equal(1, s.logs.FilterMessage("rejected recycle of unit not issued by pool").Len())
}

func (s *PoolTestSuite) TestForeignUnitRejected() {
	a := s.newPool(pool.WithName("a"), pool.WithUnitSize(16))
	b := s.newPool(pool.WithName("b"), pool.WithUnitSize(16))

	ua, err := a.Fetch()
	s.Require().NoError(err)
	ub, err := b.Fetch()
	s.Require().NoError(err)
	// same id, different pools
	s.Equal(ua.ID(), ub.ID())

	s.ErrorIs(b.Recycle(ua), pool.ErrNotOwned)
	s.ErrorIs(b.Recycle(nil), pool.ErrNotOwned)
	s.NoError(b.Recycle(ub))
	s.NoError(a.Recycle(ua))
}

func (s *PoolTestSuite) TestFetchPrefersFreeQueue() {
	p := s.newPool(pool.WithUnitSize(8), pool.WithBatchCount(4))
	first, err := p.Fetch()
	s.Require().NoError(err)
	s.Require().NoError(p.Recycle(first))

	for i := 0; i < 3; i++ {
		u, err := p.Fetch()
		s.Require().NoError(err)
		s.NotEqual(first.ID(), u.ID())
	}
	u, err := p.Fetch()
	s.Require().NoError(err)
	s.Equal(first.ID(), u.ID())
}

func (s *PoolTestSuite) TestShrinkAfterIdleWindow() {
	var freed atomic.Int32
	p := s.newPool(
		pool.WithUnitSize(64),
		pool.WithBatchCount(2),
		pool.WithFreeFunc(func(*pool.Unit) { freed.Add(1) }),
	)
	units := fetchN(s.T(), p, 4)
	st := p.Status()
	s.Equal(6, st.Allocated)
	s.Equal(4, st.Consumed)
	s.Equal(2, st.Remaining)

	s.Require().NoError(p.Recycle(units[0]))
	s.True(p.Status().IdleSince.IsZero())
	s.Require().NoError(p.Recycle(units[1]))
	start := s.Clock.Now()
	s.Equal(start, p.Status().IdleSince)

	s.Clock.Advance(301 * time.Second)
	s.Require().NoError(p.Recycle(units[2]))

	st = p.Status()
	s.Equal(2, st.Allocated)
	s.Equal(1, st.Consumed)
	s.Equal(1, st.Remaining)
	s.Equal(uint64(1), st.Shrinks)
	s.Equal(uint64(4), st.Destroyed)
	s.True(st.IdleSince.IsZero())
	s.Equal(int32(4), freed.Load())
	assertBalanced(s.T(), st)

	s.Require().NoError(p.Recycle(units[3]))
	st = p.Status()
	s.Equal(2, st.Allocated)
	s.Equal(0, st.Consumed)
	s.Equal(2, st.Remaining)

	entries := s.logs.FilterMessage("shrank idle pool").All()
	s.Require().Len(entries, 1)
	s.Equal(int64(4), entries[0].ContextMap()["released"])
}

func (s *PoolTestSuite) TestShrinkNeedsMoreThanWindow() {
	p := s.newPool(pool.WithUnitSize(64), pool.WithBatchCount(2))
	units := fetchN(s.T(), p, 4)
	s.Require().NoError(p.Recycle(units[0]))
	s.Require().NoError(p.Recycle(units[1]))

	s.Clock.Advance(300 * time.Second)
	s.Require().NoError(p.Recycle(units[2]))
	s.Equal(6, p.Status().Allocated)

	s.Clock.Advance(time.Second)
	s.Require().NoError(p.Recycle(units[3]))
	s.Equal(2, p.Status().Allocated)
}

func (s *PoolTestSuite) TestShrinkTimerResets() {
	p := s.newPool(pool.WithUnitSize(64), pool.WithBatchCount(2), pool.WithIdleWindow(time.Minute))
	units := fetchN(s.T(), p, 4)
	s.Require().NoError(p.Recycle(units[0]))
	s.Require().NoError(p.Recycle(units[1]))
	s.False(p.Status().IdleSince.IsZero())

	// dropping below the threshold stops the timer
	again, err := p.Fetch()
	s.Require().NoError(err)
	s.True(p.Status().IdleSince.IsZero())

	s.Clock.Advance(2 * time.Minute)
	s.Require().NoError(p.Recycle(again))
	st := p.Status()
	s.Equal(6, st.Allocated)
	s.Equal(uint64(0), st.Shrinks)
	s.Equal(s.Clock.Now(), st.IdleSince)
}

func (s *PoolTestSuite) TestNeverShrinksBelowBatch() {
	p := s.newPool(pool.WithUnitSize(8), pool.WithBatchCount(4), pool.WithIdleWindow(time.Second))
	units := fetchN(s.T(), p, 2)
	for _, u := range units {
		s.Require().NoError(p.Recycle(u))
	}
	s.Clock.Advance(time.Hour)
	u, err := p.Fetch()
	s.Require().NoError(err)
	s.Require().NoError(p.Recycle(u))
	s.Equal(4, p.Status().Allocated)
}

func TestPoolTestSuite(t *testing.T) {
	suite.Run(t, new(PoolTestSuite))
}

func TestFetchRequiresUnitSize(t *testing.T) {
	p := pool.New(pool.WithLogger(zap.NewNop()))
	_, err := p.Fetch()
	require.Error(t, err)
	assert.ErrorIs(t, err, pool.ErrInvalidUnitSize)
	assert.ErrorIs(t, p.Reserve(1), pool.ErrInvalidUnitSize)

	p.SetUnitSize(32)
	u, err := p.Fetch()
	require.NoError(t, err)
	assert.Equal(t, 32, u.Len())
}

func TestSizeThresholdDestroysImmediately(t *testing.T) {
	var freed []uint64
	p := pool.New(
		pool.WithLogger(zap.NewNop()),
		pool.WithUnitSize(64),
		pool.WithFreeSizeThreshold(128),
		pool.WithSizeFunc(func(u *pool.Unit) int { return u.Len() }),
		pool.WithFreeFunc(func(u *pool.Unit) { freed = append(freed, u.ID()) }),
	)

	small, err := p.Fetch()
	require.NoError(t, err)
	big, err := p.Fetch()
	require.NoError(t, err)
	big.Resize(256)
	assert.Equal(t, 256, big.Len())

	require.NoError(t, p.Recycle(small))
	require.NoError(t, p.Recycle(big))

	st := p.Status()
	assert.Equal(t, []uint64{big.ID()}, freed)
	assert.Equal(t, uint64(1), st.Destroyed)
	assert.Equal(t, 0, st.Consumed)
	assertBalanced(t, st)
	assert.Nil(t, big.Bytes())
}

func TestThresholdDisabledWithoutSizeFunc(t *testing.T) {
	p := pool.New(pool.WithLogger(zap.NewNop()), pool.WithUnitSize(64), pool.WithFreeSizeThreshold(1))
	u, err := p.Fetch()
	require.NoError(t, err)
	require.NoError(t, p.Recycle(u))
	assert.Equal(t, uint64(0), p.Status().Destroyed)
}

func TestRecycleRestoresUnitSize(t *testing.T) {
	p := pool.New(pool.WithLogger(zap.NewNop()), pool.WithUnitSize(64))
	u, err := p.Fetch()
	require.NoError(t, err)
	u.Bytes()[0] = 7
	u.Resize(200)
	assert.Equal(t, byte(7), u.Bytes()[0])
	require.NoError(t, p.Recycle(u))

	// batch 1 refilled eagerly, so the recycled unit comes back second
	_, err = p.Fetch()
	require.NoError(t, err)
	back, err := p.Fetch()
	require.NoError(t, err)
	assert.Equal(t, u.ID(), back.ID())
	assert.Equal(t, 64, back.Len())
	assert.Equal(t, byte(7), back.Bytes()[0])
}

func TestMaxUnitsLimitsGrowth(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := pool.New(
		pool.WithLogger(zap.New(core)),
		pool.WithUnitSize(8),
		pool.WithBatchCount(2),
		pool.WithMaxUnits(2),
	)
	fetchN(t, p, 2)
	assert.Zero(t, logs.Len(), "a refill blocked by the limit is not a failure")
	assert.Equal(t, uint64(0), p.Status().Failures)

	_, err := p.Fetch()
	require.Error(t, err)
	assert.ErrorIs(t, err, pool.ErrAllocation)

	st := p.Status()
	assert.Equal(t, 2, st.Allocated)
	assert.Equal(t, 2, st.Consumed)
	assert.Equal(t, 0, st.Remaining)
	assert.Equal(t, uint64(1), st.Failures)
}

func TestEagerRefillFailureNotCounted(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	alloc := &countingAllocator{failAfter: 2}
	p := pool.New(
		pool.WithLogger(zap.New(core)),
		pool.WithUnitSize(8),
		pool.WithBatchCount(2),
		pool.WithAllocator(alloc),
	)

	// the first batch succeeds; refilling after the second fetch does not
	fetchN(t, p, 2)
	assert.Equal(t, 1, logs.FilterMessage("eager batch allocation failed").Len())
	assert.Equal(t, uint64(0), p.Status().Failures)

	_, err := p.Fetch()
	assert.ErrorIs(t, err, pool.ErrAllocation)

	st := p.Status()
	assert.Equal(t, uint64(2), st.Fetches)
	assert.Equal(t, uint64(1), st.Failures)
	assertBalanced(t, st)
}

func TestAllocatorFailureLeavesPoolUnchanged(t *testing.T) {
	alloc := &countingAllocator{failAfter: 2}
	p := pool.New(
		pool.WithLogger(zap.NewNop()),
		pool.WithUnitSize(8),
		pool.WithBatchCount(3),
		pool.WithAllocator(alloc),
	)

	_, err := p.Fetch()
	require.Error(t, err)
	assert.ErrorIs(t, err, pool.ErrAllocation)

	allocs, frees := alloc.counts()
	assert.Equal(t, 2, allocs)
	assert.Equal(t, 2, frees, "partial batch must be returned")

	st := p.Status()
	assert.Equal(t, 0, st.Allocated)
	assert.Equal(t, 0, st.Remaining)
	assert.Equal(t, uint64(0), st.Batches)
}

func TestSlabSharesOneRegion(t *testing.T) {
	alloc := &countingAllocator{}
	p := pool.New(
		pool.WithLogger(zap.NewNop()),
		pool.WithUnitSize(16),
		pool.WithBatchCount(4),
		pool.WithStrategy(config.StrategySlab),
		pool.WithAllocator(alloc),
	)

	units := fetchN(t, p, 3)
	allocs, _ := alloc.counts()
	assert.Equal(t, 1, allocs)

	for i, u := range units {
		for j := range u.Bytes() {
			u.Bytes()[j] = byte(i + 1)
		}
	}
	for i, u := range units {
		for _, b := range u.Bytes() {
			require.Equal(t, byte(i+1), b, "slab units overlap")
		}
	}

	for _, u := range units {
		require.NoError(t, p.Recycle(u))
	}
	require.NoError(t, p.Destroy())
	_, frees := alloc.counts()
	assert.Equal(t, 1, frees)
}

func TestIndependentFreesEachUnit(t *testing.T) {
	alloc := &countingAllocator{}
	p := pool.New(
		pool.WithLogger(zap.NewNop()),
		pool.WithUnitSize(16),
		pool.WithBatchCount(4),
		pool.WithAllocator(alloc),
	)
	u, err := p.Fetch()
	require.NoError(t, err)
	require.NoError(t, p.Recycle(u))
	require.NoError(t, p.Destroy())

	allocs, frees := alloc.counts()
	assert.Equal(t, 4, allocs)
	assert.Equal(t, 4, frees)
}

func TestMmapSlab(t *testing.T) {
	before := mmap.GetStats()
	p := pool.New(
		pool.WithLogger(zap.NewNop()),
		pool.WithUnitSize(256),
		pool.WithBatchCount(8),
		pool.WithStrategy(config.StrategySlab),
		pool.WithAllocator(pool.MmapAllocator{}),
	)
	units := fetchN(t, p, 8)
	for _, u := range units {
		assert.Equal(t, 256, u.Len())
		u.Bytes()[255] = 0xff
	}
	for _, u := range units {
		require.NoError(t, p.Recycle(u))
	}
	require.NoError(t, p.Destroy())

	after := mmap.GetStats()
	// the eager refill maps a second region
	assert.Equal(t, int64(2), after.Maps-before.Maps)
	assert.Equal(t, int64(2), after.Unmaps-before.Unmaps)
}

func TestDestroyReportsLeaks(t *testing.T) {
	var freed atomic.Int32
	core, logs := observer.New(zapcore.ErrorLevel)
	p := pool.New(
		pool.WithLogger(zap.New(core)),
		pool.WithUnitSize(8),
		pool.WithBatchCount(4),
		pool.WithFreeFunc(func(*pool.Unit) { freed.Add(1) }),
	)
	units := fetchN(t, p, 3)
	require.NoError(t, p.Recycle(units[0]))

	err := p.Destroy()
	require.Error(t, err)
	assert.ErrorIs(t, err, pool.ErrLeaked)
	assert.Equal(t, 2, errors.GetDetails(err)["leaked"])
	assert.Equal(t, int32(2), freed.Load())
	assert.Equal(t, 1, logs.Len())

	st := p.Status()
	assert.True(t, st.Closed)
	assert.Equal(t, 2, st.Allocated)
	assert.Equal(t, 2, st.Consumed)

	_, err = p.Fetch()
	assert.ErrorIs(t, err, pool.ErrClosed)
	assert.ErrorIs(t, p.Recycle(units[1]), pool.ErrClosed)
	assert.ErrorIs(t, p.Reserve(1), pool.ErrClosed)
	assert.NoError(t, p.Destroy(), "second destroy is a no-op")
}

func TestReserve(t *testing.T) {
	p := pool.New(pool.WithLogger(zap.NewNop()), pool.WithUnitSize(8), pool.WithBatchCount(4))
	require.NoError(t, p.Reserve(10))
	st := p.Status()
	assert.Equal(t, 12, st.Allocated)
	assert.Equal(t, 12, st.FreeLen)
	assert.Equal(t, uint64(3), st.Batches)

	require.NoError(t, p.Reserve(5))
	assert.Equal(t, 12, p.Status().Allocated)
}

func TestSetters(t *testing.T) {
	var inits atomic.Int32
	p := pool.New(pool.WithLogger(zap.NewNop()))
	p.SetUnitSize(24)
	p.SetBatchCount(0)
	p.SetInitFunc(func(*pool.Unit) { inits.Add(1) })
	p.SetFreeSizeThreshold(10)
	p.SetSizeFunc(func(*pool.Unit) int { return 10 })
	destroyed := 0
	p.SetFreeFunc(func(*pool.Unit) { destroyed++ })

	u, err := p.Fetch()
	require.NoError(t, err)
	assert.Equal(t, int32(1), inits.Load())
	assert.Equal(t, 1, p.Status().BatchCount)

	require.NoError(t, p.Recycle(u))
	assert.Equal(t, 1, destroyed)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.NewPoolConfig("cfg", 48)
	cfg.BatchCount = 5
	cfg.LedgerMode = config.LedgerSeparate

	p, err := pool.NewFromConfig(cfg, pool.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	assert.Equal(t, "cfg", p.Name())

	u, err := p.Fetch()
	require.NoError(t, err)
	assert.Equal(t, 48, u.Len())
	st := p.Status()
	assert.Equal(t, 5, st.Allocated)
	assert.Equal(t, 5, st.BatchCount)

	cfg.Strategy = "buddy"
	_, err = pool.NewFromConfig(cfg)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestConcurrentFetchRecycle(t *testing.T) {
	combos := []struct {
		strategy config.Strategy
		ledger   config.LedgerMode
	}{
		{config.StrategyIndependent, config.LedgerIntrusive},
		{config.StrategyIndependent, config.LedgerSeparate},
		{config.StrategySlab, config.LedgerIntrusive},
		{config.StrategySlab, config.LedgerSeparate},
	}
	for _, c := range combos {
		t.Run(fmt.Sprintf("%s/%s", c.strategy, c.ledger), func(t *testing.T) {
			clock := testutil.NewFakeClock(time.Unix(0, 0))
			p := pool.New(
				pool.WithLogger(zap.NewNop()),
				pool.WithUnitSize(32),
				pool.WithBatchCount(8),
				pool.WithStrategy(c.strategy),
				pool.WithLedgerMode(c.ledger),
				pool.WithIdleWindow(time.Millisecond),
				pool.WithClock(clock),
			)

			var outstanding sync.Map
			var doubles atomic.Int32
			var wg sync.WaitGroup
			stop := make(chan struct{})

			// observer: counters must balance at every snapshot
			go func() {
				for {
					select {
					case <-stop:
						return
					default:
						st := p.Status()
						if st.Allocated != st.Consumed+st.Remaining {
							doubles.Add(1000)
						}
						clock.Advance(time.Millisecond)
					}
				}
			}()

			for w := 0; w < 16; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					held := make([]*pool.Unit, 0, 4)
					for i := 0; i < 500; i++ {
						u, err := p.Fetch()
						if err != nil {
							t.Error(err)
							return
						}
						if _, loaded := outstanding.LoadOrStore(u.ID(), u); loaded {
							doubles.Add(1)
						}
						held = append(held, u)
						if len(held) == cap(held) || i%3 == 0 {
							for _, h := range held {
								outstanding.Delete(h.ID())
								if err := p.Recycle(h); err != nil {
									t.Error(err)
								}
							}
							held = held[:0]
						}
					}
					for _, h := range held {
						outstanding.Delete(h.ID())
						_ = p.Recycle(h)
					}
				}()
			}
			wg.Wait()
			close(stop)

			assert.Zero(t, doubles.Load())
			st := p.Status()
			assert.Equal(t, 0, st.Consumed)
			assertBalanced(t, st)
			assert.Equal(t, uint64(16*500), st.Fetches)
			assert.NoError(t, p.Destroy())
		})
	}
}

func TestFetchRecyclePerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance test in short mode")
	}
	p := pool.New(
		pool.WithLogger(zap.NewNop()),
		pool.WithUnitSize(128),
		pool.WithBatchCount(32),
		pool.WithStrategy(config.StrategySlab),
	)
	defer p.Destroy()

	testutil.NewPerformanceTest(t, "slab fetch/recycle").
		WithThroughputTarget(20000).
		Run(func() int64 {
			const n = 50000
			for i := 0; i < n; i++ {
				u, err := p.Fetch()
				if err != nil {
					t.Fatal(err)
				}
				if err := p.Recycle(u); err != nil {
					t.Fatal(err)
				}
			}
			return n
		})
}

func BenchmarkFetchRecycle(b *testing.B) {
	for _, mode := range []config.LedgerMode{config.LedgerIntrusive, config.LedgerSeparate} {
		b.Run(string(mode), func(b *testing.B) {
			p := pool.New(
				pool.WithLogger(zap.NewNop()),
				pool.WithUnitSize(64),
				pool.WithBatchCount(64),
				pool.WithLedgerMode(mode),
			)
			defer p.Destroy()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				u, _ := p.Fetch()
				_ = p.Recycle(u)
			}
		})
	}
}

func BenchmarkFetchRecycleParallel(b *testing.B) {
	p := pool.New(
		pool.WithLogger(zap.NewNop()),
		pool.WithUnitSize(64),
		pool.WithBatchCount(64),
		pool.WithStrategy(config.StrategySlab),
	)
	defer p.Destroy()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			u, err := p.Fetch()
			if err != nil {
				b.Error(err)
				return
			}
			_ = p.Recycle(u)
		}
	})
}

func TestMaintainShrinksWithoutTraffic(t *testing.T) {
	clock := testutil.NewFakeClock(time.Unix(1000, 0))
	p := pool.New(
		pool.WithLogger(zap.NewNop()),
		pool.WithUnitSize(8),
		pool.WithBatchCount(4),
		pool.WithClock(clock),
	)
	require.NoError(t, p.Reserve(16))
	p.Maintain()
	assert.Equal(t, clock.Now(), p.Status().IdleSince)

	clock.Advance(5 * time.Minute)
	p.Maintain()
	assert.Equal(t, 16, p.Status().Allocated)

	clock.Advance(time.Second)
	p.Maintain()
	st := p.Status()
	assert.Equal(t, 4, st.Allocated)
	assert.Equal(t, 4, st.FreeLen)
	assert.Equal(t, uint64(1), st.Shrinks)

	require.NoError(t, p.Destroy())
	p.Maintain()
}
