package workload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/unitpool/pkg/config"
	"github.com/ajitpratap0/unitpool/pkg/errors"
	"github.com/ajitpratap0/unitpool/pkg/pool"
	"github.com/ajitpratap0/unitpool/pkg/testutil"
)

func newPool(t *testing.T, opts ...pool.Option) *pool.Pool {
	base := []pool.Option{
		pool.WithName("workload"),
		pool.WithUnitSize(256),
		pool.WithBatchCount(16),
		pool.WithLogger(zap.NewNop()),
	}
	p := pool.New(append(base, opts...)...)
	t.Cleanup(func() { _ = p.Destroy() })
	return p
}

func TestRunOperations(t *testing.T) {
	p := newPool(t, pool.WithStrategy(config.StrategySlab))
	d := New(p, Config{Workers: 4, Operations: 250, Hold: 3, ForeignRecycleEvery: 50}, testutil.TestLogger(t))

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Fetches)
	assert.Equal(t, int64(1000), res.Recycles)
	assert.Equal(t, int64(20), res.Rejected)
	assert.Zero(t, res.Errors)
	assert.Greater(t, res.OpsPerSecond, 0.0)
	assert.LessOrEqual(t, res.FetchP50, res.FetchP99)

	st := p.Status()
	assert.Equal(t, 0, st.Consumed)
	assert.Equal(t, uint64(1000), st.Fetches)
	assert.Equal(t, uint64(20), st.Rejected)
}

func TestRunDuration(t *testing.T) {
	p := newPool(t)
	d := New(p, Config{Workers: 2, Duration: 50 * time.Millisecond, Hold: 2}, nil)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Positive(t, res.Fetches)
	assert.Equal(t, res.Fetches, res.Recycles)
	assert.Equal(t, 0, p.Status().Consumed)
}

func TestRunStopsOnFetchFailure(t *testing.T) {
	p := newPool(t, pool.WithBatchCount(4), pool.WithMaxUnits(4))
	d := New(p, Config{Workers: 1, Operations: 100, Hold: 10}, nil)

	res, err := d.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pool.ErrAllocation)
	assert.Equal(t, int64(4), res.Fetches)
	assert.Equal(t, int64(4), res.Recycles, "held units are returned on exit")
	assert.Equal(t, 0, p.Status().Consumed)
}

func TestRunNeedsBound(t *testing.T) {
	d := New(newPool(t), Config{}, nil)
	_, err := d.Run(context.Background())
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestRunCancelled(t *testing.T) {
	p := newPool(t)
	ctx, cancel := context.WithCancel(context.Background())
	d := New(p, Config{Workers: 2}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := d.Run(ctx)
		assert.NoError(t, err)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workload did not stop after cancel")
	}
	assert.Equal(t, 0, p.Status().Consumed)
}
