// Package pool provides example usage of the fixed-size unit pool.
package pool_test

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/unitpool/pkg/config"
	"github.com/ajitpratap0/unitpool/pkg/pool"
)

// Example demonstrates fetching and recycling units.
func Example() {
	p := pool.New(
		pool.WithName("frames"),
		pool.WithUnitSize(64),
		pool.WithBatchCount(4),
		pool.WithLogger(zap.NewNop()),
	)
	defer p.Destroy()

	var units []*pool.Unit
	for i := 0; i < 4; i++ {
		u, err := p.Fetch()
		if err != nil {
			panic(err)
		}
		units = append(units, u)
	}
	for _, u := range units[:2] {
		if err := p.Recycle(u); err != nil {
			panic(err)
		}
	}

	s := p.Status()
	fmt.Printf("allocated=%d consumed=%d remaining=%d\n", s.Allocated, s.Consumed, s.Remaining)

	for _, u := range units[2:] {
		_ = p.Recycle(u)
	}

	// Output:
	// allocated=8 consumed=2 remaining=6
}

// ExamplePool_Recycle shows that a unit cannot be recycled twice.
func ExamplePool_Recycle() {
	p := pool.New(pool.WithUnitSize(32), pool.WithLogger(zap.NewNop()))
	defer p.Destroy()

	u, _ := p.Fetch()
	fmt.Println(p.Recycle(u) == nil)

	err := p.Recycle(u)
	fmt.Println(errors.Is(err, pool.ErrNotOwned))

	// Output:
	// true
	// true
}

// ExampleNewFromConfig builds a slab-backed pool from configuration and
// attaches an initializer that zeroes each unit.
func ExampleNewFromConfig() {
	cfg := config.NewPoolConfig("requests", 16)
	cfg.BatchCount = 8
	cfg.Strategy = config.StrategySlab

	p, err := pool.NewFromConfig(cfg,
		pool.WithLogger(zap.NewNop()),
		pool.WithInitFunc(func(u *pool.Unit) { clear(u.Bytes()) }),
	)
	if err != nil {
		panic(err)
	}
	defer p.Destroy()

	u, _ := p.Fetch()
	fmt.Printf("unit %d has %d bytes\n", u.ID(), u.Len())
	_ = p.Recycle(u)

	// Output:
	// unit 1 has 16 bytes
}

// Example_concurrentUsage shows a pool shared by several goroutines.
func Example_concurrentUsage() {
	p := pool.New(pool.WithUnitSize(128), pool.WithBatchCount(16), pool.WithLogger(zap.NewNop()))
	defer p.Destroy()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				u, err := p.Fetch()
				if err != nil {
					return
				}
				u.Bytes()[0] = byte(i)
				_ = p.Recycle(u)
			}
		}()
	}
	wg.Wait()

	s := p.Status()
	fmt.Println(s.Consumed, s.Allocated == s.Remaining, s.Fetches)

	// Output:
	// 0 true 800
}
