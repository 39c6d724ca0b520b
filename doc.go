// Package unitpool provides a thread-safe pool of fixed-size memory units
// with batched allocation, double-recycle detection and idle shrinking.
//
// A pool hands out units of one configured size. Units come from two FIFO
// queues: a free queue of never-issued units and a recycle queue of units
// returned by callers. Every issued unit is tracked in a red-black tree
// ledger, so recycling a unit twice, or recycling one the pool never issued,
// is rejected instead of corrupting the pool.
//
// # Architecture
//
// The module is organized in layers:
//
// 1. Containers: pkg/ringqueue is a growable ring buffer FIFO and pkg/rbtree
// is an intrusive red-black tree with an ordered map built on top of it.
//
// 2. Memory: pkg/mmap maps anonymous memory; pool.HeapAllocator and
// pool.MmapAllocator back batches with Go slices or mapped regions.
//
// 3. Pool: pkg/pool combines the queues, the ledger and an allocator under a
// single mutex. Batches are carved either as one unit per allocation
// (independent) or as one shared reference-counted region (slab).
//
// 4. Operations: pkg/config, pkg/logger and pkg/metrics provide configuration,
// structured logging and Prometheus export; internal/workload and
// cmd/unitpool drive pools under concurrent load.
//
// # Quick Start
//
//	import (
//	    "github.com/ajitpratap0/unitpool/pkg/pool"
//	)
//
//	p := pool.New(
//	    pool.WithName("frames"),
//	    pool.WithUnitSize(4096),
//	    pool.WithBatchCount(64),
//	)
//	defer p.Destroy()
//
//	u, err := p.Fetch()
//	if err != nil {
//	    return err
//	}
//	copy(u.Bytes(), payload)
//	if err := p.Recycle(u); err != nil {
//	    return err
//	}
//
// # Package Structure
//
//	pkg/pool       - Pool, Unit, allocators and the issued-unit ledger
//	pkg/ringqueue  - Generic FIFO ring buffer
//	pkg/rbtree     - Intrusive red-black tree and ordered map
//	pkg/mmap       - Anonymous memory mapping
//	pkg/config     - Pool and CLI configuration
//	pkg/errors     - Structured error handling
//	pkg/logger     - Structured logging
//	pkg/metrics    - Prometheus collectors and timing helpers
//	pkg/testutil   - Test helpers and fake clock
//
// # Shrinking
//
// A pool that holds at least twice its batch count in idle units, while
// having more than one batch allocated, starts an idle timer. If that holds
// for the whole idle window (300s by default) the surplus is destroyed,
// recycled units first, until one batch remains. Shrinking is checked on
// Fetch, Recycle and Maintain.
//
// # Configuration
//
// The CLI reads a single file:
//
//	type Config struct {
//	    Pool    PoolConfig     // unit size, batch count, strategy, ledger, allocator
//	    Logging logger.Config  // level, encoding, output paths
//	    Metrics MetricsConfig  // Prometheus endpoint
//	}
//
// Environment variables override file values with the UNITPOOL_ prefix.
// config.Load additionally expands ${VAR_NAME} references inside the file.
//
// # Development
//
//	go test ./...
//	go run ./cmd/unitpool bench --workers 8 --ops 100000 --strategy slab
package unitpool
