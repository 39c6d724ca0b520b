// Package pool provides a thread-safe allocator for fixed-size memory units.
//
// A Pool allocates units in batches, hands them out with Fetch and takes
// them back with Recycle. Every issued unit is tracked in a red-black tree
// ledger, which makes double recycling an error instead of silent
// corruption. When the pool stays over-provisioned for longer than its idle
// window, surplus units are released.
//
// Memory comes from an Allocator: the Go heap by default, or anonymous
// mappings outside the heap. With the slab strategy a whole batch shares one
// allocation, returned only after its last unit is destroyed.
//
// Example usage:
//
//	p := pool.New(
//	    pool.WithName("frames"),
//	    pool.WithUnitSize(4096),
//	    pool.WithBatchCount(64),
//	    pool.WithStrategy(config.StrategySlab),
//	)
//	defer p.Destroy()
//
//	u, err := p.Fetch()
//	if err != nil {
//	    return err
//	}
//	copy(u.Bytes(), payload)
//	...
//	if err := p.Recycle(u); err != nil {
//	    return err
//	}
//
// Init, free and size callbacks must not call back into the pool.
package pool
