package pool

import "time"

// Status is a point-in-time snapshot of a pool. Allocated always equals
// Consumed plus Remaining.
type Status struct {
	Name       string `json:"name"`
	UnitSize   int    `json:"unit_size"`
	BatchCount int    `json:"batch_count"`

	Allocated  int `json:"allocated"`
	Consumed   int `json:"consumed"`
	Remaining  int `json:"remaining"`
	FreeLen    int `json:"free_len"`
	RecycleLen int `json:"recycle_len"`

	Fetches   uint64 `json:"fetches"`
	Recycles  uint64 `json:"recycles"`
	Rejected  uint64 `json:"rejected"`
	Destroyed uint64 `json:"destroyed"`
	Batches   uint64 `json:"batches"`
	Shrinks   uint64 `json:"shrinks"`
	Failures  uint64 `json:"failures"`

	// IdleSince is when the pool became over-provisioned; zero if it is not.
	IdleSince time.Time `json:"idle_since,omitempty"`
	Closed    bool      `json:"closed"`
}

// Status returns a consistent snapshot of the pool's counters.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Status{
		Name:       p.name,
		UnitSize:   p.unitSize,
		BatchCount: p.allocnum,
		Allocated:  p.allocated,
		Consumed:   p.consumed,
		Remaining:  p.remaining,
		FreeLen:    p.free.Len(),
		RecycleLen: p.recycled.Len(),
		Fetches:    p.stats.fetches,
		Recycles:   p.stats.recycles,
		Rejected:   p.stats.rejected,
		Destroyed:  p.stats.destroyed,
		Batches:    p.stats.batches,
		Shrinks:    p.stats.shrinks,
		Failures:   p.stats.failures,
		Closed:     p.closed,
	}
	if p.idle {
		s.IdleSince = p.idleSince
	}
	return s
}
