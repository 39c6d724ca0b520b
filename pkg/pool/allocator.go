package pool

import (
	"github.com/ajitpratap0/unitpool/pkg/config"
	"github.com/ajitpratap0/unitpool/pkg/errors"
	"github.com/ajitpratap0/unitpool/pkg/mmap"
)

// Allocator supplies the memory that units are carved from.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(b []byte) error
}

// HeapAllocator backs units with ordinary Go slices.
type HeapAllocator struct{}

// Alloc returns a zeroed slice of length size.
func (HeapAllocator) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Newf(errors.ErrorTypeAllocation, "invalid allocation size %d", size)
	}
	return make([]byte, size), nil
}

// Free is a no-op; the garbage collector reclaims heap memory.
func (HeapAllocator) Free([]byte) error { return nil }

// MmapAllocator backs units with anonymous memory mappings. Every Alloc is
// rounded up to whole pages, so it pairs best with the slab strategy.
type MmapAllocator struct{}

// Alloc maps a fresh region of at least size bytes.
func (MmapAllocator) Alloc(size int) ([]byte, error) {
	b, err := mmap.Map(size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAllocation, "mmap allocation failed").
			WithDetail("size", size)
	}
	// advisory; the batch is handed out right away
	_ = mmap.Prefault(b)
	return b, nil
}

// Free unmaps a region returned by Alloc.
func (MmapAllocator) Free(b []byte) error {
	return mmap.Unmap(b)
}

// allocatorFor maps a configured allocator kind to an implementation.
func allocatorFor(kind config.AllocatorKind) Allocator {
	if kind == config.AllocatorMmap {
		return MmapAllocator{}
	}
	return HeapAllocator{}
}

// carve allocates n units of size bytes. With the slab strategy all units
// share one region; otherwise each unit gets its own. On failure nothing
// stays allocated.
func carve(a Allocator, strategy config.Strategy, size, n int, nextID func() uint64) ([]*Unit, error) {
	units := make([]*Unit, 0, n)

	if strategy == config.StrategySlab {
		data, err := a.Alloc(size * n)
		if err != nil {
			return nil, err
		}
		reg := newRegion(data, n)
		for i := 0; i < n; i++ {
			off := i * size
			home := data[off : off+size : off+size]
			units = append(units, &Unit{id: nextID(), buf: home, home: home, reg: reg})
		}
		return units, nil
	}

	for i := 0; i < n; i++ {
		data, err := a.Alloc(size)
		if err != nil {
			for _, u := range units {
				_ = a.Free(u.reg.data)
			}
			return nil, err
		}
		home := data[:size:size]
		units = append(units, &Unit{id: nextID(), buf: home, home: home, reg: newRegion(data, 1)})
	}
	return units, nil
}
