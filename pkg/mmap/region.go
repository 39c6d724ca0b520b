// Package mmap provides page-aligned anonymous memory regions outside the Go heap.
//
// Regions back the pool's slab strategy: one mapping per batch, sliced into
// fixed-size units and unmapped once every unit carved from it is destroyed.
// Memory in a region is invisible to the garbage collector, so it must never
// hold Go pointers.
package mmap

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// Stats tracks mapping activity for the process.
type Stats struct {
	Mapped   int64 // bytes currently mapped
	Regions  int64 // regions currently mapped
	Maps     int64 // total Map calls that succeeded
	Unmaps   int64 // total Unmap calls that succeeded
	Failures int64 // failed mmap/munmap calls
}

var (
	stats struct {
		mapped, regions, maps, unmaps, failures atomic.Int64
	}
	pageSize     int
	pageSizeOnce sync.Once
)

// Supported reports whether regions are real anonymous mappings on this
// platform rather than heap slices.
func Supported() bool { return supported }

// PageSize returns the system page size.
func PageSize() int {
	pageSizeOnce.Do(func() { pageSize = os.Getpagesize() })
	return pageSize
}

// Map returns a zeroed, writable region of at least size bytes, rounded up
// to a whole number of pages. The returned slice has length size.
func Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid mapping size %d", size)
	}
	ps := PageSize()
	length := (size + ps - 1) / ps * ps

	data, err := mmap(length)
	if err != nil {
		stats.failures.Add(1)
		return nil, fmt.Errorf("failed to mmap %d bytes: %w", length, err)
	}

	stats.mapped.Add(int64(length))
	stats.regions.Add(1)
	stats.maps.Add(1)
	return data[:size:length], nil
}

// Unmap releases a region returned by Map. The slice must not be used afterwards.
func Unmap(b []byte) error {
	if cap(b) == 0 {
		return nil
	}
	full := b[:cap(b)]
	if err := munmap(full); err != nil {
		stats.failures.Add(1)
		return fmt.Errorf("failed to munmap %d bytes: %w", len(full), err)
	}
	stats.mapped.Add(-int64(len(full)))
	stats.regions.Add(-1)
	stats.unmaps.Add(1)
	return nil
}

// Prefault hints that the region will be used soon.
func Prefault(b []byte) error {
	if cap(b) == 0 {
		return nil
	}
	return madvise(b[:cap(b)], MadvWillneed)
}

// GetStats returns a snapshot of mapping counters.
func GetStats() Stats {
	return Stats{
		Mapped:   stats.mapped.Load(),
		Regions:  stats.regions.Load(),
		Maps:     stats.maps.Load(),
		Unmaps:   stats.unmaps.Load(),
		Failures: stats.failures.Load(),
	}
}
