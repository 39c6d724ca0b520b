//go:build !linux && !darwin

package mmap

// Platforms without anonymous mappings fall back to the Go heap.

func mmap(length int) ([]byte, error) {
	return make([]byte, length), nil
}

func munmap(_ []byte) error {
	return nil
}

func madvise(_ []byte, _ int) error {
	return nil
}

const (
	MadvWillneed = 0

	supported = false
)
