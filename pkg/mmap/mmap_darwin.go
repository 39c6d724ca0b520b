//go:build darwin

package mmap

import (
	"golang.org/x/sys/unix"
)

// mmap maps length bytes of private anonymous memory
func mmap(length int) ([]byte, error) {
	return unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// munmap wraps the munmap system call
func munmap(b []byte) error {
	return unix.Munmap(b)
}

// madvise wraps the madvise system call
func madvise(b []byte, advice int) error {
	return unix.Madvise(b, advice)
}

const (
	// MadvWillneed asks the kernel to fault pages in ahead of use
	MadvWillneed = unix.MADV_WILLNEED //nolint:stylecheck

	supported = true
)
