package native

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// ErrUnavailable is returned when no loadable libc exists on this platform.
var ErrUnavailable = errors.New("native: libc not available on this platform")

// ErrLibraryNotFound is returned when no libc candidate could be opened.
var ErrLibraryNotFound = errors.New("native: libc library not found")

// ErrAllocFailed is returned when the allocator returned a null pointer.
var ErrAllocFailed = errors.New("native: allocation failed")

// Available reports whether libc-backed buffers work here. The first call
// performs the library load.
func Available() bool {
	return Load() == nil
}

// Buffer is a zero-initialized, calloc-backed memory region. It is not
// reclaimed by the collector: whoever owns it must call Free exactly once,
// which is precisely the contract a shared handle's deleter carries.
type Buffer struct {
	addr  uintptr
	n     int
	freed atomic.Bool
}

// AllocBuffer allocates n zeroed bytes outside the Go heap.
//
// Unlike Go heap allocation, this CAN fail recoverably; on any failure no
// memory is adopted and the caller owns nothing.
func AllocBuffer(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("native: invalid buffer size %d", n)
	}
	addr, err := allocRaw(n)
	if err != nil {
		return nil, err
	}
	return &Buffer{addr: addr, n: n}, nil
}

// Bytes returns the region as a byte slice. The slice aliases the raw
// memory: it is valid until Free and must not be retained past it. Panics
// on a freed buffer — a use-after-free must be loud.
func (b *Buffer) Bytes() []byte {
	if b.freed.Load() {
		panic("native: Bytes on freed buffer")
	}
	//nolint:govet // addr originates from malloc and is never a Go pointer
	return unsafe.Slice((*byte)(unsafe.Pointer(b.addr)), b.n)
}

// Len returns the allocated size in bytes.
func (b *Buffer) Len() int {
	return b.n
}

// Free returns the region to libc. Idempotent: the first call frees, every
// later call is a no-op, so a Buffer deleter composes safely with defer.
func (b *Buffer) Free() {
	if b.freed.Swap(true) {
		return
	}
	freeRaw(b.addr)
	b.addr = 0
}

// Freed reports whether Free has run.
func (b *Buffer) Freed() bool {
	return b.freed.Load()
}
