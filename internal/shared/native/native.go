//go:build (linux || darwin || freebsd) && (amd64 || arm64)

// libc loading and allocator bindings via purego.

package native

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	libc     uintptr
	loadOnce sync.Once
	loadErr  error

	// Allocator bindings registered at load time. calloc rather than
	// malloc: buffers hand out byte slices and must start zeroed.
	callocFn func(uint64, uint64) uintptr
	freeFn   func(uintptr)
)

// Load opens libc and registers the allocator bindings. Safe to call
// multiple times; subsequent calls are no-ops returning the first result.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
	})
	return loadErr
}

func doLoad() error {
	var err error
	libc, err = openLibc()
	if err != nil {
		return err
	}

	purego.RegisterLibFunc(&callocFn, libc, "calloc")
	purego.RegisterLibFunc(&freeFn, libc, "free")
	return nil
}

// openLibc tries each platform candidate in order.
func openLibc() (uintptr, error) {
	for _, name := range libcCandidates() {
		lib, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, nil
		}
	}
	return 0, fmt.Errorf("%w (%s/%s)", ErrLibraryNotFound, runtime.GOOS, runtime.GOARCH)
}

// libcCandidates returns loadable libc names per OS, most specific first.
func libcCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/usr/lib/libSystem.B.dylib"}
	case "freebsd":
		return []string{"libc.so.7", "libc.so"}
	default: // linux
		return []string{"libc.so.6", "libc.so"}
	}
}

// allocRaw returns n zeroed bytes from libc, or an error when the load or
// the allocation itself failed.
func allocRaw(n int) (uintptr, error) {
	if err := Load(); err != nil {
		return 0, err
	}
	addr := callocFn(1, uint64(n))
	if addr == 0 {
		return 0, fmt.Errorf("%w: %d bytes", ErrAllocFailed, n)
	}
	return addr, nil
}

// freeRaw returns a region to libc. Callers guarantee addr came from
// allocRaw and is freed once.
func freeRaw(addr uintptr) {
	freeFn(addr)
}
