//go:build !((linux || darwin || freebsd) && (amd64 || arm64))

// Stub allocator for platforms purego cannot dlopen on. Every entry point
// reports ErrUnavailable; callers fall back to heap payloads.

package native

// Load reports that no libc binding exists on this platform.
func Load() error {
	return ErrUnavailable
}

func allocRaw(int) (uintptr, error) {
	return 0, ErrUnavailable
}

func freeRaw(uintptr) {}
