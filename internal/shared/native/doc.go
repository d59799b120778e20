// Package native provides libc-backed buffers: memory the Go collector
// cannot see and therefore cannot reclaim, the canonical payload for a
// shared handle with a real deleter.
//
// The libc binding is loaded lazily through purego, no CGO involved. On
// platforms without a loadable libc every entry point reports
// ErrUnavailable and callers fall back to heap payloads.
//
// Typical use:
//
//	buf, err := native.AllocBuffer(4096)
//	if err != nil { ... }
//	p := shared.NewWithDeleter(buf, func(b *native.Buffer) { b.Free() })
package native
