// Package shared provides an atomically reference-counted shared-ownership
// handle with deterministic, exactly-once destruction.
//
// The garbage collector reclaims memory, not resources. Objects backed by
// things the collector cannot see — C-allocated buffers, file descriptors,
// pooled slabs, mmapped regions — need a "last user releases it" protocol.
// Ptr[T] is that protocol: any number of owners share one object, and the
// release action bound at adoption runs exactly once, on the goroutine whose
// release drops the final owner, with every other owner's prior use fully
// visible at that point.
//
// # Quick Start
//
//	conn := openConn()
//	p := shared.NewWithDeleter(conn, func(c *Conn) { c.Close() })
//	defer p.Release()
//
//	q := p.Clone() // second owner; Close runs after BOTH Release calls
//	go func() {
//		defer q.Release()
//		use(q.Get())
//	}()
//
// # Ownership Model
//
// A handle is a small value pairing a typed object pointer with a shared
// control block holding the atomic owner count. Go cannot hook assignment,
// so plain `=` on a live handle creates an uncounted alias — the one misuse
// this package cannot make safe. The contract:
//
//   - Clone for every new owning reference (each goroutine gets its own)
//   - Release exactly once per owned handle (idempotent on empty handles)
//   - Move/MoveFrom/Assign for the transfer and assignment forms
//   - never copy a live handle with plain assignment
//
// The sharedptr tool's check command flags the common violations statically.
//
// # Concurrency
//
// All operations are lock-free: atomic fetch-and-modify on the control
// block, plus one deleter invocation on the final release. Distinct handles
// to one object may be used from any number of goroutines concurrently; a
// single handle value must not be mutated from two goroutines. The owned
// object's own contents are not synchronized by this layer.
//
// # Conversions and Aliasing
//
// Cast converts between handle types sharing one control block: upcasts to
// an interface, downcasts back to the concrete type, with a runtime check
// replacing what other languages do with class hierarchies. Alias builds a
// handle that dereferences to one address (a struct field, an element)
// while keeping a different, containing object alive.
//
// # Leak Tracking
//
// Opt-in diagnostics record the origin of every adoption and report blocks
// still live at shutdown, plus double adoptions of one raw pointer. Enable
// with SetTracking(true) or SHAREDPTR_TRACK=1; see WriteLeakReport.
package shared
