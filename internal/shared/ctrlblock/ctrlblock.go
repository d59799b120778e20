// Package ctrlblock implements the shared bookkeeping record behind every
// shared handle.
//
// A Block pairs two atomic counters with a type-erased destruction routine:
//   - strong: number of owning handles; the object is alive while strong > 0
//   - weak:   claims on the Block itself; carries one implicit claim while any
//     strong owner exists, and the Block is retired when it reaches 0
//
// The counter protocol is the entire concurrency story. Handles never lock;
// every ownership transition is one atomic fetch-and-modify on this record,
// and the 1→0 strong transition is the single point where the owned object
// is destroyed.
package ctrlblock

import "sync/atomic"

// Block is the per-object bookkeeping record shared by every handle that
// references one owned object. It is allocated once when the object is first
// adopted and never reused after retirement.
//
// Memory layout: two 8-byte counters plus the destruction closure. The
// counters are the only fields touched on the hot path.
type Block struct {
	// strong is the number of owning handles. The object is alive iff
	// strong > 0. Initialized to 1 by New.
	strong atomic.Int64

	// weak is the number of claims on this Block's own memory. Initialized
	// to 1 (the implicit claim held collectively by the strong owners) and
	// decremented once when strong reaches 0. The Block is retired when
	// weak reaches 0.
	weak atomic.Int64

	// destroy releases the owned object. Bound at construction, invoked
	// exactly once by the goroutine whose decrement observes the final
	// strong owner leaving, then dropped so a retired Block no longer pins
	// the object or anything the closure captured.
	destroy func()
}

// New creates a Block for a freshly adopted object: one strong owner, one
// implicit weak claim. The destroy routine is the type-erased release action
// for the owned object; a nil routine means releasing the object is nothing
// more than letting the collector have it.
func New(destroy func()) *Block {
	b := &Block{destroy: destroy}
	b.strong.Store(1)
	b.weak.Store(1)
	return b
}

// IncStrong registers one additional strong owner.
//
// If the observed prior value was 0 the object is being resurrected from a
// weak-only state, so the strong owners' collective claim on the Block is
// re-raised too. That state is unreachable through the public handle surface
// today; the bookkeeping stays correct for weak-handle support.
//
// Never fails. Called on every Clone/Alias/Cast, must stay allocation-free.
//
//go:nosplit
func (b *Block) IncStrong() {
	if b.strong.Add(1) == 1 {
		b.weak.Add(1)
	}
}

// DecStrong removes one strong owner and reports whether this call retired
// the Block entirely.
//
// Precondition: strong > 0. A violation means a handle was released twice
// and panics immediately — a double release must never be absorbed into a
// plausible-looking count.
//
// The goroutine whose decrement observes the 1→0 transition runs the destroy
// routine, synchronously, before DecStrong returns. Ordering guarantee: every
// decrement by another goroutine happens before that observation, so reads
// performed through the object prior to a goroutine's own DecStrong are fully
// visible before destruction starts. The reference counting literature wants
// release semantics on the decrement paired with an acquire on the zero
// observation; Go's sync/atomic operations are sequentially consistent (Go
// memory model, "Atomic Values"), which covers that pairing with margin.
// Relaxed counting would be an under-synchronization bug here.
//
// After the destroy routine completes the implicit weak claim is dropped;
// when that was the last weak claim the Block is retired and the return
// value tells the caller to drop any diagnostics held against it. The memory
// itself is reclaimed by the collector once unreachable.
func (b *Block) DecStrong() (retired bool) {
	s := b.strong.Add(-1)
	if s < 0 {
		panic("sharedptr: strong count underflow (double release)")
	}
	if s > 0 {
		return false
	}
	// Sole point where the object dies. Only this goroutine can be here:
	// every other owner's decrement returned above.
	if d := b.destroy; d != nil {
		d()
		b.destroy = nil
	}
	return b.DecWeak()
}

// DecWeak removes one claim on the Block's own memory and reports whether
// the Block is now retired. Panics on underflow for the same reason
// DecStrong does: a miscounted weak claim is a programming error, not a
// condition to tolerate.
func (b *Block) DecWeak() (retired bool) {
	w := b.weak.Add(-1)
	if w < 0 {
		panic("sharedptr: weak count underflow")
	}
	return w == 0
}

// StrongCount returns the current number of strong owners. The value is a
// snapshot; under concurrent ownership changes it is stale by the time the
// caller looks at it, which is the usual use_count contract.
//
//go:nosplit
func (b *Block) StrongCount() int64 {
	return b.strong.Load()
}

// WeakCount returns the current number of claims on the Block itself.
// Diagnostic use only; nothing in the handle layer branches on it.
func (b *Block) WeakCount() int64 {
	return b.weak.Load()
}

// String returns a compact debug form, e.g. "strong=2 weak=1".
// Not used on any hot path.
func (b *Block) String() string {
	return "strong=" + itoa(b.strong.Load()) + " weak=" + itoa(b.weak.Load())
}

// itoa converts a counter value to string without an fmt import.
// Counters are non-negative in every reachable state; a negative value has
// already panicked, so the minus branch exists only for debugger use.
func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}

	tmp := n
	digits := 0
	for tmp > 0 {
		digits++
		tmp /= 10
	}

	buf := make([]byte, digits)
	for i := digits - 1; i >= 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}

	if neg {
		return "-" + string(buf)
	}
	return string(buf)
}
