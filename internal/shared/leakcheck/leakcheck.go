// Package leakcheck implements opt-in diagnostics for shared handles: a
// registry of live control blocks with origin information, double-adoption
// detection, and a leak report writer.
//
// Tracking is off by default and costs one atomic load per adoption while
// off. When on, every adopted object records its type name, owning object
// address, adopting goroutine, and (subject to sampling) an origin stack.
// Records are dropped when the control block retires, so whatever remains at
// the end of a run is a leak.
//
// Configuration:
//   - SHAREDPTR_TRACK=1 enables tracking at process start
//   - SHAREDPTR_TRACK_SAMPLE=N captures an origin stack for 1 in N adoptions
//
// Both can also be set programmatically via SetEnabled and SetSampleRate.
package leakcheck

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/kolkov/sharedptr/internal/shared/ctrlblock"
)

// Record describes one tracked adoption: the origin of a live control block.
type Record struct {
	// Seq is the 1-based adoption sequence number, useful for correlating
	// a leak with program phase.
	Seq uint64

	// Type is the owned type's name as reported by the handle layer.
	Type string

	// Addr is the managed object's address at adoption time. Zero when the
	// handle layer had no address to report.
	Addr uintptr

	// GID is the goroutine that performed the adoption.
	GID int64

	// StackKey locates the origin stack in the depot; 0 when sampling
	// skipped the capture.
	StackKey uint64
}

// Leak pairs a Record with the block's counters read at snapshot time.
type Leak struct {
	Record
	Strong int64
	Weak   int64
}

var (
	// enabled gates all registration work. One atomic load on the adoption
	// path when off.
	enabled atomic.Bool

	// sampleRate captures an origin stack for 1 in N registrations.
	// 0 and 1 both mean "capture every stack".
	sampleRate atomic.Uint64

	// samplePos is the registration counter driving sample selection.
	// Counter+modulo selection, no RNG.
	samplePos atomic.Uint64

	// seq numbers adoptions for leak correlation.
	seq atomic.Uint64

	// live maps *ctrlblock.Block → *Record for every tracked block that
	// has not retired. sync.Map: read-mostly, disjoint keys.
	live sync.Map

	// guard maps object address (uintptr) → *ctrlblock.Block for live
	// adoptions, catching a second independent adoption of the same raw
	// pointer (the double-free class of bug).
	guard sync.Map

	// violations counts double adoptions observed.
	violations atomic.Uint64
)

func init() {
	sampleRate.Store(1)
	if os.Getenv("SHAREDPTR_TRACK") == "1" {
		enabled.Store(true)
	}
	if v := os.Getenv("SHAREDPTR_TRACK_SAMPLE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			sampleRate.Store(n)
		}
	}
}

// SetEnabled turns tracking on or off. Blocks adopted while tracking was off
// are invisible to the registry; toggling does not retroactively track them.
func SetEnabled(on bool) {
	enabled.Store(on)
}

// Enabled reports whether tracking is on.
func Enabled() bool {
	return enabled.Load()
}

// SetSampleRate sets the origin-stack capture rate to 1 in n adoptions.
// n of 0 or 1 captures every stack. Registration itself is never sampled,
// only the (comparatively expensive) stack capture.
func SetSampleRate(n uint64) {
	if n == 0 {
		n = 1
	}
	sampleRate.Store(n)
}

// SampleRate returns the current capture rate.
func SampleRate() uint64 {
	return sampleRate.Load()
}

// shouldSample reports whether this registration captures an origin stack.
func shouldSample() bool {
	r := sampleRate.Load()
	if r <= 1 {
		return true
	}
	return samplePos.Add(1)%r == 0
}

// Register records the adoption of an object into block b. No-op while
// tracking is off.
//
// addr is the managed object's address; when non-zero it also arms the
// double-adoption guard: a second live block managing the same address is a
// programming error on its way to a double release, reported immediately to
// stderr (the run keeps going — diagnosing is this package's job, crashing
// is the counter protocol's).
func Register(b *ctrlblock.Block, typeName string, addr uintptr) {
	if !enabled.Load() {
		return
	}

	rec := &Record{
		Seq:  seq.Add(1),
		Type: typeName,
		Addr: addr,
		GID:  CurrentGID(),
	}
	if shouldSample() {
		rec.StackKey = captureStack()
	}
	live.Store(b, rec)

	if addr == 0 {
		return
	}
	prev, loaded := guard.LoadOrStore(addr, b)
	if loaded && prev.(*ctrlblock.Block) != b {
		violations.Add(1)
		prevRec, _ := live.Load(prev)
		reportDoubleAdoption(os.Stderr, addr, asRecord(prevRec), rec)
		// The newest claim wins for future retirement bookkeeping.
		guard.Store(addr, b)
	}
}

func asRecord(v any) *Record {
	if v == nil {
		return nil
	}
	rec, _ := v.(*Record)
	return rec
}

// Unregister drops the record for a retired block. Safe to call for blocks
// that were never registered (tracking off at adoption time).
func Unregister(b *ctrlblock.Block) {
	v, ok := live.LoadAndDelete(b)
	if !ok {
		return
	}
	rec := v.(*Record)
	if rec.Addr != 0 {
		guard.CompareAndDelete(rec.Addr, b)
	}
}

// Live returns the number of tracked blocks that have not retired.
func Live() int {
	n := 0
	live.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Violations returns the number of double adoptions observed since the last
// Reset.
func Violations() uint64 {
	return violations.Load()
}

// Snapshot returns the current leak set: every tracked block still live,
// with counters read at call time. Order is unspecified.
func Snapshot() []Leak {
	var leaks []Leak
	live.Range(func(k, v any) bool {
		b := k.(*ctrlblock.Block)
		rec := v.(*Record)
		leaks = append(leaks, Leak{
			Record: *rec,
			Strong: b.StrongCount(),
			Weak:   b.WeakCount(),
		})
		return true
	})
	return leaks
}

// Reset clears the registry, the guard, the depot, and all counters.
// Testing hook; not safe against concurrent registration.
func Reset() {
	live = sync.Map{}
	guard = sync.Map{}
	depot = sync.Map{}
	seq.Store(0)
	samplePos.Store(0)
	violations.Store(0)
}
