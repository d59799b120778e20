package shared

import (
	"io"

	"github.com/kolkov/sharedptr/internal/shared/leakcheck"
)

// SetTracking turns adoption tracking on or off. While on, every adoption
// records its type, object address, adopting goroutine, and (subject to the
// sample rate) an origin stack; records are dropped when the block retires.
// Blocks adopted while tracking was off are invisible to the registry.
//
// Tracking also arms the double-adoption guard: two independent New calls
// on the same raw pointer — two owners that will each run a release action —
// are reported to stderr as soon as the second one happens.
//
// Off by default; SHAREDPTR_TRACK=1 enables it at process start.
func SetTracking(on bool) {
	leakcheck.SetEnabled(on)
}

// Tracking reports whether adoption tracking is on.
func Tracking() bool {
	return leakcheck.Enabled()
}

// SetTrackingSampleRate captures an origin stack for 1 in n tracked
// adoptions; 0 and 1 both mean every adoption. Registration itself is never
// sampled, only the comparatively expensive stack capture.
// SHAREDPTR_TRACK_SAMPLE=N sets this at process start.
func SetTrackingSampleRate(n uint64) {
	leakcheck.SetSampleRate(n)
}

// Live returns the number of tracked control blocks that have not retired.
// At a point where the program believes everything is released, a non-zero
// Live is a leak.
func Live() int {
	return leakcheck.Live()
}

// WriteLeakReport writes a report of every tracked block still live to w
// and returns the number of leaks written. A clean run writes nothing and
// returns 0. Intended call sites: end of main, TestMain, the stress
// harness verdict.
func WriteLeakReport(w io.Writer) int {
	return leakcheck.WriteReport(w)
}
