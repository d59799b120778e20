package shared

import "sync/atomic"

// Package-wide lifecycle counters. Plain atomic adds on paths that already
// perform an atomic counter operation, so the overhead is one more
// uncontended add.
var (
	blocksAllocated  atomic.Uint64
	blocksRetired    atomic.Uint64
	objectsDestroyed atomic.Uint64
	clones           atomic.Uint64
	releases         atomic.Uint64
)

// Stats is a snapshot of the package-wide lifecycle counters. Useful for
// verifying balance in tests and soak runs: after everything is released,
// BlocksAllocated == BlocksRetired == ObjectsDestroyed.
type Stats struct {
	// BlocksAllocated counts control blocks created by adoptions.
	BlocksAllocated uint64

	// BlocksRetired counts control blocks whose final claim was dropped.
	BlocksRetired uint64

	// ObjectsDestroyed counts destruction routines run.
	ObjectsDestroyed uint64

	// Clones counts new owning references: Clone, Alias, and successful
	// Cast.
	Clones uint64

	// Releases counts claims dropped through Release (including those
	// performed internally by Assign, MoveFrom, and Reset).
	Releases uint64
}

// GetStats returns a snapshot of the lifecycle counters. The counters are
// read one by one; under concurrent activity the snapshot is approximate,
// exact once activity has quiesced.
func GetStats() Stats {
	return Stats{
		BlocksAllocated:  blocksAllocated.Load(),
		BlocksRetired:    blocksRetired.Load(),
		ObjectsDestroyed: objectsDestroyed.Load(),
		Clones:           clones.Load(),
		Releases:         releases.Load(),
	}
}

// ResetStats zeroes the lifecycle counters. Testing and stress-harness
// hook; live handles keep their claims, only the counters reset.
func ResetStats() {
	blocksAllocated.Store(0)
	blocksRetired.Store(0)
	objectsDestroyed.Store(0)
	clones.Store(0)
	releases.Store(0)
}

// Balanced reports whether every adopted block has been retired and every
// destruction routine has run — the clean-shutdown condition.
func (s Stats) Balanced() bool {
	return s.BlocksAllocated == s.BlocksRetired && s.BlocksAllocated == s.ObjectsDestroyed
}
