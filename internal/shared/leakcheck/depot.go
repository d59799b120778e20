// Origin stack storage for leak records.
//
// The depot deduplicates identical adoption stacks: many leaks share one
// construction site, so each unique stack is stored once, referenced by a
// 64-bit FNV-1a hash. Fixed-size traces (8 frames, 64 bytes) keep the
// memory cost of aggressive tracking predictable.

package leakcheck

import (
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
	"unsafe"
)

// MaxFrames is the number of stack frames captured per adoption.
// Eight frames reach from the public constructor to the interesting caller
// in practice; deeper context rarely changes where a leak gets fixed.
const MaxFrames = 8

// StackTrace is a captured adoption stack with fixed size.
type StackTrace struct {
	PC [MaxFrames]uintptr
}

// depot deduplicates stacks: uint64 FNV-1a hash → *StackTrace.
var depot sync.Map

// captureStack records the current stack and returns its depot key.
// Identical stacks share one entry and one key.
//
// Skips 3 frames (runtime.Callers, captureStack, Register) so the trace
// starts at the handle-layer constructor that adopted the object.
func captureStack() uint64 {
	var pcs [MaxFrames]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return 0
	}

	key := hashStack(pcs[:n])
	if _, exists := depot.Load(key); exists {
		return key
	}
	depot.Store(key, &StackTrace{PC: pcs})
	return key
}

// GetStack retrieves a stored stack by key. Returns nil for key 0 (no stack
// captured) or an unknown key.
func GetStack(key uint64) *StackTrace {
	if key == 0 {
		return nil
	}
	v, ok := depot.Load(key)
	if !ok {
		return nil
	}
	return v.(*StackTrace)
}

// DepotSize returns the number of unique stacks stored.
func DepotSize() int {
	n := 0
	depot.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// hashStack computes the FNV-1a hash of the program counters.
func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	for _, pc := range pcs {
		//nolint:gosec // G103: reading a uintptr's bytes for hashing only
		pcBytes := (*[8]byte)(unsafe.Pointer(&pc))[:]
		_, _ = h.Write(pcBytes) // Write never fails for hash.Hash
	}
	return h.Sum64()
}

// Format renders the trace for a leak report, filtering runtime frames:
//
//	main.openConn()
//	    /path/to/file.go:42
//	main.main()
//	    /path/to/file.go:17
func (st *StackTrace) Format() string {
	if st == nil {
		return "  (origin stack not captured)\n"
	}

	frames := runtime.CallersFrames(st.PC[:])

	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if strings.HasPrefix(frame.Function, "runtime.") {
			if !more {
				break
			}
			continue
		}

		fmt.Fprintf(&buf, "  %s()\n", frame.Function)
		fmt.Fprintf(&buf, "      %s:%d\n", frame.File, frame.Line)

		if !more {
			break
		}
	}

	out := buf.String()
	if out == "" {
		return "  (runtime internal)\n"
	}
	return out
}
