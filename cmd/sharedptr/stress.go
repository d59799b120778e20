// stress.go implements the 'sharedptr stress' command.
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/kolkov/sharedptr/internal/shared/native"
	"github.com/kolkov/sharedptr/shared"
)

// stressCommand implements the 'sharedptr stress' command.
//
// Flow:
//  1. Parse arguments (scenario path + flags)
//  2. Load and validate the scenario
//  3. Run workers against shared payloads with a watchdog
//  4. Verify the lifecycle books balance; exit non-zero on any miss
func stressCommand(args []string) {
	quiet := false
	var path string
	for _, arg := range args {
		switch arg {
		case "-q", "--quiet":
			quiet = true
		default:
			if len(arg) > 0 && arg[0] == '-' {
				fmt.Fprintf(os.Stderr, "Error: unknown flag: %s\n", arg)
				os.Exit(1)
			}
			if path != "" {
				fmt.Fprintf(os.Stderr, "Error: multiple scenario files given\n")
				os.Exit(1)
			}
			path = arg
		}
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: no scenario file given")
		fmt.Fprintln(os.Stderr, "Usage: sharedptr stress [-q] <scenario.yaml>")
		os.Exit(1)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := runScenario(sc, os.Stdout, quiet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !result.ok() {
		fmt.Fprintf(os.Stderr, "FAIL: %s\n", result.failure)
		os.Exit(1)
	}
}

// payload is the shared object the workers contend on. The String method
// makes it castable to fmt.Stringer, which is what the cast operation
// exercises.
type payload struct {
	id  int
	buf *native.Buffer // nil for heap payloads
}

func (p *payload) String() string {
	return "payload#" + strconv.Itoa(p.id)
}

// stressResult is the verdict of one run.
type stressResult struct {
	Ops       uint64
	Destroyed uint64
	Elapsed   time.Duration
	Stats     shared.Stats // counter deltas for the run
	LiveAfter int          // tracked blocks live after teardown (-1 when not tracked)
	failure   string
}

func (r *stressResult) ok() bool {
	return r.failure == ""
}

// runScenario executes the scenario and verifies the books. It returns an
// error only for setup problems; verification misses land in the result.
func runScenario(sc *Scenario, out io.Writer, quiet bool) (*stressResult, error) {
	if sc.Track {
		shared.SetTracking(true)
		defer shared.SetTracking(false)
	}
	before := shared.GetStats()
	liveBefore := shared.Live()

	useNative := sc.NativeBytes > 0
	if useNative && !native.Available() {
		fmt.Fprintf(os.Stderr, "native buffers unavailable (%v); using heap payloads\n", native.Load())
		useNative = false
	}

	// Adopt the payloads. Every deleter increments destroyed; native
	// payloads also return their buffer to libc.
	var destroyed atomic.Uint64
	base := make([]shared.Ptr[payload], sc.Payloads)
	for i := range base {
		pl := &payload{id: i}
		if useNative {
			buf, err := native.AllocBuffer(sc.NativeBytes)
			if err != nil {
				for j := 0; j < i; j++ {
					base[j].Release()
				}
				return nil, fmt.Errorf("alloc native payload %d: %w", i, err)
			}
			pl.buf = buf
		}
		base[i] = shared.NewWithDeleter(pl, func(p *payload) {
			if p.buf != nil {
				p.buf.Free()
			}
			destroyed.Add(1)
		})
	}

	totalOps := uint64(sc.Workers) * uint64(sc.OpsPerWorker)
	bar := newProgressBar(totalOps, sc.Name, quiet)

	fmt.Fprintf(out, "stress %q: %d workers x %d ops over %d payloads\n",
		sc.Name, sc.Workers, sc.OpsPerWorker, sc.Payloads)

	start := time.Now()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(sc.Workers)
	for w := 0; w < sc.Workers; w++ {
		go func(seed int64) {
			defer wg.Done()
			runWorker(sc, base, rand.New(rand.NewSource(seed)), bar)
		}(int64(w) + 1)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(sc.Timeout.Duration()):
		return nil, fmt.Errorf("stress run wedged: no completion within %s", sc.Timeout.Duration())
	}
	if bar != nil {
		_ = bar.Finish()
	}

	// Teardown: drop the base claims; every payload must die here.
	for i := range base {
		base[i].Release()
	}

	result := &stressResult{
		Ops:       totalOps,
		Destroyed: destroyed.Load(),
		Elapsed:   time.Since(start),
		LiveAfter: -1,
	}
	after := shared.GetStats()
	result.Stats = shared.Stats{
		BlocksAllocated:  after.BlocksAllocated - before.BlocksAllocated,
		BlocksRetired:    after.BlocksRetired - before.BlocksRetired,
		ObjectsDestroyed: after.ObjectsDestroyed - before.ObjectsDestroyed,
		Clones:           after.Clones - before.Clones,
		Releases:         after.Releases - before.Releases,
	}
	if sc.Track {
		result.LiveAfter = shared.Live() - liveBefore
	}

	verify(sc, result)
	writeVerdict(out, sc, result)
	return result, nil
}

// runWorker runs one goroutine's share of the operation mix. The worker
// holds two handles of its own (for churn and swap) and releases them on
// the way out.
func runWorker(sc *Scenario, base []shared.Ptr[payload], rng *rand.Rand, bar *progressbar.ProgressBar) {
	deck := buildDeck(sc.Weights)

	held := base[rng.Intn(len(base))].Clone()
	other := base[rng.Intn(len(base))].Clone()
	defer held.Release()
	defer other.Release()

	for i := 0; i < sc.OpsPerWorker; i++ {
		target := &base[rng.Intn(len(base))]
		switch deck[rng.Intn(len(deck))] {
		case opClone:
			c := target.Clone()
			c.Release()
		case opChurn:
			held.Release()
			held = target.Clone()
		case opSwap:
			held.Swap(&other)
		case opCast:
			s, err := shared.Cast[fmt.Stringer](target)
			if err == nil {
				s.Release()
			}
		case opAlias:
			a := shared.Alias(target, &target.Get().id)
			a.Release()
		}

		if bar != nil && i%1024 == 1023 {
			_ = bar.Add(1024)
		}
	}
}

// Operation codes for the weighted deck.
const (
	opClone = iota
	opChurn
	opSwap
	opCast
	opAlias
)

// buildDeck expands the weights into a slice sampled uniformly, the
// cheapest way to draw a weighted operation per iteration.
func buildDeck(w OpWeights) []int {
	deck := make([]int, 0, w.total())
	add := func(op, n int) {
		for i := 0; i < n; i++ {
			deck = append(deck, op)
		}
	}
	add(opClone, w.Clone)
	add(opChurn, w.Churn)
	add(opSwap, w.Swap)
	add(opCast, w.Cast)
	add(opAlias, w.Alias)
	return deck
}

// verify fills result.failure when the lifecycle books do not balance.
func verify(sc *Scenario, result *stressResult) {
	want := uint64(sc.Payloads)
	switch {
	case result.Destroyed != want:
		result.failure = fmt.Sprintf("destroyed %d payloads, want exactly %d", result.Destroyed, want)
	case result.Stats.BlocksAllocated != result.Stats.BlocksRetired:
		result.failure = fmt.Sprintf("blocks allocated (%d) != retired (%d)",
			result.Stats.BlocksAllocated, result.Stats.BlocksRetired)
	case result.Stats.ObjectsDestroyed != result.Stats.BlocksAllocated:
		result.failure = fmt.Sprintf("objects destroyed (%d) != blocks allocated (%d)",
			result.Stats.ObjectsDestroyed, result.Stats.BlocksAllocated)
	case sc.Track && result.LiveAfter != 0:
		result.failure = fmt.Sprintf("%d tracked block(s) still live after teardown", result.LiveAfter)
	}
	if result.failure != "" && sc.Track {
		shared.WriteLeakReport(os.Stderr)
	}
}

// writeVerdict prints the run summary in the fixed verification format.
func writeVerdict(out io.Writer, sc *Scenario, result *stressResult) {
	fmt.Fprintf(out, "  ops:        %d in %s\n", result.Ops, result.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  destroyed:  %d/%d payloads exactly once\n", result.Destroyed, sc.Payloads)
	fmt.Fprintf(out, "  blocks:     %d allocated, %d retired\n",
		result.Stats.BlocksAllocated, result.Stats.BlocksRetired)
	fmt.Fprintf(out, "  clones:     %d taken, %d releases\n", result.Stats.Clones, result.Stats.Releases)
	if sc.Track {
		fmt.Fprintf(out, "  tracked:    %d live after teardown\n", result.LiveAfter)
	}
	if result.ok() {
		fmt.Fprintf(out, "PASS: lifecycle books balance\n")
	}
}

// newProgressBar builds the progress display, or nil when quiet or when
// stderr is not a terminal (CI logs want plain text, not control codes).
func newProgressBar(total uint64, name string, quiet bool) *progressbar.ProgressBar {
	if quiet || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return progressbar.Default(int64(total), name)
}
