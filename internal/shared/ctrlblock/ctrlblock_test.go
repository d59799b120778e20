package ctrlblock

import (
	"sync"
	"testing"
)

func TestNewBlockCounts(t *testing.T) {
	b := New(nil)

	if got := b.StrongCount(); got != 1 {
		t.Errorf("StrongCount() = %d, want 1", got)
	}
	if got := b.WeakCount(); got != 1 {
		t.Errorf("WeakCount() = %d, want 1", got)
	}
}

func TestIncStrong(t *testing.T) {
	tests := []struct {
		name       string
		increments int
		wantStrong int64
	}{
		{"one extra owner", 1, 2},
		{"three extra owners", 3, 4},
		{"many owners", 100, 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(nil)
			for i := 0; i < tt.increments; i++ {
				b.IncStrong()
			}
			if got := b.StrongCount(); got != tt.wantStrong {
				t.Errorf("StrongCount() = %d, want %d", got, tt.wantStrong)
			}
			// Weak claim stays collective: extra strong owners never add
			// weak claims of their own.
			if got := b.WeakCount(); got != 1 {
				t.Errorf("WeakCount() = %d, want 1", got)
			}
		})
	}
}

func TestDecStrongDestroysExactlyOnce(t *testing.T) {
	tests := []struct {
		name   string
		owners int
	}{
		{"sole owner", 1},
		{"two owners", 2},
		{"ten owners", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			destroyed := 0
			b := New(func() { destroyed++ })
			for i := 1; i < tt.owners; i++ {
				b.IncStrong()
			}

			for i := 0; i < tt.owners; i++ {
				wantRetired := i == tt.owners-1
				if got := b.DecStrong(); got != wantRetired {
					t.Errorf("DecStrong() #%d = %v, want %v", i+1, got, wantRetired)
				}
			}

			if destroyed != 1 {
				t.Errorf("destroy ran %d times, want 1", destroyed)
			}
		})
	}
}

func TestDecStrongDestroyIsSynchronous(t *testing.T) {
	destroyed := false
	b := New(func() { destroyed = true })

	b.DecStrong()

	// The destroy routine runs inside the final decrement, on the caller's
	// goroutine, before DecStrong returns.
	if !destroyed {
		t.Error("destroy did not run before DecStrong returned")
	}
	if got := b.StrongCount(); got != 0 {
		t.Errorf("StrongCount() = %d, want 0", got)
	}
	if got := b.WeakCount(); got != 0 {
		t.Errorf("WeakCount() = %d, want 0", got)
	}
}

func TestDecStrongNilDestroy(t *testing.T) {
	b := New(nil)
	if retired := b.DecStrong(); !retired {
		t.Error("DecStrong() = false, want true for sole owner")
	}
}

func TestDecStrongUnderflowPanics(t *testing.T) {
	b := New(nil)
	b.DecStrong()

	defer func() {
		if recover() == nil {
			t.Error("DecStrong on zero count did not panic")
		}
	}()
	b.DecStrong() // a double release must be loud, never absorbed
}

func TestDecWeakUnderflowPanics(t *testing.T) {
	b := New(nil)
	b.DecWeak() // drops the implicit claim

	defer func() {
		if recover() == nil {
			t.Error("DecWeak on zero count did not panic")
		}
	}()
	b.DecWeak()
}

func TestIncStrongResurrectRaisesWeak(t *testing.T) {
	b := New(nil)
	b.DecStrong() // strong 1→0, weak 1→0, block retired

	// An increment that observes a prior strong count of zero must re-raise
	// the collective weak claim, or the block-freeing invariant breaks as
	// soon as a weak handle type exists.
	b.IncStrong()

	if got := b.StrongCount(); got != 1 {
		t.Errorf("StrongCount() = %d, want 1", got)
	}
	if got := b.WeakCount(); got != 1 {
		t.Errorf("WeakCount() = %d, want 1", got)
	}
}

func TestConcurrentOwnership(t *testing.T) {
	const (
		goroutines = 16
		rounds     = 2000
	)

	destroyed := 0
	b := New(func() { destroyed++ })

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				b.IncStrong()
				b.DecStrong()
			}
		}()
	}
	wg.Wait()

	// The base claim from New is still held: nothing may have died yet.
	if destroyed != 0 {
		t.Fatalf("destroy ran %d times while base owner alive, want 0", destroyed)
	}
	if got := b.StrongCount(); got != 1 {
		t.Errorf("StrongCount() after churn = %d, want 1", got)
	}

	if retired := b.DecStrong(); !retired {
		t.Error("final DecStrong() = false, want true")
	}
	if destroyed != 1 {
		t.Errorf("destroy ran %d times, want 1", destroyed)
	}
}

func TestConcurrentFinalRelease(t *testing.T) {
	// Every goroutine holds a real claim; exactly one of the concurrent
	// decrements must observe the final transition and destroy.
	const owners = 32

	var mu sync.Mutex
	destroyed := 0
	b := New(func() {
		mu.Lock()
		destroyed++
		mu.Unlock()
	})
	for i := 1; i < owners; i++ {
		b.IncStrong()
	}

	var wg sync.WaitGroup
	wg.Add(owners)
	retirements := make(chan bool, owners)
	for g := 0; g < owners; g++ {
		go func() {
			defer wg.Done()
			retirements <- b.DecStrong()
		}()
	}
	wg.Wait()
	close(retirements)

	retiredCount := 0
	for r := range retirements {
		if r {
			retiredCount++
		}
	}
	if retiredCount != 1 {
		t.Errorf("%d decrements reported retirement, want exactly 1", retiredCount)
	}
	if destroyed != 1 {
		t.Errorf("destroy ran %d times, want 1", destroyed)
	}
}

func TestBlockString(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *Block)
		want  string
	}{
		{"fresh", func(*Block) {}, "strong=1 weak=1"},
		{"two owners", func(b *Block) { b.IncStrong() }, "strong=2 weak=1"},
		{"retired", func(b *Block) { b.DecStrong() }, "strong=0 weak=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(nil)
			tt.setup(b)
			if got := b.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestItoa(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{42, "42"},
		{1000000, "1000000"},
		{-3, "-3"},
	}

	for _, tt := range tests {
		if got := itoa(tt.in); got != tt.want {
			t.Errorf("itoa(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func BenchmarkIncDecStrong(b *testing.B) {
	blk := New(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blk.IncStrong()
		blk.DecStrong()
	}
}

func BenchmarkIncDecStrongParallel(b *testing.B) {
	blk := New(nil)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			blk.IncStrong()
			blk.DecStrong()
		}
	})
}

func BenchmarkStrongCount(b *testing.B) {
	blk := New(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = blk.StrongCount()
	}
}
