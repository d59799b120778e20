package leakcheck

import (
	"sync"
	"testing"
)

func TestCurrentGID(t *testing.T) {
	if got := CurrentGID(); got <= 0 {
		t.Errorf("CurrentGID() = %d, want > 0", got)
	}
}

func TestCurrentGIDStablePerGoroutine(t *testing.T) {
	a := CurrentGID()
	b := CurrentGID()
	if a != b {
		t.Errorf("CurrentGID() not stable: %d then %d", a, b)
	}
}

func TestCurrentGIDDistinctAcrossGoroutines(t *testing.T) {
	const n = 8

	ids := make(chan int64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			ids <- CurrentGID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if id <= 0 {
			t.Errorf("goroutine reported GID %d, want > 0", id)
		}
		if seen[id] {
			t.Errorf("GID %d reported by two goroutines", id)
		}
		seen[id] = true
	}
}

func TestParseGID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"simple", "goroutine 1 [running]:", 1},
		{"large id", "goroutine 4982 [running]:\nmain.main()", 4982},
		{"no prefix", "panic: something", 0},
		{"truncated", "goroutin", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseGID([]byte(tt.in)); got != tt.want {
				t.Errorf("parseGID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func BenchmarkCurrentGID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = CurrentGID()
	}
}
