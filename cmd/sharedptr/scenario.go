// scenario.go defines the yaml stress-scenario format.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario describes one stress run: how many goroutines, how many shared
// payloads, how many operations, and the operation mix.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Workers is the number of goroutines hammering the payloads.
	Workers int `yaml:"workers"`

	// Payloads is the number of distinct shared objects under contention.
	Payloads int `yaml:"payloads"`

	// OpsPerWorker is the number of handle operations each worker runs.
	OpsPerWorker int `yaml:"ops_per_worker"`

	// Timeout aborts a wedged run. Zero means the 60s default.
	Timeout Duration `yaml:"timeout"`

	// NativeBytes attaches a libc-backed buffer of this size to every
	// payload, so the deleters free real out-of-GC memory. Zero keeps
	// payloads on the Go heap.
	NativeBytes int `yaml:"native_bytes"`

	// Track enables adoption tracking for the run; the verdict then also
	// requires zero live tracked blocks.
	Track bool `yaml:"track"`

	// Weights sets the relative frequency of each operation. All-zero
	// weights fall back to a clone-heavy default mix.
	Weights OpWeights `yaml:"weights"`
}

// OpWeights is the relative operation mix for a scenario.
type OpWeights struct {
	// Clone takes and immediately drops an extra owner.
	Clone int `yaml:"clone"`

	// Churn releases the worker's held handle and re-clones a payload.
	Churn int `yaml:"churn"`

	// Swap exchanges the worker's two held handles.
	Swap int `yaml:"swap"`

	// Cast upcasts a payload handle to an interface and drops it.
	Cast int `yaml:"cast"`

	// Alias takes a field alias of a payload and drops it.
	Alias int `yaml:"alias"`
}

func (w OpWeights) total() int {
	return w.Clone + w.Churn + w.Swap + w.Cast + w.Alias
}

// Duration wraps time.Duration for yaml unmarshaling ("500ms", "2s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	sc.applyDefaults()
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// applyDefaults fills unset fields with a small but meaningful run.
func (sc *Scenario) applyDefaults() {
	if sc.Name == "" {
		sc.Name = "unnamed"
	}
	if sc.Workers == 0 {
		sc.Workers = 8
	}
	if sc.Payloads == 0 {
		sc.Payloads = 64
	}
	if sc.OpsPerWorker == 0 {
		sc.OpsPerWorker = 100000
	}
	if sc.Timeout == 0 {
		sc.Timeout = Duration(60 * time.Second)
	}
	if sc.Weights.total() == 0 {
		sc.Weights = OpWeights{Clone: 4, Churn: 2, Swap: 1, Cast: 1, Alias: 1}
	}
}

// validate rejects scenarios that cannot run.
func (sc *Scenario) validate() error {
	if sc.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", sc.Workers)
	}
	if sc.Payloads < 1 {
		return fmt.Errorf("payloads must be positive, got %d", sc.Payloads)
	}
	if sc.OpsPerWorker < 1 {
		return fmt.Errorf("ops_per_worker must be positive, got %d", sc.OpsPerWorker)
	}
	if sc.NativeBytes < 0 {
		return fmt.Errorf("native_bytes must be non-negative, got %d", sc.NativeBytes)
	}
	w := sc.Weights
	if w.Clone < 0 || w.Churn < 0 || w.Swap < 0 || w.Cast < 0 || w.Alias < 0 {
		return fmt.Errorf("weights must be non-negative: %+v", w)
	}
	if w.total() == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	return nil
}
