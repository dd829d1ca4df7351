package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
)

// Kind categorizes executor families.
type Kind string

const (
	KindSimulator Kind = "simulator"
	KindNoisy     Kind = "noisy"
	KindRemote    Kind = "remote"
)

// Info describes capabilities reported by an executor implementation.
type Info struct {
	Name      string
	Vendor    string
	Kind      Kind
	MaxLines  int // 0 means unbounded
	Simulator bool
	Notes     string
}

// Executor runs a circuit for a number of shots and reports how often each
// classical bit-string was observed.
type Executor interface {
	Info() Info
	Run(ctx context.Context, c *circuit.Circuit, shots int) (Counts, error)
}

// Sentinel errors wrapped by ExecutionError.
var (
	ErrNotImplemented  = errors.New("backend: not implemented")
	ErrUnauthorized    = errors.New("backend: unauthorized")
	ErrUnavailable     = errors.New("backend: unavailable")
	ErrJobFailed       = errors.New("backend: job failed")
	ErrInvalidShots    = errors.New("backend: shots must be positive")
	ErrCircuitTooLarge = errors.New("backend: circuit exceeds backend capacity")
)

// ExecutionError is returned when an executor cannot produce counts. It is
// surfaced to the caller as-is and never retried.
type ExecutionError struct {
	Backend string
	Op      string
	Status  int // HTTP status for remote executors, 0 otherwise
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend %s: %s: status %d: %v", e.Backend, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("backend %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ValidateRun performs the checks shared by every executor before a run.
func ValidateRun(info Info, c *circuit.Circuit, shots int) error {
	if shots <= 0 {
		return &ExecutionError{Backend: info.Name, Op: "run", Err: fmt.Errorf("%w, got %d", ErrInvalidShots, shots)}
	}
	if c == nil {
		return &ExecutionError{Backend: info.Name, Op: "run", Err: errors.New("nil circuit")}
	}
	if err := c.Validate(); err != nil {
		return &ExecutionError{Backend: info.Name, Op: "run", Err: err}
	}
	if info.MaxLines > 0 && c.Lines > info.MaxLines {
		return &ExecutionError{
			Backend: info.Name,
			Op:      "run",
			Err:     fmt.Errorf("%w: %d lines, limit %d", ErrCircuitTooLarge, c.Lines, info.MaxLines),
		}
	}
	return nil
}

// Counts maps an observed classical bit-string (highest clbit first) to the
// number of shots that produced it.
type Counts map[string]int

// Total returns the number of shots represented.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Keys returns the observed bit-strings in lexical order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Probability returns the observed frequency of key.
func (c Counts) Probability(key string) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c[key]) / float64(total)
}

// MostFrequent returns the bit-string with the highest count; ties resolve to
// the lexically smallest key.
func (c Counts) MostFrequent() (string, int) {
	best, bestN := "", -1
	for _, k := range c.Keys() {
		if c[k] > bestN {
			best, bestN = k, c[k]
		}
	}
	if bestN < 0 {
		return "", 0
	}
	return best, bestN
}
