// Package experiment wires the multiplexer builder to an executor: it builds
// a circuit, runs it and reports how often the routed value was observed.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/backend"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceMux/pkg/mux"
)

// Request describes one multiplexer experiment.
type Request struct {
	DataCount int
	Data      []bool
	Select    int
	Shots     int
	Options   []mux.Option
}

// FromPreset converts a preset into a request.
func FromPreset(p mux.Preset, shots int, opts ...mux.Option) Request {
	return Request{
		DataCount: len(p.Data),
		Data:      p.Data,
		Select:    p.Select,
		Shots:     shots,
		Options:   append([]mux.Option{mux.WithName(p.Name)}, opts...),
	}
}

// Report is the outcome of one run.
type Report struct {
	ID       string
	Backend  backend.Info
	Circuit  *circuit.Circuit
	Counts   backend.Counts
	Shots    int
	Duration time.Duration

	// Expected is the routed data value, ExpectedKey its bit-string.
	Expected    bool
	ExpectedKey string
	// Success is the observed frequency of ExpectedKey.
	Success float64
}

// Correct reports whether the most frequent outcome is the expected one.
func (r *Report) Correct() bool {
	key, _ := r.Counts.MostFrequent()
	return key == r.ExpectedKey
}

func (r *Report) String() string {
	return fmt.Sprintf("%s on %s: expected %s, success %.1f%% over %d shots",
		r.Circuit.Name, r.Backend.Name, r.ExpectedKey, r.Success*100, r.Shots)
}

// Runner executes requests on one executor.
type Runner struct {
	Executor backend.Executor
	Logger   *zap.Logger
}

// NewRunner returns a Runner. A nil logger disables logging.
func NewRunner(exec backend.Executor, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Executor: exec, Logger: logger}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Run builds the circuit for req, executes it and reports the result. Build
// errors are returned before anything is sent to the executor.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	c, err := mux.Build(req.DataCount, req.Data, req.Select, req.Options...)
	if err != nil {
		return nil, err
	}
	expected, err := IdealOutput(c)
	if err != nil {
		return nil, err
	}
	return r.RunCircuit(ctx, c, req.Shots, expected)
}

// IdealOutput evaluates c noiselessly from the all-zero state and returns the
// value of its output line, false when c has no output.
func IdealOutput(c *circuit.Circuit) (bool, error) {
	state := make([]bool, c.Lines)
	if err := c.Apply(state); err != nil {
		return false, err
	}
	return c.Output >= 0 && state[c.Output], nil
}

// RunCircuit executes an already built circuit whose measured output should
// read expected.
func (r *Runner) RunCircuit(ctx context.Context, c *circuit.Circuit, shots int, expected bool) (*Report, error) {
	info := r.Executor.Info()
	id := uuid.NewString()
	log := r.logger().With(
		zap.String("run", id),
		zap.String("circuit", c.Name),
		zap.String("backend", info.Name),
	)
	log.Debug("executing",
		zap.Int("lines", c.Lines),
		zap.Int("gates", len(c.Gates)),
		zap.Int("depth", c.Depth()),
		zap.Int("shots", shots),
	)

	start := time.Now()
	counts, err := r.Executor.Run(ctx, c, shots)
	if err != nil {
		log.Error("execution failed", zap.Error(err))
		return nil, err
	}

	rep := &Report{
		ID:          id,
		Backend:     info,
		Circuit:     c,
		Counts:      counts,
		Shots:       shots,
		Duration:    time.Since(start),
		Expected:    expected,
		ExpectedKey: ExpectedKey(c, expected),
	}
	rep.Success = counts.Probability(rep.ExpectedKey)

	log.Info("run complete",
		zap.String("expected", rep.ExpectedKey),
		zap.Float64("success", rep.Success),
		zap.Int("outcomes", len(counts)),
		zap.Duration("elapsed", rep.Duration),
	)
	return rep, nil
}

// ExpectedKey is the bit-string a noiseless run of c yields when its output
// line holds value. Clbits not fed by the output line read 0.
func ExpectedKey(c *circuit.Circuit, value bool) string {
	bits := make([]bool, c.Clbits)
	for _, m := range c.Measurements {
		if m.Line == c.Output {
			bits[m.Clbit] = value
		}
	}
	return circuit.BitString(bits)
}
