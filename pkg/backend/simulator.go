package backend

import (
	"context"
	"math/rand/v2"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
)

// RunHook lets tests replace the evaluation of a circuit with canned counts.
type RunHook func(c *circuit.Circuit, shots int) (Counts, error)

// RunOp captures the last run request for inspection within tests.
type RunOp struct {
	Circuit *circuit.Circuit
	Shots   int
}

// Simulator evaluates X/CX/CCX circuits on classical bits. Without noise a
// single evaluation answers every shot; with noise each shot is sampled.
type Simulator struct {
	InfoData Info
	Noise    NoiseModel

	OnRun RunHook

	seed    uint64
	seeded  bool
	lastRun RunOp
	runs    int
}

// SimOption configures a Simulator.
type SimOption func(*Simulator)

// WithNoise enables error injection.
func WithNoise(n NoiseModel) SimOption {
	return func(s *Simulator) {
		s.Noise = n
		if !n.IsZero() {
			s.InfoData.Kind = KindNoisy
			s.InfoData.Name = "Noisy Logic Simulator"
			s.InfoData.Notes = n.String()
		}
	}
}

// WithSeed makes noisy sampling reproducible.
func WithSeed(seed uint64) SimOption {
	return func(s *Simulator) {
		s.seed = seed
		s.seeded = true
	}
}

// WithMaxLines caps the circuit width the simulator accepts.
func WithMaxLines(n int) SimOption {
	return func(s *Simulator) { s.InfoData.MaxLines = n }
}

// NewSimulator constructs a local executor.
func NewSimulator(opts ...SimOption) *Simulator {
	s := &Simulator{
		InfoData: Info{
			Name:      "Logic Simulator",
			Vendor:    "OpenTraceMux",
			Kind:      KindSimulator,
			Simulator: true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Info() Info {
	return s.InfoData
}

// LastRun returns a copy of the most recent run request.
func (s *Simulator) LastRun() RunOp {
	op := s.lastRun
	if op.Circuit != nil {
		op.Circuit = op.Circuit.Clone()
	}
	return op
}

// RunCount reports how many runs have been requested.
func (s *Simulator) RunCount() int {
	return s.runs
}

func (s *Simulator) Run(ctx context.Context, c *circuit.Circuit, shots int) (Counts, error) {
	if err := ValidateRun(s.InfoData, c, shots); err != nil {
		return nil, err
	}
	if err := s.Noise.Validate(); err != nil {
		return nil, &ExecutionError{Backend: s.InfoData.Name, Op: "run", Err: err}
	}

	s.runs++
	s.lastRun = RunOp{Circuit: c.Clone(), Shots: shots}

	if s.OnRun != nil {
		return s.OnRun(c, shots)
	}

	if s.Noise.IsZero() {
		state := make([]bool, c.Lines)
		for _, g := range c.Gates {
			circuit.ApplyGate(g, state)
		}
		return Counts{circuit.BitString(c.Readout(state)): shots}, nil
	}

	rng := s.rng()
	counts := make(Counts)
	state := make([]bool, c.Lines)
	for shot := 0; shot < shots; shot++ {
		if shot%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &ExecutionError{Backend: s.InfoData.Name, Op: "run", Err: err}
			}
		}
		clear(state)
		for _, g := range c.Gates {
			circuit.ApplyGate(g, state)
			s.injectGateNoise(rng, g, state)
		}
		bits := c.Readout(state)
		if s.Noise.ReadoutError > 0 {
			for i := range bits {
				if rng.Float64() < s.Noise.ReadoutError {
					bits[i] = !bits[i]
				}
			}
		}
		counts[circuit.BitString(bits)]++
	}
	return counts, nil
}

func (s *Simulator) rng() *rand.Rand {
	if s.seeded {
		// Offset by the run number so repeated runs differ but stay reproducible.
		return rand.New(rand.NewPCG(s.seed, uint64(s.runs)))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (s *Simulator) injectGateNoise(rng *rand.Rand, g circuit.Gate, state []bool) {
	p := s.Noise.GateError1
	if len(g.Controls) > 0 {
		p = s.Noise.GateError2
	}
	if p > 0 && rng.Float64() < p {
		for _, l := range g.Lines() {
			state[l] = rng.IntN(2) == 1
		}
	}
	if decay := s.Noise.decayProbability(); decay > 0 {
		for _, l := range g.Lines() {
			if state[l] && rng.Float64() < decay {
				state[l] = false
			}
		}
	}
}
