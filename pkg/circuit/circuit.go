package circuit

import (
	"fmt"
)

// Kind identifies a reversible gate by its number of control lines.
type Kind uint8

const (
	KindX   Kind = iota // NOT, no controls
	KindCX              // controlled-NOT
	KindCCX             // controlled-controlled-NOT (Toffoli)
)

// String returns the lowercase mnemonic used by OpenQASM and the netlist format.
func (k Kind) String() string {
	switch k {
	case KindX:
		return "x"
	case KindCX:
		return "cx"
	case KindCCX:
		return "ccx"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Controls reports how many control lines a gate of this kind carries.
func (k Kind) Controls() int {
	switch k {
	case KindCX:
		return 1
	case KindCCX:
		return 2
	default:
		return 0
	}
}

// KindForControls maps a control count back to a gate kind.
func KindForControls(n int) (Kind, bool) {
	switch n {
	case 0:
		return KindX, true
	case 1:
		return KindCX, true
	case 2:
		return KindCCX, true
	}
	return 0, false
}

// Gate flips Target iff every control line is 1.
type Gate struct {
	Kind     Kind
	Controls []int
	Target   int
}

// Lines returns the controls followed by the target.
func (g Gate) Lines() []int {
	lines := make([]int, 0, len(g.Controls)+1)
	lines = append(lines, g.Controls...)
	return append(lines, g.Target)
}

func (g Gate) String() string {
	s := g.Kind.String()
	for i, l := range g.Lines() {
		if i == 0 {
			s += " "
		} else {
			s += ","
		}
		s += fmt.Sprintf("%d", l)
	}
	return s
}

// Measurement copies a line into a classical bit once all gates have run.
type Measurement struct {
	Line  int
	Clbit int
}

// Circuit is an ordered gate list over a fixed number of boolean lines.
type Circuit struct {
	Name         string
	Lines        int
	Clbits       int
	Labels       []string // optional, one per line
	Gates        []Gate
	Measurements []Measurement

	// Output is the designated output line, -1 when not known.
	Output int
}

// New creates an empty circuit.
func New(name string, lines, clbits int) *Circuit {
	return &Circuit{
		Name:   name,
		Lines:  lines,
		Clbits: clbits,
		Output: -1,
	}
}

// X appends a NOT gate.
func (c *Circuit) X(target int) *Circuit {
	c.Gates = append(c.Gates, Gate{Kind: KindX, Target: target})
	return c
}

// CX appends a controlled-NOT gate.
func (c *Circuit) CX(control, target int) *Circuit {
	c.Gates = append(c.Gates, Gate{Kind: KindCX, Controls: []int{control}, Target: target})
	return c
}

// CCX appends a Toffoli gate.
func (c *Circuit) CCX(c1, c2, target int) *Circuit {
	c.Gates = append(c.Gates, Gate{Kind: KindCCX, Controls: []int{c1, c2}, Target: target})
	return c
}

// Measure records that line is read out into clbit.
func (c *Circuit) Measure(line, clbit int) *Circuit {
	c.Measurements = append(c.Measurements, Measurement{Line: line, Clbit: clbit})
	return c
}

// Label returns the display name of a line.
func (c *Circuit) Label(line int) string {
	if line >= 0 && line < len(c.Labels) && c.Labels[line] != "" {
		return c.Labels[line]
	}
	return fmt.Sprintf("q%d", line)
}

// Validate checks line and bit ranges and gate well-formedness.
func (c *Circuit) Validate() error {
	if c.Lines <= 0 {
		return fmt.Errorf("circuit: line count must be positive, got %d", c.Lines)
	}
	if c.Clbits < 0 {
		return fmt.Errorf("circuit: clbit count must not be negative, got %d", c.Clbits)
	}
	if len(c.Labels) != 0 && len(c.Labels) != c.Lines {
		return fmt.Errorf("circuit: %d labels for %d lines", len(c.Labels), c.Lines)
	}
	if c.Output < -1 || c.Output >= c.Lines {
		return fmt.Errorf("circuit: output line %d out of range", c.Output)
	}

	for i, g := range c.Gates {
		if len(g.Controls) != g.Kind.Controls() {
			return fmt.Errorf("circuit: gate %d (%s) has %d controls, want %d", i, g.Kind, len(g.Controls), g.Kind.Controls())
		}
		if err := c.checkLine(g.Target); err != nil {
			return fmt.Errorf("circuit: gate %d target: %w", i, err)
		}
		for j, ctl := range g.Controls {
			if err := c.checkLine(ctl); err != nil {
				return fmt.Errorf("circuit: gate %d control: %w", i, err)
			}
			if ctl == g.Target {
				return fmt.Errorf("circuit: gate %d uses line %d as both control and target", i, ctl)
			}
			for _, other := range g.Controls[:j] {
				if other == ctl {
					return fmt.Errorf("circuit: gate %d repeats control line %d", i, ctl)
				}
			}
		}
	}

	seen := make(map[int]bool, len(c.Measurements))
	for i, m := range c.Measurements {
		if err := c.checkLine(m.Line); err != nil {
			return fmt.Errorf("circuit: measurement %d: %w", i, err)
		}
		if m.Clbit < 0 || m.Clbit >= c.Clbits {
			return fmt.Errorf("circuit: measurement %d: clbit %d out of range [0,%d)", i, m.Clbit, c.Clbits)
		}
		if seen[m.Clbit] {
			return fmt.Errorf("circuit: clbit %d measured twice", m.Clbit)
		}
		seen[m.Clbit] = true
	}
	return nil
}

func (c *Circuit) checkLine(line int) error {
	if line < 0 || line >= c.Lines {
		return fmt.Errorf("line %d out of range [0,%d)", line, c.Lines)
	}
	return nil
}

// Apply runs every gate on state in order. state must hold one value per line.
func (c *Circuit) Apply(state []bool) error {
	if len(state) != c.Lines {
		return fmt.Errorf("circuit: state has %d lines, circuit has %d", len(state), c.Lines)
	}
	for _, g := range c.Gates {
		ApplyGate(g, state)
	}
	return nil
}

// ApplyGate flips the target of g when all of its controls are set.
func ApplyGate(g Gate, state []bool) {
	for _, ctl := range g.Controls {
		if !state[ctl] {
			return
		}
	}
	state[g.Target] = !state[g.Target]
}

// Readout collects the measured bits of state into a classical register.
func (c *Circuit) Readout(state []bool) []bool {
	bits := make([]bool, c.Clbits)
	for _, m := range c.Measurements {
		bits[m.Clbit] = state[m.Line]
	}
	return bits
}

// BitString formats a classical register with the highest clbit first.
func BitString(bits []bool) string {
	out := make([]byte, len(bits))
	for i, b := range bits {
		ch := byte('0')
		if b {
			ch = '1'
		}
		out[len(bits)-1-i] = ch
	}
	return string(out)
}

// Equal reports structural identity: same shape, gate sequence, measurements
// and output line. Names and labels are ignored.
func (c *Circuit) Equal(other *Circuit) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Lines != other.Lines || c.Clbits != other.Clbits || c.Output != other.Output {
		return false
	}
	if len(c.Gates) != len(other.Gates) || len(c.Measurements) != len(other.Measurements) {
		return false
	}
	for i := range c.Gates {
		a, b := c.Gates[i], other.Gates[i]
		if a.Kind != b.Kind || a.Target != b.Target || len(a.Controls) != len(b.Controls) {
			return false
		}
		for j := range a.Controls {
			if a.Controls[j] != b.Controls[j] {
				return false
			}
		}
	}
	for i := range c.Measurements {
		if c.Measurements[i] != other.Measurements[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (c *Circuit) Clone() *Circuit {
	cp := *c
	cp.Labels = append([]string(nil), c.Labels...)
	cp.Measurements = append([]Measurement(nil), c.Measurements...)
	cp.Gates = make([]Gate, len(c.Gates))
	for i, g := range c.Gates {
		g.Controls = append([]int(nil), g.Controls...)
		cp.Gates[i] = g
	}
	return &cp
}

// Counts tallies gates per kind.
func (c *Circuit) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, g := range c.Gates {
		counts[g.Kind]++
	}
	return counts
}

// Depth returns the number of layers when gates touching disjoint lines are
// packed into the same layer.
func (c *Circuit) Depth() int {
	level := make([]int, c.Lines)
	depth := 0
	for _, g := range c.Gates {
		layer := 0
		for _, l := range g.Lines() {
			if level[l] > layer {
				layer = level[l]
			}
		}
		layer++
		for _, l := range g.Lines() {
			level[l] = layer
		}
		if layer > depth {
			depth = layer
		}
	}
	return depth
}
