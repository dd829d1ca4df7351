package mux

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
)

// evaluate runs c from the all-zero state and returns the measured output.
func evaluate(t *testing.T, c *circuit.Circuit) (bool, []bool) {
	t.Helper()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	state := make([]bool, c.Lines)
	if err := c.Apply(state); err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	bits := c.Readout(state)
	return bits[0], state
}

func TestBuildKnownScenarios(t *testing.T) {
	cases := []struct {
		name   string
		data   []bool
		sel    int
		output bool
	}{
		{"4:1 select 2", Bits(1, 0, 1, 0), 2, true},
		{"8:1 select 5", Bits(1, 0, 1, 0, 1, 0, 1, 0), 5, false},
		{"2:1 select 1", Bits(0, 1), 1, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Build(len(tc.data), tc.data, tc.sel)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			got, _ := evaluate(t, c)
			if got != tc.output {
				t.Fatalf("output = %v, want %v", got, tc.output)
			}
		})
	}
}

func TestBuildRoutesEveryDataPattern(t *testing.T) {
	for _, n := range []int{2, 4, 8} {
		for pattern := 0; pattern < 1<<n; pattern++ {
			data := make([]bool, n)
			for i := range data {
				data[i] = pattern&(1<<i) != 0
			}
			for sel := 0; sel < n; sel++ {
				c, err := Build(n, data, sel)
				if err != nil {
					t.Fatalf("Build(%d, %v, %d) error = %v", n, data, sel, err)
				}
				got, _ := evaluate(t, c)
				if got != data[sel] {
					t.Fatalf("n=%d pattern=%b sel=%d: output %v, want %v", n, pattern, sel, got, data[sel])
				}
			}
		}
	}
}

func TestBuildLargeWidthsSampled(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, n := range []int{16, 32, 64} {
		for trial := 0; trial < 32; trial++ {
			data := make([]bool, n)
			for i := range data {
				data[i] = rng.IntN(2) == 1
			}
			sel := rng.IntN(n)
			c, err := Build(n, data, sel)
			if err != nil {
				t.Fatalf("Build error = %v", err)
			}
			if got, _ := evaluate(t, c); got != data[sel] {
				t.Fatalf("n=%d sel=%d: output %v, want %v", n, sel, got, data[sel])
			}
		}
	}
}

func TestOnlySelectedLineInfluencesOutput(t *testing.T) {
	const n = 8
	for sel := 0; sel < n; sel++ {
		base := make([]bool, n)
		for other := 0; other < n; other++ {
			if other == sel {
				continue
			}
			data := append([]bool(nil), base...)
			data[other] = true
			c, err := Build(n, data, sel)
			if err != nil {
				t.Fatalf("Build error = %v", err)
			}
			if got, _ := evaluate(t, c); got {
				t.Fatalf("sel=%d: flipping D%d changed the output", sel, other)
			}
		}
	}
}

func TestBuildConfigurationErrors(t *testing.T) {
	cases := []struct {
		name  string
		count int
		data  []bool
		sel   int
	}{
		{"not power of two", 6, make([]bool, 6), 0},
		{"three", 3, make([]bool, 3), 0},
		{"one", 1, make([]bool, 1), 0},
		{"zero", 0, nil, 0},
		{"too wide", 2 * MaxDataCount, make([]bool, 2*MaxDataCount), 0},
		{"select too high", 4, make([]bool, 4), 4},
		{"select negative", 4, make([]bool, 4), -1},
		{"data length", 4, make([]bool, 3), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Build(tc.count, tc.data, tc.sel)
			if err == nil {
				t.Fatalf("Build() = %v, want error", c)
			}
			if c != nil {
				t.Fatalf("Build() returned a circuit alongside error %v", err)
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("error %v does not match ErrConfiguration", err)
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error %T is not a *ConfigurationError", err)
			}
		})
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	data := Bits(1, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0)
	a, err := Build(16, data, 10)
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}
	b, err := Build(16, data, 10)
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("two builds with identical parameters differ")
	}

	other, _ := Build(16, data, 11)
	if a.Equal(other) {
		t.Fatalf("different select values produced identical circuits")
	}
}

func TestUncomputeRestoresInputs(t *testing.T) {
	data := Bits(1, 0, 1, 1, 0, 0, 1, 0)
	for sel := 0; sel < len(data); sel++ {
		c, err := Build(len(data), data, sel, WithUncompute())
		if err != nil {
			t.Fatalf("Build error = %v", err)
		}
		got, state := evaluate(t, c)
		if got != data[sel] {
			t.Fatalf("sel=%d: output %v, want %v", sel, got, data[sel])
		}
		layout, _ := NewLayout(len(data))
		for i, v := range data {
			if state[layout.Data(i)] != v {
				t.Fatalf("sel=%d: D%d = %v after uncompute, want %v", sel, i, state[layout.Data(i)], v)
			}
		}
		for b := 0; b < layout.SelectCount; b++ {
			if want := sel&(1<<b) != 0; state[layout.Select(b)] != want {
				t.Fatalf("sel=%d: S%d disturbed", sel, b)
			}
		}
	}
}

func TestBuildSelectorTruthTable(t *testing.T) {
	c, err := BuildSelector(4)
	if err != nil {
		t.Fatalf("BuildSelector error = %v", err)
	}
	layout, _ := NewLayout(4)
	for input := 0; input < 1<<6; input++ {
		state := make([]bool, c.Lines)
		for i := 0; i < 6; i++ {
			state[i] = input&(1<<i) != 0
		}
		sel := input >> 4
		want := state[layout.Data(sel)]
		if err := c.Apply(state); err != nil {
			t.Fatalf("Apply error = %v", err)
		}
		if state[layout.Output()] != want {
			t.Fatalf("input %06b: output %v, want %v", input, state[layout.Output()], want)
		}
	}
}

func TestWithoutPreparationMatchesSelector(t *testing.T) {
	a, _ := Build(8, make([]bool, 8), 3, WithoutPreparation())
	b, _ := BuildSelector(8)
	if !a.Equal(b) {
		t.Fatalf("WithoutPreparation should equal BuildSelector")
	}
}

func TestLayout(t *testing.T) {
	l, err := NewLayout(16)
	if err != nil {
		t.Fatalf("NewLayout error = %v", err)
	}
	if l.SelectCount != 4 || l.Lines() != 21 || l.Output() != 20 || l.Select(0) != 16 {
		t.Fatalf("unexpected layout %+v", l)
	}
	labels := l.Labels()
	if labels[0] != "D0" || labels[16] != "S0" || labels[20] != "OUT" {
		t.Fatalf("unexpected labels %v", labels)
	}
}

func TestPresets(t *testing.T) {
	for _, p := range Presets() {
		c, err := p.Build()
		if err != nil {
			t.Fatalf("%s: Build error = %v", p.Name, err)
		}
		if c.Name != p.Name {
			t.Fatalf("%s: circuit named %q", p.Name, c.Name)
		}
		if got, _ := evaluate(t, c); got != p.Expected() {
			t.Fatalf("%s: output %v, want %v", p.Name, got, p.Expected())
		}
	}

	if _, err := LookupPreset("mux3"); err == nil {
		t.Fatalf("LookupPreset(mux3) should fail")
	}
}

func TestParseBits(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1,0,1,0", "1010", false},
		{"0110", "0110", false},
		{" 1, 1 ", "11", false},
		{"1,2", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseBits(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseBits(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseBits(%q) error = %v", tc.in, err)
		}
		if FormatBits(got) != tc.want {
			t.Fatalf("ParseBits(%q) = %s, want %s", tc.in, FormatBits(got), tc.want)
		}
	}
}
