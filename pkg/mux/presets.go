package mux

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
)

// Preset is a hard-coded demonstration configuration.
type Preset struct {
	Name        string
	Description string
	Data        []bool
	Select      int
}

// Build constructs the preset's circuit.
func (p Preset) Build(opts ...Option) (*circuit.Circuit, error) {
	return Build(len(p.Data), p.Data, p.Select, append([]Option{WithName(p.Name)}, opts...)...)
}

// Expected returns the value the preset routes to its output.
func (p Preset) Expected() bool {
	return p.Data[p.Select]
}

var presets = map[string]Preset{
	"mux2": {
		Name:        "mux2",
		Description: "2:1, both inputs high, select 0",
		Data:        Bits(1, 1),
		Select:      0,
	},
	"mux4": {
		Name:        "mux4",
		Description: "4:1, D0 and D2 high, select D2",
		Data:        Bits(1, 0, 1, 0),
		Select:      2,
	},
	"mux8": {
		Name:        "mux8",
		Description: "8:1, even inputs high, select D5",
		Data:        Bits(1, 0, 1, 0, 1, 0, 1, 0),
		Select:      5,
	},
	"mux16": {
		Name:        "mux16",
		Description: "16:1, D0 D3 D7 D12 high, select D10",
		Data:        Bits(1, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0),
		Select:      10,
	},
}

// Presets returns all presets ordered by width.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return len(out[i].Data) < len(out[j].Data) })
	return out
}

// LookupPreset finds a preset by name.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("mux: unknown preset %q", name)
	}
	return p, nil
}

// ParseBits reads a comma separated list of 0/1 values, or a compact string
// such as "1010" where the first character is D0.
func ParseBits(s string) ([]bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("mux: empty data value list")
	}
	var fields []string
	if strings.Contains(s, ",") {
		fields = strings.Split(s, ",")
	} else {
		fields = strings.Split(s, "")
	}
	out := make([]bool, len(fields))
	for i, f := range fields {
		switch strings.TrimSpace(f) {
		case "1":
			out[i] = true
		case "0":
		default:
			return nil, fmt.Errorf("mux: data value %d: %q is not 0 or 1", i, f)
		}
	}
	return out, nil
}

// FormatBits renders booleans as a compact 0/1 string, D0 first.
func FormatBits(values []bool) string {
	var b strings.Builder
	for _, v := range values {
		if v {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Bits converts 0/1 integers into booleans.
func Bits(values ...int) []bool {
	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = v != 0
	}
	return out
}
