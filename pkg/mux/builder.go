// Package mux builds N:1 multiplexers out of reversible X, CX and CCX gates.
//
// Data lines D0..D(N-1) are routed by a tree of controlled exchanges: select
// bit S_l swaps every pair of lines 2^l apart on its level, so once all levels
// have run D0 carries the selected input. The value is then copied onto the
// dedicated output line and measured into classical bit 0.
package mux

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
)

// Option tweaks circuit construction.
type Option func(*options)

type options struct {
	uncompute bool
	noPrepare bool
	name      string
}

// WithUncompute replays the routing network after the copy so that all data
// lines return to their prepared values.
func WithUncompute() Option {
	return func(o *options) { o.uncompute = true }
}

// WithoutPreparation leaves out the X gates that load the data and select
// values, producing a selector that acts on whatever input the executor holds.
func WithoutPreparation() Option {
	return func(o *options) { o.noPrepare = true }
}

// WithName overrides the default circuit name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Build produces a circuit whose output line equals dataValues[selectValue]
// after a noiseless execution. Invalid parameters yield a *ConfigurationError
// and no circuit.
func Build(dataCount int, dataValues []bool, selectValue int, opts ...Option) (*circuit.Circuit, error) {
	layout, err := NewLayout(dataCount)
	if err != nil {
		return nil, err
	}
	if len(dataValues) != dataCount {
		return nil, configError("data value count", len(dataValues), "want exactly %d", dataCount)
	}
	if err := layout.CheckSelect(selectValue); err != nil {
		return nil, err
	}

	cfg := applyOptions(dataCount, opts)
	c := newCircuit(layout, cfg.name)

	if !cfg.noPrepare {
		for i, v := range dataValues {
			if v {
				c.X(layout.Data(i))
			}
		}
		for b := 0; b < layout.SelectCount; b++ {
			if selectValue&(1<<b) != 0 {
				c.X(layout.Select(b))
			}
		}
	}

	appendSelector(c, layout, cfg.uncompute)
	return c, nil
}

// BuildSelector returns the routing network, copy and measurement without any
// input preparation.
func BuildSelector(dataCount int, opts ...Option) (*circuit.Circuit, error) {
	layout, err := NewLayout(dataCount)
	if err != nil {
		return nil, err
	}
	cfg := applyOptions(dataCount, opts)
	c := newCircuit(layout, cfg.name)
	appendSelector(c, layout, cfg.uncompute)
	return c, nil
}

// Expected returns the value a correct multiplexer routes to its output.
func Expected(dataValues []bool, selectValue int) (bool, error) {
	if selectValue < 0 || selectValue >= len(dataValues) {
		return false, configError("select value", selectValue, "must be in [0,%d)", len(dataValues))
	}
	return dataValues[selectValue], nil
}

func applyOptions(dataCount int, opts []Option) options {
	cfg := options{name: fmt.Sprintf("mux%d", dataCount)}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func newCircuit(layout Layout, name string) *circuit.Circuit {
	c := circuit.New(name, layout.Lines(), 1)
	c.Labels = layout.Labels()
	c.Output = layout.Output()
	return c
}

func appendSelector(c *circuit.Circuit, layout Layout, uncompute bool) {
	start := len(c.Gates)
	for level := 0; level < layout.SelectCount; level++ {
		stride := 1 << level
		sel := layout.Select(level)
		for j := 0; j < layout.DataCount; j += 2 * stride {
			controlledExchange(c, sel, layout.Data(j), layout.Data(j+stride))
		}
	}
	routing := append([]circuit.Gate(nil), c.Gates[start:]...)

	c.CX(layout.Data(0), layout.Output())

	if uncompute {
		for i := len(routing) - 1; i >= 0; i-- {
			c.Gates = append(c.Gates, routing[i])
		}
	}

	c.Measure(layout.Output(), 0)
}

// controlledExchange moves hi into lo (and lo into hi) when sel is 1.
func controlledExchange(c *circuit.Circuit, sel, lo, hi int) {
	c.CX(hi, lo)
	c.CCX(sel, lo, hi)
	c.CX(hi, lo)
}
