package mux

import (
	"fmt"
	"math/bits"
)

// MaxDataCount bounds the multiplexer width.
const MaxDataCount = 1024

// Layout assigns circuit lines to the data, select and output signals of an
// N:1 multiplexer.
type Layout struct {
	DataCount   int
	SelectCount int
}

// NewLayout validates dataCount and derives the select width.
func NewLayout(dataCount int) (Layout, error) {
	if dataCount < 2 {
		return Layout{}, configError("data count", dataCount, "need at least 2 data lines")
	}
	if dataCount > MaxDataCount {
		return Layout{}, configError("data count", dataCount, "exceeds maximum of %d", MaxDataCount)
	}
	if dataCount&(dataCount-1) != 0 {
		return Layout{}, configError("data count", dataCount, "must be a power of two")
	}
	return Layout{
		DataCount:   dataCount,
		SelectCount: bits.TrailingZeros(uint(dataCount)),
	}, nil
}

// Data returns the line index of data input i.
func (l Layout) Data(i int) int { return i }

// Select returns the line index of select bit b (b=0 is the least significant).
func (l Layout) Select(b int) int { return l.DataCount + b }

// Output returns the line that receives the selected value.
func (l Layout) Output() int { return l.DataCount + l.SelectCount }

// Lines is the total circuit width.
func (l Layout) Lines() int { return l.DataCount + l.SelectCount + 1 }

// Labels names every line D0.., S0.., OUT.
func (l Layout) Labels() []string {
	labels := make([]string, 0, l.Lines())
	for i := 0; i < l.DataCount; i++ {
		labels = append(labels, fmt.Sprintf("D%d", i))
	}
	for b := 0; b < l.SelectCount; b++ {
		labels = append(labels, fmt.Sprintf("S%d", b))
	}
	return append(labels, "OUT")
}

// CheckSelect validates a select code against the layout.
func (l Layout) CheckSelect(selectValue int) error {
	if selectValue < 0 || selectValue >= l.DataCount {
		return configError("select value", selectValue, "must be in [0,%d)", l.DataCount)
	}
	return nil
}
