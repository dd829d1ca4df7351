package circuit

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Draw writes a text diagram of the circuit, one row per line and one column
// per gate, followed by the measurement column.
func (c *Circuit) Draw(w io.Writer) error {
	if err := c.Validate(); err != nil {
		return err
	}

	width := 0
	for i := 0; i < c.Lines; i++ {
		if n := len(c.Label(i)); n > width {
			width = n
		}
	}

	rows := make([]strings.Builder, c.Lines)
	for i := range rows {
		fmt.Fprintf(&rows[i], "%-*s: ", width, c.Label(i))
	}

	for _, g := range c.Gates {
		lo, hi := g.Target, g.Target
		for _, ctl := range g.Controls {
			lo = min(lo, ctl)
			hi = max(hi, ctl)
		}
		for i := range rows {
			rows[i].WriteString(gateCell(g, i, lo, hi))
		}
	}

	if len(c.Measurements) > 0 {
		measured := make(map[int]string, len(c.Measurements))
		cell := 3
		for _, m := range c.Measurements {
			mark := fmt.Sprintf("─M%d", m.Clbit)
			measured[m.Line] = mark
			cell = max(cell, utf8.RuneCountInString(mark))
		}
		for i := range rows {
			mark, ok := measured[i]
			if !ok {
				mark = "─"
			}
			rows[i].WriteString(mark)
			rows[i].WriteString(strings.Repeat("─", cell-utf8.RuneCountInString(mark)))
		}
	}

	for i := range rows {
		if _, err := fmt.Fprintln(w, strings.TrimRight(rows[i].String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

func gateCell(g Gate, line, lo, hi int) string {
	if line == g.Target {
		if g.Kind == KindX {
			return "─X─"
		}
		return "─⊕─"
	}
	for _, ctl := range g.Controls {
		if ctl == line {
			return "─●─"
		}
	}
	if line > lo && line < hi {
		return "─┼─"
	}
	return "───"
}
