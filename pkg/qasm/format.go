package qasm

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
)

const (
	header  = "OPENQASM 2.0;"
	include = `include "qelib1.inc";`
)

// Format renders c as an OpenQASM 2.0 program with one quantum register q and
// one classical register c.
func Format(c *circuit.Circuit) string {
	var b strings.Builder

	b.WriteString(header + "\n")
	b.WriteString(include + "\n")
	if c.Name != "" {
		fmt.Fprintf(&b, "// %s\n", c.Name)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "qreg q[%d];\n", c.Lines)
	if c.Clbits > 0 {
		fmt.Fprintf(&b, "creg c[%d];\n", c.Clbits)
	}
	b.WriteString("\n")

	for _, g := range c.Gates {
		b.WriteString(g.Kind.String())
		for i, l := range g.Lines() {
			if i == 0 {
				b.WriteString(" ")
			} else {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "q[%d]", l)
		}
		b.WriteString(";\n")
	}

	if len(c.Measurements) > 0 {
		b.WriteString("\n")
		for _, m := range c.Measurements {
			fmt.Fprintf(&b, "measure q[%d] -> c[%d];\n", m.Line, m.Clbit)
		}
	}

	return b.String()
}
