// Package netlist stores circuits as S-expressions:
//
//	(circuit "mux4"
//	  (lines 7)
//	  (clbits 1)
//	  (output 6)
//	  (labels "D0" "D1" "D2" "D3" "S0" "S1" "OUT")
//	  (gates
//	    (x 0)
//	    (cx 1 0)
//	    (ccx 4 0 1))
//	  (measure 6 0))
//
// Gate operands list the controls first and the target last.
package netlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
)

// Write serializes c.
func Write(w io.Writer, c *circuit.Circuit) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "(circuit %s\n", strconv.Quote(c.Name))
	fmt.Fprintf(bw, "  (lines %d)\n", c.Lines)
	fmt.Fprintf(bw, "  (clbits %d)\n", c.Clbits)
	fmt.Fprintf(bw, "  (output %d)\n", c.Output)

	if len(c.Labels) > 0 {
		quoted := make([]string, len(c.Labels))
		for i, l := range c.Labels {
			quoted[i] = strconv.Quote(l)
		}
		fmt.Fprintf(bw, "  (labels %s)\n", strings.Join(quoted, " "))
	}

	bw.WriteString("  (gates")
	for _, g := range c.Gates {
		bw.WriteString("\n    (" + g.Kind.String())
		for _, l := range g.Lines() {
			fmt.Fprintf(bw, " %d", l)
		}
		bw.WriteString(")")
	}
	bw.WriteString(")")

	for _, m := range c.Measurements {
		fmt.Fprintf(bw, "\n  (measure %d %d)", m.Line, m.Clbit)
	}
	bw.WriteString(")\n")

	return bw.Flush()
}

// ReadFile loads a circuit from path.
func ReadFile(path string) (*circuit.Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a single (circuit ...) form and validates the result.
func Read(r io.Reader) (*circuit.Circuit, error) {
	nodes, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("netlist: %w", err)
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("netlist: expected one circuit form, found %d", len(nodes))
	}
	root, ok := nodes[0].(*List)
	if !ok || root.Head() != "circuit" {
		return nil, fmt.Errorf("netlist: top-level form must be (circuit ...)")
	}

	c := circuit.New("", 0, 0)
	args := root.Args()
	if len(args) > 0 {
		if a, ok := args[0].(Atom); ok && a.Quoted {
			c.Name = a.Value
			args = args[1:]
		}
	}

	for _, node := range args {
		form, ok := node.(*List)
		if !ok {
			return nil, fmt.Errorf("netlist: unexpected atom %s in circuit", node)
		}
		if err := readForm(c, form); err != nil {
			return nil, fmt.Errorf("netlist: line %d: %w", form.Line, err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("netlist: %w", err)
	}
	return c, nil
}

func readForm(c *circuit.Circuit, form *List) error {
	switch head := form.Head(); head {
	case "lines", "clbits", "output":
		vals, err := ints(form.Args())
		if err != nil {
			return err
		}
		if len(vals) != 1 {
			return fmt.Errorf("(%s) takes one value", head)
		}
		switch head {
		case "lines":
			c.Lines = vals[0]
		case "clbits":
			c.Clbits = vals[0]
		default:
			c.Output = vals[0]
		}
	case "labels":
		for _, n := range form.Args() {
			a, ok := n.(Atom)
			if !ok {
				return fmt.Errorf("(labels) expects strings")
			}
			c.Labels = append(c.Labels, a.Value)
		}
	case "gates":
		for _, n := range form.Args() {
			g, ok := n.(*List)
			if !ok {
				return fmt.Errorf("(gates) expects gate forms, found %s", n)
			}
			if err := readGate(c, g); err != nil {
				return fmt.Errorf("line %d: %w", g.Line, err)
			}
		}
	case "measure":
		vals, err := ints(form.Args())
		if err != nil {
			return err
		}
		if len(vals) != 2 {
			return fmt.Errorf("(measure) takes a line and a clbit")
		}
		c.Measure(vals[0], vals[1])
	default:
		return fmt.Errorf("unknown form %q", head)
	}
	return nil
}

func readGate(c *circuit.Circuit, form *List) error {
	lines, err := ints(form.Args())
	if err != nil {
		return err
	}
	var kind circuit.Kind
	switch form.Head() {
	case "x":
		kind = circuit.KindX
	case "cx":
		kind = circuit.KindCX
	case "ccx":
		kind = circuit.KindCCX
	default:
		return fmt.Errorf("unsupported gate %q", form.Head())
	}
	if len(lines) != kind.Controls()+1 {
		return fmt.Errorf("%s takes %d lines, got %d", kind, kind.Controls()+1, len(lines))
	}
	c.Gates = append(c.Gates, circuit.Gate{
		Kind:     kind,
		Controls: lines[:len(lines)-1],
		Target:   lines[len(lines)-1],
	})
	return nil
}

func ints(nodes []Node) ([]int, error) {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		a, ok := n.(Atom)
		if !ok || a.Quoted {
			return nil, fmt.Errorf("expected integer, found %s", n)
		}
		v, err := a.Int()
		if err != nil {
			return nil, fmt.Errorf("expected integer, found %s", n)
		}
		out[i] = v
	}
	return out, nil
}
