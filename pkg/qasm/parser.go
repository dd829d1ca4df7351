// Package qasm converts circuits to and from the OpenQASM 2.0 text accepted by
// hardware execution services. Only the reversible subset used by the
// multiplexer builder is understood: x, cx, ccx, measure and barrier.
package qasm

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/circuit"
)

// Parser reads OpenQASM 2.0 programs into circuits.
type Parser struct {
	parser *participle.Parser[Program]
}

// NewParser creates a new OpenQASM parser instance
func NewParser() (*Parser, error) {
	parser, err := participle.Build[Program](
		participle.Lexer(QASMLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	return &Parser{parser: parser}, nil
}

// Parse parses a program from a reader
func (p *Parser) Parse(r io.Reader) (*circuit.Circuit, error) {
	prog, err := p.parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return Lower(prog)
}

// ParseString parses a program from a string
func (p *Parser) ParseString(input string) (*circuit.Circuit, error) {
	prog, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return Lower(prog)
}

// ParseFile parses a program from a file path
func (p *Parser) ParseFile(filename string) (*circuit.Circuit, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	c, err := p.Parse(file)
	if err != nil {
		return nil, err
	}
	if c.Name == "" {
		c.Name = filename
	}
	return c, nil
}

type register struct {
	offset int
	size   int
}

type lowering struct {
	qregs map[string]register
	cregs map[string]register
	c     *circuit.Circuit
}

// Lower converts a parsed program into a circuit. Quantum registers are laid
// out one after another in declaration order, and so are classical registers.
// The line measured into classical bit 0 becomes the circuit output.
func Lower(prog *Program) (*circuit.Circuit, error) {
	if prog.Version != "2.0" && prog.Version != "2" {
		return nil, fmt.Errorf("qasm: %s: unsupported version %s", prog.Pos, prog.Version)
	}

	lw := &lowering{
		qregs: make(map[string]register),
		cregs: make(map[string]register),
	}

	lines, clbits := 0, 0
	for _, st := range prog.Statements {
		switch {
		case st.QReg != nil:
			if err := declare(lw.qregs, lw.cregs, st.QReg, &lines, st.Pos); err != nil {
				return nil, err
			}
		case st.CReg != nil:
			if err := declare(lw.cregs, lw.qregs, st.CReg, &clbits, st.Pos); err != nil {
				return nil, err
			}
		}
	}
	if lines == 0 {
		return nil, fmt.Errorf("qasm: program declares no qreg")
	}
	lw.c = circuit.New("", lines, clbits)

	for _, st := range prog.Statements {
		var err error
		switch {
		case st.Gate != nil:
			err = lw.gate(st.Gate)
		case st.Measure != nil:
			err = lw.measure(st.Pos, st.Measure)
		case st.Barrier != nil:
			_, err = lw.expand(st.Pos, lw.qregs, st.Barrier)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, m := range lw.c.Measurements {
		if m.Clbit == 0 {
			lw.c.Output = m.Line
		}
	}
	if err := lw.c.Validate(); err != nil {
		return nil, fmt.Errorf("qasm: %w", err)
	}
	return lw.c, nil
}

func declare(regs, other map[string]register, decl *Register, total *int, pos lexer.Position) error {
	if _, dup := regs[decl.Name]; dup {
		return fmt.Errorf("qasm: %s: register %q redeclared", pos, decl.Name)
	}
	if _, dup := other[decl.Name]; dup {
		return fmt.Errorf("qasm: %s: register %q redeclared", pos, decl.Name)
	}
	if decl.Size <= 0 {
		return fmt.Errorf("qasm: %s: register %q has size %d", pos, decl.Name, decl.Size)
	}
	regs[decl.Name] = register{offset: *total, size: decl.Size}
	*total += decl.Size
	return nil
}

func (lw *lowering) gate(call *GateCall) error {
	if len(call.Params) > 0 {
		return fmt.Errorf("qasm: %s: parameterized gate %s not supported", call.Pos, call.Name)
	}
	kind, ok := gateKinds[call.Name]
	if !ok {
		return fmt.Errorf("qasm: %s: unsupported gate %q", call.Pos, call.Name)
	}
	if want := kind.Controls() + 1; len(call.Args) != want {
		return fmt.Errorf("qasm: %s: %s takes %d operands, got %d", call.Pos, call.Name, want, len(call.Args))
	}

	rows, err := lw.expand(call.Pos, lw.qregs, call.Args)
	if err != nil {
		return err
	}
	for _, row := range rows {
		lw.c.Gates = append(lw.c.Gates, circuit.Gate{
			Kind:     kind,
			Controls: row[:len(row)-1],
			Target:   row[len(row)-1],
		})
	}
	return nil
}

func (lw *lowering) measure(pos lexer.Position, m *Measure) error {
	src, err := lw.expand(pos, lw.qregs, []*Operand{m.Source})
	if err != nil {
		return err
	}
	dst, err := lw.expand(pos, lw.cregs, []*Operand{m.Dest})
	if err != nil {
		return err
	}
	if len(src) != len(dst) {
		return fmt.Errorf("qasm: %s: measure of %d bits into %d bits", pos, len(src), len(dst))
	}
	for i := range src {
		lw.c.Measure(src[i][0], dst[i][0])
	}
	return nil
}

// expand resolves operands to absolute indices. Whole-register operands are
// broadcast: every unindexed register must have the same size and the call is
// repeated once per element.
func (lw *lowering) expand(pos lexer.Position, regs map[string]register, ops []*Operand) ([][]int, error) {
	width := 1
	broadcast := false
	for _, op := range ops {
		reg, ok := regs[op.Reg]
		if !ok {
			return nil, fmt.Errorf("qasm: %s: unknown register %q", op.Pos, op.Reg)
		}
		if op.Index != nil {
			if *op.Index < 0 || *op.Index >= reg.size {
				return nil, fmt.Errorf("qasm: %s: index %s[%d] out of range", op.Pos, op.Reg, *op.Index)
			}
			continue
		}
		if broadcast && reg.size != width {
			return nil, fmt.Errorf("qasm: %s: register size mismatch in broadcast", pos)
		}
		broadcast = true
		width = reg.size
	}

	rows := make([][]int, width)
	for i := range rows {
		row := make([]int, len(ops))
		for j, op := range ops {
			reg := regs[op.Reg]
			if op.Index != nil {
				row[j] = reg.offset + *op.Index
			} else {
				row[j] = reg.offset + i
			}
		}
		rows[i] = row
	}
	return rows, nil
}

var gateKinds = map[string]circuit.Kind{
	"x":   circuit.KindX,
	"cx":  circuit.KindCX,
	"CX":  circuit.KindCX,
	"ccx": circuit.KindCCX,
}
