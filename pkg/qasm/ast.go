package qasm

import "github.com/alecthomas/participle/v2/lexer"

// Program is a parsed OpenQASM 2.0 source file.
// Example: OPENQASM 2.0; include "qelib1.inc"; qreg q[3]; ccx q[0],q[1],q[2];
type Program struct {
	Pos        lexer.Position
	Version    string       `"OPENQASM" @( Real | Int ) ";"`
	Includes   []string     `( "include" @String ";" )*`
	Statements []*Statement `@@*`
}

// Statement is one top-level instruction.
type Statement struct {
	Pos     lexer.Position
	QReg    *Register  `  "qreg" @@ ";"`
	CReg    *Register  `| "creg" @@ ";"`
	Measure *Measure   `| "measure" @@ ";"`
	Barrier []*Operand `| "barrier" @@ ( "," @@ )* ";"`
	Gate    *GateCall  `| @@ ";"`
}

// Register declares a named register.
// Example: qreg q[11];
type Register struct {
	Name string `@Ident`
	Size int    `"[" @Int "]"`
}

// Operand references a whole register or a single bit of it.
// Example: q[3] or q
type Operand struct {
	Pos   lexer.Position
	Reg   string `@Ident`
	Index *int   `( "[" @Int "]" )?`
}

// Measure copies quantum bits into classical bits.
// Example: measure q[10] -> c[0];
type Measure struct {
	Source *Operand `@@ "->"`
	Dest   *Operand `@@`
}

// GateCall applies a named gate.
// Example: cx q[0],q[1];
type GateCall struct {
	Pos    lexer.Position
	Name   string     `@Ident`
	Params []string   `( "(" ( @( Real | Int ) ( "," @( Real | Int ) )* )? ")" )?`
	Args   []*Operand `@@ ( "," @@ )*`
}
