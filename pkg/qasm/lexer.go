package qasm

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// QASMLexer tokenizes the OpenQASM 2.0 subset understood by this package.
// Keywords are matched as identifiers by the grammar.
var QASMLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments - C++ style line comments
	{Name: "Comment", Pattern: `//[^\n]*`},

	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	{Name: "String", Pattern: `"[^"]*"`},

	// Numbers
	{Name: "Real", Pattern: `[0-9]+\.[0-9]*([eE][-+]?[0-9]+)?`},
	{Name: "Int", Pattern: `[0-9]+`},

	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},

	// Operators and punctuation
	{Name: "Arrow", Pattern: `->`},
	{Name: "Punct", Pattern: `[;,\[\]()]`},
})
