package netlist

import (
	"fmt"
	"io"
)

// Parse reads every top-level S-expression from r.
func Parse(r io.Reader) ([]Node, error) {
	p := &parser{lex: newLexer(r)}
	return p.parseAll()
}

type parser struct {
	lex     *lexer
	current token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *parser) parseAll() ([]Node, error) {
	var result []Node
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.current.typ != tokenEOF {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		result = append(result, expr)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (p *parser) parseExpr() (Node, error) {
	switch p.current.typ {
	case tokenLeftParen:
		return p.parseList()
	case tokenSymbol:
		return Atom{Value: p.current.value, Line: p.current.line}, nil
	case tokenString:
		return Atom{Value: p.current.value, Quoted: true, Line: p.current.line}, nil
	case tokenRightParen:
		return nil, fmt.Errorf("line %d: unexpected ')'", p.current.line)
	default:
		return nil, fmt.Errorf("line %d: unexpected EOF", p.current.line)
	}
}

func (p *parser) parseList() (Node, error) {
	list := &List{Line: p.current.line}
	for {
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch p.current.typ {
		case tokenRightParen:
			return list, nil
		case tokenEOF:
			return nil, fmt.Errorf("line %d: unexpected EOF in list opened on line %d", p.current.line, list.Line)
		}
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, elem)
	}
}
