package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"unicode"
)

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenLeftParen
	tokenRightParen
	tokenSymbol
	tokenString
)

type token struct {
	typ   tokenType
	value string
	line  int
}

// lexer tokenizes S-expressions from an io.Reader, tracking line numbers for
// error messages.
type lexer struct {
	reader *bufio.Reader
	peeked *rune
	line   int
}

func newLexer(r io.Reader) *lexer {
	return &lexer{
		reader: bufio.NewReader(r),
		line:   1,
	}
}

func (l *lexer) next() (token, error) {
	// Skip whitespace and # comments
	for {
		ch, err := l.peek()
		if err == io.EOF {
			return token{typ: tokenEOF, line: l.line}, nil
		}
		if err != nil {
			return token{}, err
		}

		if unicode.IsSpace(ch) {
			l.read()
			continue
		}
		if ch == '#' {
			for {
				c, err := l.read()
				if err != nil || c == '\n' {
					break
				}
			}
			continue
		}
		break
	}

	ch, _ := l.peek()
	switch ch {
	case '(':
		l.read()
		return token{typ: tokenLeftParen, value: "(", line: l.line}, nil
	case ')':
		l.read()
		return token{typ: tokenRightParen, value: ")", line: l.line}, nil
	case '"':
		return l.readString()
	default:
		return l.readSymbol()
	}
}

func (l *lexer) peek() (rune, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	ch, _, err := l.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	l.peeked = &ch
	return ch, nil
}

func (l *lexer) read() (rune, error) {
	var ch rune
	if l.peeked != nil {
		ch = *l.peeked
		l.peeked = nil
	} else {
		var err error
		ch, _, err = l.reader.ReadRune()
		if err != nil {
			return 0, err
		}
	}
	if ch == '\n' {
		l.line++
	}
	return ch, nil
}

func (l *lexer) readString() (token, error) {
	start := l.line
	l.read() // opening quote

	// Collect the raw literal and let strconv decode Go escapes, the same
	// form Write produces.
	raw := []rune{'"'}
	for {
		ch, err := l.read()
		if err == io.EOF {
			return token{}, fmt.Errorf("line %d: unexpected EOF in string", start)
		}
		if err != nil {
			return token{}, err
		}
		if ch == '"' {
			break
		}
		if ch == '\\' {
			next, err := l.read()
			if err != nil {
				return token{}, fmt.Errorf("line %d: unexpected EOF after backslash", start)
			}
			raw = append(raw, ch, next)
			continue
		}
		if ch == '\n' {
			raw = append(raw, '\\', 'n')
			continue
		}
		raw = append(raw, ch)
	}
	raw = append(raw, '"')

	value, err := strconv.Unquote(string(raw))
	if err != nil {
		return token{}, fmt.Errorf("line %d: invalid string %s", start, string(raw))
	}
	return token{typ: tokenString, value: value, line: start}, nil
}

func (l *lexer) readSymbol() (token, error) {
	var result []rune
	for {
		ch, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return token{}, err
		}
		if unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == '"' || ch == '#' {
			break
		}
		l.read()
		result = append(result, ch)
	}
	if len(result) == 0 {
		return token{}, fmt.Errorf("line %d: empty symbol", l.line)
	}
	return token{typ: tokenSymbol, value: string(result), line: l.line}, nil
}
