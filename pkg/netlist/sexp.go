package netlist

import (
	"strconv"
	"strings"
)

// Node is an S-expression node: an atom or a list.
type Node interface {
	IsAtom() bool
	String() string
}

// Atom is a bare symbol or number.
type Atom struct {
	Value  string
	Quoted bool
	Line   int
}

func (a Atom) IsAtom() bool { return true }

func (a Atom) String() string {
	if a.Quoted {
		return strconv.Quote(a.Value)
	}
	return a.Value
}

// Int interprets the atom as a decimal integer.
func (a Atom) Int() (int, error) {
	return strconv.Atoi(a.Value)
}

// List is a parenthesized sequence of nodes.
type List struct {
	Items []Node
	Line  int
}

func (l *List) IsAtom() bool { return false }

func (l *List) String() string {
	parts := make([]string, len(l.Items))
	for i, item := range l.Items {
		parts[i] = item.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Head returns the leading symbol of the list, or "" when the list is empty
// or starts with a nested list.
func (l *List) Head() string {
	if len(l.Items) == 0 {
		return ""
	}
	if a, ok := l.Items[0].(Atom); ok && !a.Quoted {
		return a.Value
	}
	return ""
}

// Args returns every item after the head.
func (l *List) Args() []Node {
	if len(l.Items) <= 1 {
		return nil
	}
	return l.Items[1:]
}
