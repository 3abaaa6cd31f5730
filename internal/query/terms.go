package query

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxChildren is the number of child terms kept; extras are dropped.
const MaxChildren = 5

// Term is a single search token.
type Term struct {
	Text  string `json:"text"`
	Exact bool   `json:"exact"`
}

func (t Term) String() string {
	if t.Exact {
		return `"` + t.Text + `"`
	}
	return t.Text
}

// Mode controls how child terms combine.
type Mode int

const (
	ModeAny Mode = iota
	ModeAll
)

func (m Mode) String() string {
	if m == ModeAll {
		return "ALL"
	}
	return "ANY"
}

// ParseMode accepts "any" or "all" in any case. Empty input yields ModeAny.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ANY":
		return ModeAny, nil
	case "ALL":
		return ModeAll, nil
	default:
		return ModeAny, fmt.Errorf("unknown match mode %q (want any or all)", s)
	}
}

// Query is the structured form of the user's terms. It is built once per
// search and never mutated afterwards.
type Query struct {
	Parent   *Term
	Children []Term
	Mode     Mode
	// Text is a free-text substring filter ANDed with the term logic.
	Text string
}

// IsEmpty reports whether the query filters nothing.
func (q Query) IsEmpty() bool {
	return q.Parent == nil && len(q.Children) == 0 && strings.TrimSpace(q.Text) == ""
}

// Syntax selects which exact-match markers a Parser recognizes.
type Syntax uint8

const (
	// MarkQuotes treats `"term"` as exact.
	MarkQuotes Syntax = 1 << iota
	// MarkEquals treats `=term` as exact.
	MarkEquals
)

// DefaultSyntax accepts both conventions.
const DefaultSyntax = MarkQuotes | MarkEquals

// ParseSyntax maps config names ("quotes", "equals") to a Syntax.
func ParseSyntax(names []string) (Syntax, error) {
	var s Syntax
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "quotes", "quote":
			s |= MarkQuotes
		case "equals", "equal", "=":
			s |= MarkEquals
		case "":
		default:
			return 0, fmt.Errorf("unknown exact marker %q", n)
		}
	}
	if s == 0 {
		return DefaultSyntax, nil
	}
	return s, nil
}

// Parser turns raw term strings into a Query.
type Parser struct {
	Syntax Syntax
}

// NewParser returns a parser for the given marker syntax.
func NewParser(syntax Syntax) *Parser {
	if syntax == 0 {
		syntax = DefaultSyntax
	}
	return &Parser{Syntax: syntax}
}

// ParseTerm parses one raw token. ok is false when nothing usable remains.
func (p *Parser) ParseTerm(raw string) (Term, bool) {
	s := strings.TrimSpace(raw)
	exact := false

	switch {
	case p.Syntax&MarkQuotes != 0 && len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		s = strings.TrimSpace(s[1 : len(s)-1])
		exact = true
	case p.Syntax&MarkEquals != 0 && strings.HasPrefix(s, "="):
		s = strings.TrimSpace(s[1:])
		exact = true
	}

	if s == "" {
		return Term{}, false
	}
	if !exact && strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		exact = true
	}
	return Term{Text: s, Exact: exact}, true
}

// Parse treats the first usable term as the parent and the next
// MaxChildren as children.
func (p *Parser) Parse(raw []string, mode Mode) Query {
	q := Query{Mode: mode}
	for _, r := range raw {
		t, ok := p.ParseTerm(r)
		if !ok {
			continue
		}
		if q.Parent == nil {
			q.Parent = &t
			continue
		}
		if len(q.Children) == MaxChildren {
			break
		}
		q.Children = append(q.Children, t)
	}
	return q
}

// Build handles the convention where the parent arrives separately from the
// keyword list. An empty parent leaves Query.Parent nil.
func (p *Parser) Build(parent string, children []string, mode Mode) Query {
	q := Query{Mode: mode}
	if t, ok := p.ParseTerm(parent); ok {
		q.Parent = &t
	}
	for _, c := range children {
		t, ok := p.ParseTerm(c)
		if !ok {
			continue
		}
		if len(q.Children) == MaxChildren {
			break
		}
		q.Children = append(q.Children, t)
	}
	return q
}
