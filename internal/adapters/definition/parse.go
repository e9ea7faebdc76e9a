package definition

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/corey/mamdani/internal/domain/fuzzy"
)

// Rule text grammar:
//
//	expr    = and { ("OR" | "|") and }
//	and     = unary { ("AND" | "&") unary }
//	unary   = ("NOT" | "~") unary | "(" expr ")" | ref
//	ref     = ident "." ident | ident "IS" ident
//
// Keywords are case-insensitive. AND binds tighter than OR.

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokDot
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
	tokIs
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(c):
			i += size
		case c == '.':
			toks = append(toks, token{tokDot, ".", i})
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '&':
			toks = append(toks, token{tokAnd, "&", i})
			i++
		case c == '|':
			toks = append(toks, token{tokOr, "|", i})
			i++
		case c == '~':
			toks = append(toks, token{tokNot, "~", i})
			i++
		case isIdentByte(src[i]):
			start := i
			for i < len(src) && isIdentByte(src[i]) {
				i++
			}
			word := src[start:i]
			kind := tokIdent
			switch strings.ToUpper(word) {
			case "AND":
				kind = tokAnd
			case "OR":
				kind = tokOr
			case "NOT":
				kind = tokNot
			case "IS":
				kind = tokIs
			}
			toks = append(toks, token{kind, word, start})
		default:
			return nil, fmt.Errorf("unexpected %q at %d", c, i)
		}
	}
	return append(toks, token{tokEOF, "", len(src)}), nil
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("expected %s at %d, got %s", what, t.pos, describe(t))
	}
	return t, nil
}

func describe(t token) string {
	if t.kind == tokEOF {
		return "end of rule"
	}
	return fmt.Sprintf("%q", t.text)
}

// ParseExpr parses an antecedent such as
// "tempo_espera.pequeno AND (numero_funcionarios is grande OR NOT fator_utilizacao.alto)".
func ParseExpr(src string) (fuzzy.Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s at %d", describe(t), t.pos)
	}
	return e, nil
}

// ParseConsequent parses "variable.label" or "variable is label".
func ParseConsequent(src string) (fuzzy.Consequent, error) {
	toks, err := lex(src)
	if err != nil {
		return fuzzy.Consequent{}, err
	}
	p := &parser{toks: toks}
	ref, err := p.ref()
	if err != nil {
		return fuzzy.Consequent{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return fuzzy.Consequent{}, fmt.Errorf("unexpected %s at %d", describe(t), t.pos)
	}
	return fuzzy.Consequent{Variable: ref.Variable, Label: ref.Label}, nil
}

func (p *parser) or() (fuzzy.Expr, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = fuzzy.Or(left, right)
	}
	return left, nil
}

func (p *parser) and() (fuzzy.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = fuzzy.And(left, right)
	}
	return left, nil
}

func (p *parser) unary() (fuzzy.Expr, error) {
	switch p.peek().kind {
	case tokNot:
		p.next()
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return fuzzy.Not(e), nil
	case tokLParen:
		p.next()
		e, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return e, nil
	}
	return p.ref()
}

func (p *parser) ref() (fuzzy.TermRef, error) {
	v, err := p.expect(tokIdent, "variable name")
	if err != nil {
		return fuzzy.TermRef{}, err
	}
	if t := p.next(); t.kind != tokDot && t.kind != tokIs {
		return fuzzy.TermRef{}, fmt.Errorf(`expected "." or "is" after %q at %d, got %s`, v.text, t.pos, describe(t))
	}
	l, err := p.expect(tokIdent, "term label")
	if err != nil {
		return fuzzy.TermRef{}, err
	}
	return fuzzy.Ref(v.text, l.text), nil
}
