package formula

import (
	"fmt"
	"math"
	"strconv"
)

// tokenType identifies a lexical token of the arithmetic sub-language.
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenNumber
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPower // **
	tokenLParen
	tokenRParen
)

type token struct {
	typ   tokenType
	value float64
	pos   int
}

// lexExpr tokenizes a pure arithmetic expression. Anything outside numbers,
// `+ - * / ( ) **` and whitespace is a lex error.
func lexExpr(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '+':
			tokens = append(tokens, token{typ: tokenPlus, pos: i})
			i++
		case c == '-':
			tokens = append(tokens, token{typ: tokenMinus, pos: i})
			i++
		case c == '*':
			if i+1 < len(input) && input[i+1] == '*' {
				tokens = append(tokens, token{typ: tokenPower, pos: i})
				i += 2
			} else {
				tokens = append(tokens, token{typ: tokenStar, pos: i})
				i++
			}
		case c == '/':
			tokens = append(tokens, token{typ: tokenSlash, pos: i})
			i++
		case c == '(':
			tokens = append(tokens, token{typ: tokenLParen, pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{typ: tokenRParen, pos: i})
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			for i < len(input) && (input[i] >= '0' && input[i] <= '9' || input[i] == '.') {
				i++
			}
			v, err := strconv.ParseFloat(input[start:i], 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q at %d", input[start:i], start)
			}
			tokens = append(tokens, token{typ: tokenNumber, value: v, pos: start})
		default:
			return nil, fmt.Errorf("unexpected character %q at %d", c, i)
		}
	}
	tokens = append(tokens, token{typ: tokenEOF, pos: len(input)})
	return tokens, nil
}

// exprParser is a recursive-descent evaluator over the token stream.
// Grammar, loosest binding first:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = [ "-" | "+" ] power
//	power  = primary [ "**" unary ]
//	primary = number | "(" expr ")"
type exprParser struct {
	tokens []token
	pos    int
}

// evalExpr evaluates a fully numeric arithmetic expression.
func evalExpr(input string) (float64, error) {
	tokens, err := lexExpr(input)
	if err != nil {
		return 0, err
	}
	p := &exprParser{tokens: tokens}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.current().typ != tokenEOF {
		return 0, fmt.Errorf("trailing input at %d", p.current().pos)
	}
	return v, nil
}

func (p *exprParser) current() token { return p.tokens[p.pos] }

func (p *exprParser) advance() token {
	t := p.tokens[p.pos]
	if t.typ != tokenEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.current().typ {
		case tokenPlus:
			p.advance()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case tokenMinus:
			p.advance()
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.current().typ {
		case tokenStar:
			p.advance()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case tokenSlash:
			p.advance()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	switch p.current().typ {
	case tokenMinus:
		p.advance()
		v, err := p.parseUnary()
		return -v, err
	case tokenPlus:
		p.advance()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.current().typ == tokenPower {
		p.advance()
		// Right-associative: 2**3**2 = 2**(3**2).
		exp, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *exprParser) parsePrimary() (float64, error) {
	t := p.advance()
	switch t.typ {
	case tokenNumber:
		return t.value, nil
	case tokenLParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if closing := p.advance(); closing.typ != tokenRParen {
			return 0, fmt.Errorf("missing ) at %d", closing.pos)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected token at %d", t.pos)
	}
}
