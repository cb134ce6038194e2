package tagfilter

import "fmt"

// Node is one node of a parsed filter expression. Evaluation maps each node
// to a question-id set against a Source.
type Node interface {
	eval(src Source) map[string]struct{}
}

type tagNode struct{ tag string }

type starNode struct{}

type notNode struct{ inner Node }

type andNode struct{ left, right Node }

type orNode struct{ left, right Node }

type parser struct {
	tokens []token
	pos    int
}

// Parse compiles a filter expression into an AST. Grammar, precedence low
// to high:
//
//	expr   := orExpr
//	orExpr := andExpr ('|' andExpr)*
//	andExpr:= notExpr ('&' notExpr)*
//	notExpr:= '!' notExpr | primary
//	primary:= '(' expr ')' | TAG | '*'
func Parse(expr string) (Node, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
	}
	return node, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.peek().kind == tokenNot {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenTag:
		return tagNode{tag: tok.text}, nil
	case tokenStar:
		return starNode{}, nil
	case tokenLParen:
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokenRParen {
			return nil, fmt.Errorf("expected ')' at position %d", closing.pos)
		}
		return node, nil
	case tokenEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	default:
		return nil, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
	}
}
