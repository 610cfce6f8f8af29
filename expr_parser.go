package determin

import "fmt"

// parser is a hand-written recursive-descent parser over the token
// stream, producing a typed expr tree. Per spec §9's design note, this
// replaces an AST-walk-with-whitelists approach: disallowed constructs
// (attribute access, subscript, collection literals, comprehensions,
// lambdas, assignment) have no production in this grammar at all, so
// they surface as ordinary "unexpected token" syntax errors rather
// than a runtime disallow-list check.
type parser struct {
	toks []token
	pos  int
}

// parseExpr parses and returns the full expression tree for src, or an
// ExprError{SyntaxError|Disallowed}.
func parseExpr(src string) (expr, error) {
	toks, err := lexExpr(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected trailing token %q", ErrSyntax, p.cur().text)
	}
	return e, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance()    { p.pos++ }

func (p *parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.kind == tokKeyword && t.text == kw
}

func (p *parser) isOp(op string) bool {
	t := p.cur()
	return t.kind == tokOp && t.text == op
}

// parseTernary implements `A if C else B`, Python-style: the "then"
// value appears before the condition.
func (p *parser) parseTernary() (expr, error) {
	then, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("if") {
		return then, nil
	}
	p.advance()
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("else") {
		return nil, fmt.Errorf("%w: expected 'else' in ternary", ErrSyntax)
	}
	p.advance()
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ternaryExpr{then: then, cond: cond, els: els}, nil
}

func (p *parser) parseOr() (expr, error) {
	items := []expr{}
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	items = append(items, first)
	for p.isKeyword("or") {
		p.advance()
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return boolExpr{op: "or", items: items}, nil
}

func (p *parser) parseAnd() (expr, error) {
	items := []expr{}
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	items = append(items, first)
	for p.isKeyword("and") {
		p.advance()
		next, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return boolExpr{op: "and", items: items}, nil
}

func (p *parser) parseNot() (expr, error) {
	if p.isKeyword("not") {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryExpr{op: "not", x: x}, nil
	}
	return p.parseComparison()
}

var cmpOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

// parseComparison builds a chainExpr for a OP b OP c ...; spec
// requires chained comparisons to be evaluated left-associatively as
// a<b && b<c.
func (p *parser) parseComparison() (expr, error) {
	first, err := p.parseArith()
	if err != nil {
		return nil, err
	}
	items := []expr{first}
	var ops []string

	for {
		op, ok, err := p.tryComparisonOp()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		next, err := p.parseArith()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
		ops = append(ops, op)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return chainExpr{items: items, ops: ops}, nil
}

func (p *parser) tryComparisonOp() (string, bool, error) {
	t := p.cur()
	if t.kind == tokOp && cmpOps[t.text] {
		p.advance()
		return t.text, true, nil
	}
	if p.isKeyword("is") {
		p.advance()
		if p.isKeyword("not") {
			p.advance()
			return "is-not", true, nil
		}
		return "is", true, nil
	}
	if p.isKeyword("in") {
		p.advance()
		return "in", true, nil
	}
	if p.isKeyword("not") {
		save := p.pos
		p.advance()
		if p.isKeyword("in") {
			p.advance()
			return "not-in", true, nil
		}
		p.pos = save
		return "", false, nil
	}
	return "", false, nil
}

func (p *parser) parseArith() (expr, error) {
	l, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.cur().text
		p.advance()
		r, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseTerm() (expr, error) {
	l, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") || p.isOp("%") {
		op := p.cur().text
		p.advance()
		r, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		l = binaryExpr{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseFactor() (expr, error) {
	if p.isOp("+") || p.isOp("-") {
		op := p.cur().text
		p.advance()
		x, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return unaryExpr{op: op, x: x}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (expr, error) {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.advance()
		return litExpr{v: Int(t.ival)}, nil
	case tokFloat:
		p.advance()
		return litExpr{v: Float(t.fval)}, nil
	case tokString:
		p.advance()
		return litExpr{v: Str(t.text)}, nil
	case tokKeyword:
		switch t.text {
		case "true":
			p.advance()
			return litExpr{v: Bool(true)}, nil
		case "false":
			p.advance()
			return litExpr{v: Bool(false)}, nil
		case "null":
			p.advance()
			return litExpr{v: Null()}, nil
		default:
			return nil, fmt.Errorf("%w: unexpected keyword %q", ErrDisallowed, t.text)
		}
	case tokIdent:
		name := t.text
		p.advance()
		if p.cur().kind == tokLParen {
			return p.parseCall(name)
		}
		return identExpr{name: name}, nil
	case tokLParen:
		p.advance()
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ')'", ErrSyntax)
		}
		p.advance()
		return e, nil
	default:
		return nil, fmt.Errorf("%w: unexpected token at position %d", ErrSyntax, t.pos)
	}
}

// parseCall parses positional-only call arguments; the grammar has no
// production for keyword arguments at all, so `f(x=1)` fails to parse
// as a call argument list (it surfaces as a syntax error at `=`,
// which is itself not a lexable operator).
func (p *parser) parseCall(name string) (expr, error) {
	p.advance() // consume '('
	var args []expr
	if p.cur().kind != tokRParen {
		for {
			a, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.cur().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().kind != tokRParen {
		return nil, fmt.Errorf("%w: expected ')' closing call to %s", ErrSyntax, name)
	}
	p.advance()
	return callExpr{name: name, args: args}, nil
}
