package determin

import (
	"fmt"
	"time"
)

// evalEnv is the per-row or per-iteration environment an expression
// evaluates against: column names (or scan state vars) to Values, plus
// row_index where applicable. Column names shadow built-in function
// names (spec §4.2: "binding order: built-ins, then environment
// values overwrite").
type evalEnv map[string]Value

type evalCtx struct {
	env      evalEnv
	now      func() time.Time // today()/now() source, from ExecutionContext's clock
	maxDepth int
	depth    int
}

// evalExpression parses and evaluates src against env, honoring the
// execution context's recursion-depth guard (spec §5).
func evalExpression(ec *ExecutionContext, env evalEnv, src string) (Value, error) {
	tree, err := parseExpr(src)
	if err != nil {
		return Null(), err
	}
	ctx := &evalCtx{env: env, now: func() time.Time { return ec.now().UTC() }, maxDepth: ec.exprDepthLimit}
	return ctx.eval(tree)
}

func (c *evalCtx) eval(e expr) (Value, error) {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > c.maxDepth {
		return Null(), fmt.Errorf("%w: expression recursion exceeds depth %d", ErrDisallowed, c.maxDepth)
	}

	switch n := e.(type) {
	case litExpr:
		return n.v, nil

	case identExpr:
		if v, ok := c.env[n.name]; ok {
			return v, nil
		}
		return Null(), fmt.Errorf("%w: %s", ErrUnknownName, n.name)

	case unaryExpr:
		return c.evalUnary(n)

	case binaryExpr:
		return c.evalBinary(n)

	case chainExpr:
		return c.evalChain(n)

	case boolExpr:
		return c.evalBool(n)

	case ternaryExpr:
		cv, err := c.eval(n.cond)
		if err != nil {
			return Null(), err
		}
		if cv.Truthy() {
			return c.eval(n.then)
		}
		return c.eval(n.els)

	case callExpr:
		return c.evalCall(n)

	default:
		return Null(), fmt.Errorf("%w: unrecognized expression node", ErrDisallowed)
	}
}

func (c *evalCtx) evalUnary(n unaryExpr) (Value, error) {
	x, err := c.eval(n.x)
	if err != nil {
		return Null(), err
	}
	switch n.op {
	case "not":
		return Bool(!x.Truthy()), nil
	case "+":
		if !x.IsNumeric() {
			return Null(), fmt.Errorf("%w: unary + requires numeric", ErrNullArith)
		}
		return x, nil
	case "-":
		if x.IsNull() {
			return Null(), fmt.Errorf("%w: unary - on null", ErrNullArith)
		}
		if i, ok := x.AsInt(); ok {
			return Int(-i), nil
		}
		if f, ok := x.AsFloat(); ok {
			return Float(-f), nil
		}
		return Null(), fmt.Errorf("%w: unary - requires numeric", ErrNullArith)
	default:
		return Null(), fmt.Errorf("%w: unknown unary operator %s", ErrDisallowed, n.op)
	}
}

func (c *evalCtx) evalBinary(n binaryExpr) (Value, error) {
	l, err := c.eval(n.l)
	if err != nil {
		return Null(), err
	}
	r, err := c.eval(n.r)
	if err != nil {
		return Null(), err
	}
	if n.op == "+" {
		if ls, ok := l.AsString(); ok {
			if rs, ok := r.AsString(); ok {
				return Str(ls + rs), nil
			}
		}
	}
	if l.IsNull() || r.IsNull() {
		return Null(), fmt.Errorf("%w: %s on null", ErrNullArith, n.op)
	}
	if !l.IsNumeric() || !r.IsNumeric() {
		return Null(), fmt.Errorf("%w: %s requires numeric operands", ErrCallFailed, n.op)
	}
	li, lIsInt := l.AsInt()
	ri, rIsInt := r.AsInt()
	if lIsInt && rIsInt && n.op != "/" {
		switch n.op {
		case "+":
			return Int(li + ri), nil
		case "-":
			return Int(li - ri), nil
		case "*":
			return Int(li * ri), nil
		case "%":
			if ri == 0 {
				return Null(), fmt.Errorf("%w: modulo by zero", ErrCallFailed)
			}
			return Int(li % ri), nil
		}
	}
	lf, _ := l.AsFloat()
	rf, _ := r.AsFloat()
	switch n.op {
	case "+":
		return Float(lf + rf), nil
	case "-":
		return Float(lf - rf), nil
	case "*":
		return Float(lf * rf), nil
	case "/":
		if rf == 0 {
			return Null(), fmt.Errorf("%w: division by zero", ErrCallFailed)
		}
		return Float(lf / rf), nil
	case "%":
		if rf == 0 {
			return Null(), fmt.Errorf("%w: modulo by zero", ErrCallFailed)
		}
		return Float(fmod(lf, rf)), nil
	default:
		return Null(), fmt.Errorf("%w: unknown binary operator %s", ErrDisallowed, n.op)
	}
}

func fmod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	return m
}

// evalChain implements spec §4.2's chained comparison semantics: a
// OP1 b OP2 c ... evaluates left-associatively, each link
// short-circuiting to false at the first failing link, otherwise
// true.
func (c *evalCtx) evalChain(n chainExpr) (Value, error) {
	left, err := c.eval(n.items[0])
	if err != nil {
		return Null(), err
	}
	for i, op := range n.ops {
		right, err := c.eval(n.items[i+1])
		if err != nil {
			return Null(), err
		}
		ok, err := compareOp(op, left, right)
		if err != nil {
			return Null(), err
		}
		if !ok {
			return Bool(false), nil
		}
		left = right
	}
	return Bool(true), nil
}

func compareOp(op string, l, r Value) (bool, error) {
	switch op {
	case "is":
		return l.IsNull() && r.IsNull() || (!l.IsNull() && !r.IsNull() && l.Equal(r)), nil
	case "is-not":
		same := l.IsNull() && r.IsNull() || (!l.IsNull() && !r.IsNull() && l.Equal(r))
		return !same, nil
	case "==":
		if l.IsNull() || r.IsNull() {
			return l.IsNull() && r.IsNull(), nil
		}
		return l.Equal(r), nil
	case "!=":
		if l.IsNull() || r.IsNull() {
			return !(l.IsNull() && r.IsNull()), nil
		}
		return !l.Equal(r), nil
	case "<", "<=", ">", ">=":
		if l.IsNull() || r.IsNull() {
			return false, nil
		}
		cmp, ok := l.Compare(r)
		if !ok {
			return false, fmt.Errorf("%w: cannot compare %s and %s", ErrTypeMismatch, l.Kind(), r.Kind())
		}
		switch op {
		case "<":
			return cmp < 0, nil
		case "<=":
			return cmp <= 0, nil
		case ">":
			return cmp > 0, nil
		case ">=":
			return cmp >= 0, nil
		}
	case "in", "not-in":
		list, ok := r.AsList()
		if !ok {
			return false, fmt.Errorf("%w: right side of 'in' must be a list", ErrTypeMismatch)
		}
		found := false
		for _, item := range list {
			if !l.IsNull() && !item.IsNull() && l.Equal(item) {
				found = true
				break
			}
		}
		if op == "in" {
			return found, nil
		}
		return !found, nil
	}
	return false, fmt.Errorf("%w: unknown comparison operator %s", ErrDisallowed, op)
}

// evalBool evaluates an and/or chain and always returns a plain Bool:
// unlike Python's native and/or, the deciding operand is coerced to
// bool rather than returned as-is.
func (c *evalCtx) evalBool(n boolExpr) (Value, error) {
	var last bool
	for i, it := range n.items {
		v, err := c.eval(it)
		if err != nil {
			return Null(), err
		}
		last = v.Truthy()
		if n.op == "or" && last {
			return Bool(true), nil
		}
		if n.op == "and" && !last {
			return Bool(false), nil
		}
		if i == len(n.items)-1 {
			return Bool(last), nil
		}
	}
	return Bool(last), nil
}
