package determin

import (
	"testing"
	"time"
)

func evalStr(t *testing.T, env evalEnv, src string) Value {
	t.Helper()
	ec := NewExecutionContext(WithClock(func() time.Time {
		return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	}))
	v, err := evalExpression(ec, env, src)
	if err != nil {
		t.Fatalf("eval(%q) failed: %v", src, err)
	}
	return v
}

func TestEvalArithmetic(t *testing.T) {
	cases := []struct {
		src  string
		want Value
	}{
		{"1 + 2", Int(3)},
		{"1 + 2.0", Float(3)},
		{"7 / 2", Float(3.5)},
		{"7 % 2", Int(1)},
		{"-3 + 1", Int(-2)},
		{"2 * (3 + 4)", Int(14)},
		{"'a' + 'b'", Str("ab")},
	}
	for _, c := range cases {
		got := evalStr(t, evalEnv{}, c.src)
		if !got.Equal(c.want) {
			t.Errorf("eval(%q) = %v, want %v", c.src, got, c.want)
		}
	}
}

func TestEvalChainedComparison(t *testing.T) {
	cases := []struct {
		src  string
		env  evalEnv
		want bool
	}{
		{"1 < 2 < 3", nil, true},
		{"1 < 2 < 1", nil, false},
		{"1 < 3 < 2", nil, false},
		{"x is null", evalEnv{"x": Null()}, true},
		{"x is not null", evalEnv{"x": Int(1)}, true},
		{"2 in xs", evalEnv{"xs": List([]Value{Int(1), Int(2), Int(3)})}, true},
		{"9 not in xs", evalEnv{"xs": List([]Value{Int(1), Int(2), Int(3)})}, true},
	}
	for _, c := range cases {
		env := c.env
		if env == nil {
			env = evalEnv{}
		}
		got := evalStr(t, env, c.src)
		if got.Truthy() != c.want {
			t.Errorf("eval(%q) truthy = %v, want %v", c.src, got.Truthy(), c.want)
		}
	}
}

func TestEvalNoCollectionLiteralSyntax(t *testing.T) {
	_, err := parseExpr("[1, 2, 3]")
	if err == nil {
		t.Fatalf("expected syntax error: grammar has no list-literal production")
	}
}

func TestEvalNoAttributeOrSubscriptSyntax(t *testing.T) {
	for _, src := range []string{"x.y", "x[0]", "lambda x: x", "x = 1"} {
		if _, err := parseExpr(src); err == nil {
			t.Errorf("expected syntax error for disallowed construct %q", src)
		}
	}
}

func TestEvalBoolAlwaysCoercesToBool(t *testing.T) {
	// unlike Python's native and/or, the deciding operand is coerced to
	// bool rather than returned verbatim.
	got := evalStr(t, evalEnv{}, "0 or 5")
	if !got.Equal(Bool(true)) {
		t.Errorf("0 or 5 = %v, want true", got)
	}
	got2 := evalStr(t, evalEnv{}, "3 and 0")
	if !got2.Equal(Bool(false)) {
		t.Errorf("3 and 0 = %v, want false", got2)
	}
	got3 := evalStr(t, evalEnv{}, "0 or 0")
	if !got3.Equal(Bool(false)) {
		t.Errorf("0 or 0 = %v, want false", got3)
	}
	got4 := evalStr(t, evalEnv{}, "3 and 5")
	if !got4.Equal(Bool(true)) {
		t.Errorf("3 and 5 = %v, want true", got4)
	}
}

func TestEvalTernary(t *testing.T) {
	got := evalStr(t, evalEnv{}, "1 if 2 > 1 else 0")
	if !got.Equal(Int(1)) {
		t.Errorf("ternary = %v, want 1", got)
	}
}

func TestEvalUnknownIdentifier(t *testing.T) {
	ec := NewExecutionContext()
	_, err := evalExpression(ec, evalEnv{}, "nope")
	if err == nil {
		t.Fatalf("expected ErrUnknownName")
	}
}

func TestEvalDepthLimit(t *testing.T) {
	ec := NewExecutionContext(WithExprDepthLimit(2))
	_, err := evalExpression(ec, evalEnv{}, "1 + (1 + (1 + 1))")
	if err == nil {
		t.Fatalf("expected recursion-depth error")
	}
}

func TestBuiltinsBasic(t *testing.T) {
	cases := []struct {
		src  string
		want Value
	}{
		{"len('hello')", Int(5)},
		{"upper('abc')", Str("ABC")},
		{"round(3.6)", Int(4)},
		{"abs(-5)", Int(5)},
		{"ifelse(1 > 0, 'yes', 'no')", Str("yes")},
		{"coalesce_val(null, null, 3)", Int(3)},
		{"today()", Str("2026-01-15")},
		{"year(to_date('2026-01-15'))", Int(2026)},
		{"date_add_days(to_date('2026-01-15'), 5)", Str("2026-01-20")},
	}
	for _, c := range cases {
		got := evalStr(t, evalEnv{}, c.src)
		if !got.Equal(c.want) {
			t.Errorf("eval(%q) = %v, want %v", c.src, got, c.want)
		}
	}
}

func TestBuiltinDisallowedName(t *testing.T) {
	ec := NewExecutionContext()
	_, err := evalExpression(ec, evalEnv{}, "eval('1')")
	if err == nil {
		t.Fatalf("expected ErrFunctionNotAllowed for an unregistered name")
	}
}

func TestColumnShadowsNothingSpecial(t *testing.T) {
	got := evalStr(t, evalEnv{"len": Int(99)}, "len")
	if !got.Equal(Int(99)) {
		t.Errorf("identifier lookup should read env, got %v", got)
	}
}
