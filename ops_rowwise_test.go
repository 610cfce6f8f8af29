package determin

import "testing"

func TestOpFilterExprKeepsTruthyRows(t *testing.T) {
	df := dfFrom(t, []string{"n"}, map[string][]Value{"n": {Int(1), Int(0), Int(5)}})
	out := runOp(t, opFilterExpr, df, `{"op":"filter_expr","expr":"n > 0"}`)
	if out.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.Height())
	}
}

func TestOpComputeExprRowIndexAvailable(t *testing.T) {
	df := dfFrom(t, []string{"x"}, map[string][]Value{"x": {Int(10), Int(20)}})
	out := runOp(t, opComputeExpr, df, `{"op":"compute_expr","expr":"x + row_index","as":"y"}`)
	col, _ := out.Column("y")
	if v, _ := col[0].AsInt(); v != 10 {
		t.Errorf("row 0: got %v, want 10", col[0])
	}
	if v, _ := col[1].AsInt(); v != 21 {
		t.Errorf("row 1: got %v, want 21", col[1])
	}
}

func TestOpFilterExprUnknownColumnErrors(t *testing.T) {
	df := dfFrom(t, []string{"x"}, map[string][]Value{"x": {Int(1)}})
	p := mustProgram(t, `{"steps":[{"op":"filter_expr","expr":"missing_col > 0"}]}`)
	_, err := opFilterExpr(NewExecutionContext(), df, 0, p.Steps[0])
	if err == nil {
		t.Fatalf("expected ExprError for unknown identifier")
	}
}
