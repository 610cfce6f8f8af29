package determin

import "testing"

func dfFrom(t *testing.T, cols []string, data map[string][]Value) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(cols, data)
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}
	return df
}

func runOp(t *testing.T, fn opFunc, df *DataFrame, stepJSON string) *DataFrame {
	t.Helper()
	p := mustProgram(t, `{"steps":[`+stepJSON+`]}`)
	out, err := fn(NewExecutionContext(), df, 0, p.Steps[0])
	if err != nil {
		t.Fatalf("op failed: %v", err)
	}
	return out
}

func TestOpSelectMissingColumn(t *testing.T) {
	df := dfFrom(t, []string{"a"}, map[string][]Value{"a": {Int(1)}})
	p := mustProgram(t, `{"steps":[{"op":"select","columns":["missing"]}]}`)
	_, err := opSelect(NewExecutionContext(), df, 0, p.Steps[0])
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestOpRenameDuplicateRejected(t *testing.T) {
	df := dfFrom(t, []string{"a", "b"}, map[string][]Value{"a": {Int(1)}, "b": {Int(2)}})
	p := mustProgram(t, `{"steps":[{"op":"rename","mapping":{"a":"b"}}]}`)
	_, err := opRename(NewExecutionContext(), df, 0, p.Steps[0])
	if err == nil {
		t.Fatal("expected duplicate-name error")
	}
}

func TestOpCastNonStrict(t *testing.T) {
	df := dfFrom(t, []string{"a"}, map[string][]Value{"a": {Str("3"), Str("bad")}})
	out := runOp(t, opCast, df, `{"op":"cast","mapping":{"a":"int"}}`)
	col, _ := out.Column("a")
	if !col[0].Equal(Int(3)) {
		t.Errorf("expected 3, got %v", col[0])
	}
	if !col[1].IsNull() {
		t.Errorf("expected null for unparseable, got %v", col[1])
	}
}

func TestOpFillNull(t *testing.T) {
	df := dfFrom(t, []string{"a"}, map[string][]Value{"a": {Null(), Int(5)}})
	out := runOp(t, opFillNull, df, `{"op":"fill_null","mapping":{"a":0}}`)
	col, _ := out.Column("a")
	if !col[0].Equal(Int(0)) || !col[1].Equal(Int(5)) {
		t.Errorf("unexpected fill_null result: %v", col)
	}
}

func TestOpCoalesceFirstNonNull(t *testing.T) {
	df := dfFrom(t, []string{"a", "b"}, map[string][]Value{
		"a": {Null(), Int(1)},
		"b": {Int(7), Int(2)},
	})
	out := runOp(t, opCoalesce, df, `{"op":"coalesce","columns":["a","b"],"as":"c"}`)
	col, _ := out.Column("c")
	if !col[0].Equal(Int(7)) || !col[1].Equal(Int(1)) {
		t.Errorf("unexpected coalesce result: %v", col)
	}
}

func TestOpDropNaAnyColumn(t *testing.T) {
	df := dfFrom(t, []string{"a", "b"}, map[string][]Value{
		"a": {Int(1), Null(), Int(3)},
		"b": {Int(1), Int(2), Null()},
	})
	out := runOp(t, opDropNa, df, `{"op":"drop_na"}`)
	if out.Height() != 1 {
		t.Fatalf("expected 1 row surviving, got %d", out.Height())
	}
}

func TestOpDistinctKeepsFirstOccurrence(t *testing.T) {
	df := dfFrom(t, []string{"a"}, map[string][]Value{"a": {Int(1), Int(1), Int(2)}})
	out := runOp(t, opDistinct, df, `{"op":"distinct"}`)
	if out.Height() != 2 {
		t.Fatalf("expected 2 distinct rows, got %d", out.Height())
	}
}

func TestOpSelectIsIdempotent(t *testing.T) {
	df := dfFrom(t, []string{"a", "b"}, map[string][]Value{"a": {Int(1)}, "b": {Int(2)}})
	once := runOp(t, opSelect, df, `{"op":"select","columns":["a"]}`)
	twice := runOp(t, opSelect, once, `{"op":"select","columns":["a"]}`)
	if len(twice.Columns()) != 1 || twice.Columns()[0] != "a" {
		t.Errorf("select should be idempotent, got %v", twice.Columns())
	}
}
