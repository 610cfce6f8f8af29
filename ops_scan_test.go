package determin

import "testing"

func TestOpScanZeroStepsProducesEmptyOutput(t *testing.T) {
	df := emptyDataFrame()
	out := runOp(t, opScan, df, `{"op":"scan","init":{"a":0},"steps":0,"update":{"a":"a+1"},"emit":"a"}`)
	if out.Height() != 0 {
		t.Fatalf("expected 0 rows, got %d", out.Height())
	}
}

func TestOpScanSimultaneousUpdateSemantics(t *testing.T) {
	// swap(a,b) via simultaneous update must actually swap, not cascade.
	df := emptyDataFrame()
	out := runOp(t, opScan, df, `{"op":"scan","init":{"a":1,"b":2},"steps":3,"update":{"a":"b","b":"a"},"emit":"a","as":"v"}`)
	col, _ := out.Column("v")
	want := []int64{1, 2, 1}
	for i, w := range want {
		if v, _ := col[i].AsInt(); v != w {
			t.Errorf("row %d: got %v, want %d", i, col[i], w)
		}
	}
}

func TestOpScanStepsFromRow(t *testing.T) {
	df := dfFrom(t, []string{"n"}, map[string][]Value{"n": {Int(3)}})
	out := runOp(t, opScan, df, `{"op":"scan","init":{"a":0},"steps_from_row":{"column":"n","row":0},"update":{"a":"a+1"},"emit":"a"}`)
	if out.Height() != 3 {
		t.Fatalf("expected 3 rows from steps_from_row, got %d", out.Height())
	}
}

func TestOpScanOutOfRangeStepsRejected(t *testing.T) {
	df := emptyDataFrame()
	p := mustProgram(t, `{"steps":[{"op":"scan","init":{"a":0},"steps":999999999,"update":{"a":"a+1"},"emit":"a"}]}`)
	_, err := opScan(NewExecutionContext(), df, 0, p.Steps[0])
	if err == nil {
		t.Fatalf("expected OutOfRange error")
	}
}
