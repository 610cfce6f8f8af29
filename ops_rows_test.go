package determin

import "testing"

func seqDF(t *testing.T, n int) *DataFrame {
	t.Helper()
	vals := make([]Value, n)
	for i := range vals {
		vals[i] = Int(int64(i))
	}
	return dfFrom(t, []string{"i"}, map[string][]Value{"i": vals})
}

func TestOpSlice(t *testing.T) {
	df := seqDF(t, 10)
	out := runOp(t, opSlice, df, `{"op":"slice","offset":2,"length":3}`)
	col, _ := out.Column("i")
	want := []int64{2, 3, 4}
	for i, w := range want {
		if v, _ := col[i].AsInt(); v != w {
			t.Errorf("index %d: got %v, want %d", i, col[i], w)
		}
	}
}

func TestOpSliceNegativeOffsetRejected(t *testing.T) {
	df := seqDF(t, 3)
	p := mustProgram(t, `{"steps":[{"op":"slice","offset":-1}]}`)
	_, err := opSlice(NewExecutionContext(), df, 0, p.Steps[0])
	if err == nil {
		t.Fatal("expected error for negative offset")
	}
}

func TestOpHeadTail(t *testing.T) {
	df := seqDF(t, 5)
	head := runOp(t, opHead, df, `{"op":"head","n":2}`)
	if head.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", head.Height())
	}
	col, _ := head.Column("i")
	if v, _ := col[0].AsInt(); v != 0 {
		t.Errorf("head[0] = %v, want 0", col[0])
	}

	tail := runOp(t, opTail, df, `{"op":"tail","n":2}`)
	col2, _ := tail.Column("i")
	if v, _ := col2[0].AsInt(); v != 3 {
		t.Errorf("tail[0] = %v, want 3", col2[0])
	}
}

func TestOpTakeEvery(t *testing.T) {
	df := seqDF(t, 6)
	out := runOp(t, opTakeEvery, df, `{"op":"take_every","n":2,"offset":0}`)
	col, _ := out.Column("i")
	want := []int64{0, 2, 4}
	if len(col) != len(want) {
		t.Fatalf("got %d rows, want %d", len(col), len(want))
	}
	for i, w := range want {
		if v, _ := col[i].AsInt(); v != w {
			t.Errorf("index %d: got %v, want %d", i, col[i], w)
		}
	}
}

func TestOpAddRowNumber(t *testing.T) {
	df := seqDF(t, 3)
	out := runOp(t, opAddRowNumber, df, `{"op":"add_row_number","as":"rn","start":1}`)
	col, _ := out.Column("rn")
	want := []int64{1, 2, 3}
	for i, w := range want {
		if v, _ := col[i].AsInt(); v != w {
			t.Errorf("index %d: got %v, want %d", i, col[i], w)
		}
	}
}

func TestOpSampleWithSeedIsDeterministic(t *testing.T) {
	df := seqDF(t, 20)
	step := `{"op":"sample","n":5,"seed":42}`
	out1 := runOp(t, opSample, df, step)
	out2 := runOp(t, opSample, df, step)
	col1, _ := out1.Column("i")
	col2, _ := out2.Column("i")
	if len(col1) != len(col2) {
		t.Fatalf("different lengths: %d vs %d", len(col1), len(col2))
	}
	for i := range col1 {
		if !col1[i].Equal(col2[i]) {
			t.Errorf("seeded sample not reproducible at %d: %v vs %v", i, col1[i], col2[i])
		}
	}
}
