package determin

import "testing"

func TestOpExplodeParallelColumns(t *testing.T) {
	df := dfFrom(t, []string{"id", "tags"}, map[string][]Value{
		"id":   {Str("a"), Str("b")},
		"tags": {List([]Value{Str("x"), Str("y")}), List([]Value{Str("z")})},
	})
	out := runOp(t, opExplode, df, `{"op":"explode","columns":["tags"]}`)
	if out.Height() != 3 {
		t.Fatalf("expected 3 exploded rows, got %d", out.Height())
	}
	idCol, _ := out.Column("id")
	tagsCol, _ := out.Column("tags")
	if id, _ := idCol[0].AsString(); id != "a" {
		t.Errorf("row 0 id = %v", idCol[0])
	}
	if tag, _ := tagsCol[2].AsString(); tag != "z" {
		t.Errorf("row 2 tag = %v", tagsCol[2])
	}
}

func TestOpExplodeMismatchedLengthsRejected(t *testing.T) {
	df := dfFrom(t, []string{"a", "b"}, map[string][]Value{
		"a": {List([]Value{Int(1), Int(2)})},
		"b": {List([]Value{Int(1)})},
	})
	p := mustProgram(t, `{"steps":[{"op":"explode","columns":["a","b"]}]}`)
	_, err := opExplode(NewExecutionContext(), df, 0, p.Steps[0])
	if err == nil {
		t.Fatalf("expected error for differing exploded lengths")
	}
}

func TestOpJSONExtract(t *testing.T) {
	df := dfFrom(t, []string{"a", "b"}, map[string][]Value{
		"a": {Int(1), Int(2)},
		"b": {Int(10), Int(20)},
	})
	out := runOp(t, opJSONExtract, df, `{"op":"json_extract","expr":"a","as":"out"}`)
	col, _ := out.Column("out")
	if v, _ := col[0].AsInt(); v != 1 {
		t.Errorf("row 0 = %v, want 1", col[0])
	}
	if v, _ := col[1].AsInt(); v != 2 {
		t.Errorf("row 1 = %v, want 2", col[1])
	}
}
