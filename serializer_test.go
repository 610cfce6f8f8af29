package determin

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerializeProducesRowOrientedOutput(t *testing.T) {
	df := dfFrom(t, []string{"id", "name", "score"}, map[string][]Value{
		"id":    {Int(1), Int(2)},
		"name":  {Str("alice"), Str("bob")},
		"score": {Float(9.5), Null()},
	})
	got := Serialize(df, true)

	want := []map[string]any{
		{"id": int64(1), "name": "alice", "score": 9.5},
		{"id": int64(2), "name": "bob", "score": nil},
	}
	if diff := cmp.Diff(want, got.Output); diff != "" {
		t.Errorf("Serialize() output mismatch (-want +got):\n%s", diff)
	}

	wantCols := []string{"id", "name", "score"}
	if diff := cmp.Diff(wantCols, got.Meta.Columns); diff != "" {
		t.Errorf("Serialize() columns mismatch (-want +got):\n%s", diff)
	}
	if got.Meta.Rows != 2 {
		t.Errorf("Meta.Rows = %d, want 2", got.Meta.Rows)
	}
	if !got.Meta.Deterministic {
		t.Errorf("Meta.Deterministic = false, want true")
	}
}

func TestSerializeEmptyDataFrame(t *testing.T) {
	got := Serialize(emptyDataFrame(), true)
	if len(got.Output) != 0 {
		t.Errorf("expected empty output, got %v", got.Output)
	}
	if got.Meta.Rows != 0 {
		t.Errorf("Meta.Rows = %d, want 0", got.Meta.Rows)
	}
}

func TestExecuteFlagsUnseededSampleAsNonDeterministic(t *testing.T) {
	input := &InputPayload{MediaType: "json", Data: `[{"n":1},{"n":2},{"n":3}]`}

	seeded := runProgram(t, input, `{"steps":[{"op":"sample","n":2,"seed":42}]}`)
	if !seeded.Meta.Deterministic {
		t.Errorf("seeded sample: Meta.Deterministic = false, want true")
	}

	unseeded := runProgram(t, input, `{"steps":[{"op":"sample","n":2}]}`)
	if unseeded.Meta.Deterministic {
		t.Errorf("unseeded sample: Meta.Deterministic = true, want false")
	}
}

func TestExecuteResultRoundTripsThroughSeedProgram(t *testing.T) {
	input := &InputPayload{
		MediaType: "json",
		Data:      `[{"n":1},{"n":2},{"n":3}]`,
	}
	out := runProgram(t, input, `{"steps":[
		{"op":"filter_expr","expr":"n > 1"},
		{"op":"sort_by","columns":["n"],"descending":true}
	]}`)
	want := []map[string]any{
		{"n": int64(3)},
		{"n": int64(2)},
	}
	if diff := cmp.Diff(want, out.Output); diff != "" {
		t.Errorf("Execute() output mismatch (-want +got):\n%s", diff)
	}
}
