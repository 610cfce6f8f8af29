package determin

import "testing"

func TestOpRegexExtractGroupZeroEquivalence(t *testing.T) {
	df := dfFrom(t, []string{"line"}, map[string][]Value{"line": {Str("abc123"), Str("noDigits")}})

	withGroupZero := runOp(t, opRegexExtract, df, `{"op":"regex_extract","column":"line","pattern":"\\d+","group":0,"as":"out"}`)
	withExplicitGroup := runOp(t, opRegexExtract, df, `{"op":"regex_extract","column":"line","pattern":"(\\d+)","group":1,"as":"out"}`)

	c1, _ := withGroupZero.Column("out")
	c2, _ := withExplicitGroup.Column("out")
	for i := range c1 {
		if !c1[i].Equal(c2[i]) {
			t.Errorf("row %d: group=0 result %v != explicit-group-1 result %v", i, c1[i], c2[i])
		}
	}
}

func TestOpRegexReplace(t *testing.T) {
	df := dfFrom(t, []string{"s"}, map[string][]Value{"s": {Str("a1b2c3")}})
	out := runOp(t, opRegexReplace, df, `{"op":"regex_replace","column":"s","pattern":"\\d","replacement":"_"}`)
	col, _ := out.Column("s")
	if !col[0].Equal(Str("a_b_c_")) {
		t.Errorf("got %v, want a_b_c_", col[0])
	}
}

func TestOpReplaceValuesPassesThroughUnmatched(t *testing.T) {
	df := dfFrom(t, []string{"s"}, map[string][]Value{"s": {Str("a"), Str("z")}})
	out := runOp(t, opReplaceValues, df, `{"op":"replace_values","column":"s","mapping":{"a":"apple"}}`)
	col, _ := out.Column("s")
	if !col[0].Equal(Str("apple")) || !col[1].Equal(Str("z")) {
		t.Errorf("got %v", col)
	}
}

func TestOpConcatAndSplitColumnRoundTrip(t *testing.T) {
	df := dfFrom(t, []string{"a", "b"}, map[string][]Value{
		"a": {Str("x"), Str("y")},
		"b": {Str("1"), Str("2")},
	})
	joined := runOp(t, opConcatColumns, df, `{"op":"concat_columns","columns":["a","b"],"delimiter":"|","as":"combined"}`)
	split := runOp(t, opSplitColumn, joined, `{"op":"split_column","column":"combined","delimiter":"|","into":["a2","b2"],"drop_original":true}`)

	a2, _ := split.Column("a2")
	b2, _ := split.Column("b2")
	for i := range a2 {
		origA, _ := df.Column("a")
		origB, _ := df.Column("b")
		if !a2[i].Equal(origA[i]) || !b2[i].Equal(origB[i]) {
			t.Errorf("round-trip mismatch at %d: got (%v,%v) want (%v,%v)", i, a2[i], b2[i], origA[i], origB[i])
		}
	}
}

func TestOpLookupStringKeys(t *testing.T) {
	df := dfFrom(t, []string{"code"}, map[string][]Value{"code": {Str("a"), Str("b"), Str("z")}})
	out := runOp(t, opLookup, df, `{"op":"lookup","on":"code","table":[{"key":"a","value":"apple"},{"key":"b","value":"banana"}],"default":"unknown"}`)
	col, _ := out.Column("code")
	want := []string{"apple", "banana", "unknown"}
	for i, w := range want {
		if s, _ := col[i].AsString(); s != w {
			t.Errorf("row %d: got %q, want %q", i, s, w)
		}
	}
}

func TestOpLookupNumericKeys(t *testing.T) {
	df := dfFrom(t, []string{"id"}, map[string][]Value{"id": {Int(1), Int(2), Int(3)}})
	out := runOp(t, opLookup, df, `{"op":"lookup","on":"id","table":[{"key":1,"value":"one"},{"key":2,"value":"two"}]}`)
	col, _ := out.Column("id")
	if s, _ := col[0].AsString(); s != "one" {
		t.Errorf("row 0: got %v, want one", col[0])
	}
	if s, _ := col[1].AsString(); s != "two" {
		t.Errorf("row 1: got %v, want two", col[1])
	}
	// no default and no match: passes through the original value.
	if v, _ := col[2].AsInt(); v != 3 {
		t.Errorf("row 2: got %v, want passthrough 3", col[2])
	}
}

func TestOpLookupNonStringDefault(t *testing.T) {
	df := dfFrom(t, []string{"id"}, map[string][]Value{"id": {Int(99)}})
	out := runOp(t, opLookup, df, `{"op":"lookup","on":"id","table":[{"key":1,"value":"one"}],"default":0}`)
	col, _ := out.Column("id")
	if v, _ := col[0].AsInt(); v != 0 {
		t.Errorf("got %v, want default 0", col[0])
	}
}

func TestOpLookupNullDefault(t *testing.T) {
	df := dfFrom(t, []string{"id"}, map[string][]Value{"id": {Int(99)}})
	out := runOp(t, opLookup, df, `{"op":"lookup","on":"id","table":[{"key":1,"value":"one"}],"default":null}`)
	col, _ := out.Column("id")
	if !col[0].IsNull() {
		t.Errorf("got %v, want null default", col[0])
	}
}

func TestOpFilterRegex(t *testing.T) {
	df := dfFrom(t, []string{"s"}, map[string][]Value{"s": {Str("foo123"), Str("nodigits")}})
	out := runOp(t, opFilterRegex, df, `{"op":"filter_regex","column":"s","pattern":"\\d+"}`)
	if out.Height() != 1 {
		t.Fatalf("expected 1 row, got %d", out.Height())
	}
}

func TestOpFilterEqNullEqualsNull(t *testing.T) {
	df := dfFrom(t, []string{"s"}, map[string][]Value{"s": {Null(), Int(1)}})
	out := runOp(t, opFilterEq, df, `{"op":"filter_eq","column":"s","value":null}`)
	if out.Height() != 1 {
		t.Fatalf("expected 1 row matching null, got %d", out.Height())
	}
}

func TestOpSplitToRows(t *testing.T) {
	df := dfFrom(t, []string{"tags"}, map[string][]Value{"tags": {Str("a,b,c")}})
	out := runOp(t, opSplitToRows, df, `{"op":"split_to_rows","column":"tags","delimiter":","}`)
	if out.Height() != 3 {
		t.Fatalf("expected 3 rows, got %d", out.Height())
	}
	col, _ := out.Column("tags")
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if s, _ := col[i].AsString(); s != w {
			t.Errorf("row %d: got %q, want %q", i, s, w)
		}
	}
}

func TestOpNormalizeUnicode(t *testing.T) {
	// "é" (e + combining acute) should normalize to "é" (NFC).
	df := dfFrom(t, []string{"s"}, map[string][]Value{"s": {Str("é")}})
	out := runOp(t, opNormalizeUnicode, df, `{"op":"normalize_unicode","column":"s","form":"NFC"}`)
	col, _ := out.Column("s")
	got, _ := col[0].AsString()
	if got != "é" {
		t.Errorf("got %q (% x), want %q", got, []byte(got), "é")
	}
}

func TestOpToDatetimeUnparseableIsNull(t *testing.T) {
	df := dfFrom(t, []string{"d"}, map[string][]Value{"d": {Str("not-a-date"), Str("2026-01-15")}})
	out := runOp(t, opToDatetime, df, `{"op":"to_datetime","column":"d"}`)
	col, _ := out.Column("d")
	if !col[0].IsNull() {
		t.Errorf("expected null for unparseable date, got %v", col[0])
	}
	if !col[1].Equal(Str("2026-01-15")) {
		t.Errorf("expected passthrough ISO date, got %v", col[1])
	}
}
