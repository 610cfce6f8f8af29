package determin

// ExecuteResult is the Result Serializer's output, per spec §4.4: the
// row-oriented JSON projection of the final DataFrame plus a small
// metadata block describing its shape.
type ExecuteResult struct {
	Output []map[string]any `json:"output"`
	Meta   ResultMeta       `json:"meta"`
}

// ResultMeta carries the final DataFrame's shape plus the
// determinism flag spec §4.3 requires: Deterministic is false when
// the program drew an unseeded sample, since two runs of the same
// (program, input) pair may then disagree on Output.
type ResultMeta struct {
	Rows          int      `json:"rows"`
	Columns       []string `json:"columns"`
	Deterministic bool     `json:"deterministic"`
}

// Serialize converts df into row-oriented output, one map per row in
// column order, using each Value's JSON projection (spec §4.4).
// deterministic is forwarded from Execute's pre-scan of the program
// for unseeded sample steps.
func Serialize(df *DataFrame, deterministic bool) *ExecuteResult {
	columns := df.Columns()
	height := df.Height()
	output := make([]map[string]any, height)
	for r := 0; r < height; r++ {
		row := make(map[string]any, len(columns))
		for _, c := range columns {
			col, _ := df.Column(c)
			row[c] = col[r].toJSON()
		}
		output[r] = row
	}
	return &ExecuteResult{
		Output: output,
		Meta: ResultMeta{
			Rows:          height,
			Columns:       columns,
			Deterministic: deterministic,
		},
	}
}
