package determin

import "encoding/json"

// opSelect projects df onto the given columns, in that order; fails
// if any is missing.
func opSelect(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Columns []string `json:"columns"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, args.Columns); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	return df.project(args.Columns), nil
}

// opRename maps old column names to new ones; all olds must exist and
// the resulting names must remain unique.
func opRename(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Mapping map[string]string `json:"mapping"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	olds := make([]string, 0, len(args.Mapping))
	for o := range args.Mapping {
		olds = append(olds, o)
	}
	if err := requireColumns(df, olds); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	newCols := make([]string, len(df.columns))
	data := make(map[string][]Value, len(df.columns))
	seen := map[string]bool{}
	for i, c := range df.columns {
		name := c
		if n, ok := args.Mapping[c]; ok {
			name = n
		}
		if seen[name] {
			return nil, newOpError(idx, step.Op, ErrBadArgument, "duplicate column name %q after rename", name)
		}
		seen[name] = true
		newCols[i] = name
		data[name] = df.data[c]
	}
	return &DataFrame{columns: newCols, data: data, height: df.height}, nil
}

// opDrop removes the named columns, silently skipping names not
// present.
func opDrop(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Columns []string `json:"columns"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	drop := make(map[string]bool, len(args.Columns))
	for _, c := range args.Columns {
		drop[c] = true
	}
	var kept []string
	for _, c := range df.columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	return df.project(kept), nil
}

// opCast coerces values non-strictly to the mapped target kind;
// unparseable values become null.
func opCast(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Mapping map[string]string `json:"mapping"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	cols := make([]string, 0, len(args.Mapping))
	for c := range args.Mapping {
		cols = append(cols, c)
	}
	if err := requireColumns(df, cols); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	out := df
	for col, target := range args.Mapping {
		src, _ := out.Column(col)
		dst := make([]Value, len(src))
		for i, v := range src {
			dst[i] = CastTo(v, target)
		}
		out = out.withColumn(col, dst)
	}
	return out, nil
}

// opFillNull substitutes a per-column default for null cells.
func opFillNull(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Mapping map[string]json.RawMessage `json:"mapping"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	cols := make([]string, 0, len(args.Mapping))
	for c := range args.Mapping {
		cols = append(cols, c)
	}
	if err := requireColumns(df, cols); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	out := df
	for col, raw := range args.Mapping {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, newOpError(idx, step.Op, ErrBadArgument, "fill_null[%s]: %v", col, err)
		}
		def := valueFromJSON(decoded)
		src, _ := out.Column(col)
		dst := make([]Value, len(src))
		for i, v := range src {
			if v.IsNull() {
				dst[i] = def
			} else {
				dst[i] = v
			}
		}
		out = out.withColumn(col, dst)
	}
	return out, nil
}

// opCoalesce writes the left-to-right first non-null of columns into
// as.
func opCoalesce(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Columns []string `json:"columns"`
		As      string   `json:"as"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, args.Columns); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	out := make([]Value, df.Height())
	for r := 0; r < df.Height(); r++ {
		out[r] = Null()
		for _, c := range args.Columns {
			col, _ := df.Column(c)
			if !col[r].IsNull() {
				out[r] = col[r]
				break
			}
		}
	}
	return df.withColumn(args.As, out), nil
}

// opDropNa drops any row with null in any of columns (or any column if
// omitted).
func opDropNa(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Columns []string `json:"columns,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	cols := args.Columns
	if len(cols) == 0 {
		cols = df.Columns()
	}
	if err := requireColumns(df, cols); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	var rows []int
	for r := 0; r < df.Height(); r++ {
		keep := true
		for _, c := range cols {
			col, _ := df.Column(c)
			if col[r].IsNull() {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, r)
		}
	}
	return df.selectRows(rows), nil
}

// opDistinct keeps first occurrence, keying on columns (or all columns
// if omitted).
func opDistinct(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Columns []string `json:"columns,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	cols := args.Columns
	if len(cols) == 0 {
		cols = df.Columns()
	}
	if err := requireColumns(df, cols); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	seen := map[string]bool{}
	var rows []int
	for r := 0; r < df.Height(); r++ {
		key := rowKey(df, cols, r)
		if !seen[key] {
			seen[key] = true
			rows = append(rows, r)
		}
	}
	return df.selectRows(rows), nil
}

// rowKey builds a comparison key for row r over the given columns,
// used by distinct and group_by_agg to detect matching key tuples.
func rowKey(df *DataFrame, cols []string, r int) string {
	key := ""
	for _, c := range cols {
		col, _ := df.Column(c)
		key += col[r].Kind().String() + ":" + col[r].String() + "\x1f"
	}
	return key
}
