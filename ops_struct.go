package determin

import (
	"github.com/jmespath/go-jmespath"
)

// opExplode turns each list value in columns into a row per element;
// scalar values repeat; differing lengths across exploded columns is
// an error.
func opExplode(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Columns []string `json:"columns"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, args.Columns); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	exploded := map[string]bool{}
	for _, c := range args.Columns {
		exploded[c] = true
	}
	others := removeAllNames(df.Columns(), args.Columns)

	newData := make(map[string][]Value, len(df.Columns()))
	for _, c := range df.Columns() {
		newData[c] = nil
	}

	for r := 0; r < df.Height(); r++ {
		n := -1
		for _, c := range args.Columns {
			col, _ := df.Column(c)
			if list, ok := col[r].AsList(); ok {
				if n == -1 {
					n = len(list)
				} else if n != len(list) {
					return nil, newOpError(idx, step.Op, ErrBadArgument, "row %d: exploded columns have differing lengths", r)
				}
			}
		}
		if n == -1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			for _, c := range others {
				col, _ := df.Column(c)
				newData[c] = append(newData[c], col[r])
			}
			for _, c := range args.Columns {
				col, _ := df.Column(c)
				if list, ok := col[r].AsList(); ok {
					newData[c] = append(newData[c], list[i])
				} else {
					newData[c] = append(newData[c], col[r])
				}
			}
		}
	}
	return NewDataFrame(df.Columns(), newData)
}

func removeAllNames(names []string, drop []string) []string {
	skip := map[string]bool{}
	for _, d := range drop {
		skip[d] = true
	}
	var out []string
	for _, n := range names {
		if !skip[n] {
			out = append(out, n)
		}
	}
	return out
}

// opJSONExtract evaluates a JMESPath expression over each row's struct
// representation, writing the result into as. Uses a real JMESPath
// evaluator (github.com/jmespath/go-jmespath), matching the original
// Python implementation's use of the jmespath package.
func opJSONExtract(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Expr string `json:"expr"`
		As   string `json:"as"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	jp, err := jmespath.Compile(args.Expr)
	if err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "bad jmespath expression: %v", err)
	}
	height := df.Height()
	out := make([]Value, height)
	for r := 0; r < height; r++ {
		row := df.RowStruct(r).toJSON()
		result, err := jp.Search(row)
		if err != nil {
			out[r] = Null()
			continue
		}
		out[r] = valueFromJSON(result)
	}
	return df.withColumn(args.As, out), nil
}
