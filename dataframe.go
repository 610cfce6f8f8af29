package determin

import "fmt"

// DataFrame is an ordered set of equal-length named columns of Values,
// per spec §3. Column order is preserved by every operation unless that
// operation's contract documents otherwise.
type DataFrame struct {
	columns []string
	data    map[string][]Value
	height  int
}

// NewDataFrame builds a DataFrame from an explicit column order and a
// map of column name to values. All columns must share the same
// length; column names must be unique and non-empty.
func NewDataFrame(columns []string, data map[string][]Value) (*DataFrame, error) {
	seen := make(map[string]bool, len(columns))
	height := -1
	for _, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("%w: empty column name", ErrBadArgument)
		}
		if seen[c] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrBadArgument, c)
		}
		seen[c] = true
		col, ok := data[c]
		if !ok {
			return nil, fmt.Errorf("%w: column %q has no data", ErrBadArgument, c)
		}
		if height == -1 {
			height = len(col)
		} else if len(col) != height {
			return nil, fmt.Errorf("%w: column %q has height %d, want %d", ErrBadArgument, c, len(col), height)
		}
	}
	if height == -1 {
		height = 0
	}
	cols := append([]string(nil), columns...)
	out := make(map[string][]Value, len(cols))
	for _, c := range cols {
		out[c] = append([]Value(nil), data[c]...)
	}
	return &DataFrame{columns: cols, data: out, height: height}, nil
}

// emptyDataFrame returns a zero-row, zero-column DataFrame.
func emptyDataFrame() *DataFrame {
	return &DataFrame{columns: nil, data: map[string][]Value{}, height: 0}
}

func (df *DataFrame) Height() int          { return df.height }
func (df *DataFrame) Columns() []string    { return append([]string(nil), df.columns...) }
func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.data[name]
	return ok
}

// Column returns the value slice for name; the caller must not mutate
// the returned slice.
func (df *DataFrame) Column(name string) ([]Value, bool) {
	c, ok := df.data[name]
	return c, ok
}

// At returns the value at (column, row).
func (df *DataFrame) At(column string, row int) (Value, error) {
	col, ok := df.data[column]
	if !ok {
		return Null(), fmt.Errorf("%w: %s", ErrMissingColumns, column)
	}
	if row < 0 || row >= len(col) {
		return Null(), fmt.Errorf("%w: row %d out of range [0,%d)", ErrOutOfRange, row, len(col))
	}
	return col[row], nil
}

// Row returns the environment map for a given row index: every column
// name to its value at that row.
func (df *DataFrame) Row(row int) map[string]Value {
	out := make(map[string]Value, len(df.columns))
	for _, c := range df.columns {
		out[c] = df.data[c][row]
	}
	return out
}

// RowStruct returns row row as a struct Value, for json_extract's
// struct representation of a row.
func (df *DataFrame) RowStruct(row int) Value {
	return Struct(df.Row(row))
}

// missingColumns reports which of names are absent from df, in order.
func (df *DataFrame) missingColumns(names []string) []string {
	var missing []string
	for _, n := range names {
		if !df.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// requireColumns returns an OpError{MissingColumns} if any of names is
// absent from df.
func requireColumns(df *DataFrame, names []string) error {
	missing := df.missingColumns(names)
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %v, available %v", ErrMissingColumns, missing, df.Columns())
}

// withColumn returns a new DataFrame identical to df but with column
// name set (or appended, if absent) to values. values must have
// df.Height() entries unless df is currently empty (height 0, no
// columns), in which case the new column establishes the height.
func (df *DataFrame) withColumn(name string, values []Value) *DataFrame {
	cols := df.columns
	if _, exists := df.data[name]; !exists {
		cols = append(append([]string(nil), df.columns...), name)
	}
	data := make(map[string][]Value, len(cols))
	for _, c := range df.columns {
		data[c] = df.data[c]
	}
	data[name] = values
	height := df.height
	if len(df.columns) == 0 {
		height = len(values)
	}
	return &DataFrame{columns: cols, data: data, height: height}
}

// project returns a new DataFrame restricted to columns, in that
// order. Caller must ensure all columns exist.
func (df *DataFrame) project(columns []string) *DataFrame {
	data := make(map[string][]Value, len(columns))
	for _, c := range columns {
		data[c] = df.data[c]
	}
	return &DataFrame{columns: append([]string(nil), columns...), data: data, height: df.height}
}

// selectRows returns a new DataFrame containing only the given
// zero-based row indices, in that order, across all current columns.
func (df *DataFrame) selectRows(rows []int) *DataFrame {
	data := make(map[string][]Value, len(df.columns))
	for _, c := range df.columns {
		src := df.data[c]
		out := make([]Value, len(rows))
		for i, r := range rows {
			out[i] = src[r]
		}
		data[c] = out
	}
	return &DataFrame{columns: append([]string(nil), df.columns...), data: data, height: len(rows)}
}
