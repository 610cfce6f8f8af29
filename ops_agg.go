package determin

import (
	"fmt"
	"sort"
	"strings"
)

type aggSpec struct {
	Func      string  `json:"func"`
	Column    string  `json:"column,omitempty"`
	As        string  `json:"as,omitempty"`
	Delimiter string  `json:"delimiter,omitempty"`
}

// opGroupByAgg implements spec §4.3's group_by_agg: keys first (in
// given order), then aggregations; groups ordered by first appearance
// of each key tuple. An empty keys list returns a single-row global
// aggregate, with aggregation declaration order pinned per the Open
// Question decisions of SPEC_FULL.md §11.
func opGroupByAgg(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Keys         []string  `json:"keys"`
		Aggregations []aggSpec `json:"aggregations"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, args.Keys); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	for _, a := range args.Aggregations {
		if a.Func == "" {
			return nil, newOpError(idx, step.Op, ErrMissingField, "aggregation missing func")
		}
		if a.Func != "count" && a.Column != "" {
			if err := requireColumns(df, []string{a.Column}); err != nil {
				return nil, newOpError(idx, step.Op, err, "%v", err)
			}
		}
	}

	var groupOrder []string
	groupRows := map[string][]int{}
	groupKeyValues := map[string][]Value{}
	for r := 0; r < df.Height(); r++ {
		key := rowKey(df, args.Keys, r)
		if _, ok := groupRows[key]; !ok {
			groupOrder = append(groupOrder, key)
			vals := make([]Value, len(args.Keys))
			for i, k := range args.Keys {
				col, _ := df.Column(k)
				vals[i] = col[r]
			}
			groupKeyValues[key] = vals
		}
		groupRows[key] = append(groupRows[key], r)
	}
	if len(args.Keys) == 0 && len(groupOrder) == 0 {
		groupOrder = []string{""}
		groupRows[""] = nil
		groupKeyValues[""] = nil
	}

	columns := append([]string(nil), args.Keys...)
	aggNames := make([]string, len(args.Aggregations))
	for i, a := range args.Aggregations {
		name := a.As
		if name == "" {
			name = a.Func
			if a.Column != "" {
				name = a.Func + "_" + a.Column
			}
		}
		aggNames[i] = name
		columns = append(columns, name)
	}

	data := make(map[string][]Value, len(columns))
	for _, c := range columns {
		data[c] = make([]Value, 0, len(groupOrder))
	}
	for _, key := range groupOrder {
		for i, k := range args.Keys {
			data[k] = append(data[k], groupKeyValues[key][i])
		}
		rows := groupRows[key]
		for i, a := range args.Aggregations {
			v, err := computeAgg(df, a, rows)
			if err != nil {
				return nil, newOpError(idx, step.Op, err, "aggregation %q: %v", aggNames[i], err)
			}
			data[aggNames[i]] = append(data[aggNames[i]], v)
		}
	}
	return NewDataFrame(columns, data)
}

func computeAgg(df *DataFrame, a aggSpec, rows []int) (Value, error) {
	switch a.Func {
	case "count":
		return Int(int64(len(rows))), nil
	case "n_unique":
		col, _ := df.Column(a.Column)
		seen := map[string]bool{}
		for _, r := range rows {
			seen[col[r].Kind().String()+":"+col[r].String()] = true
		}
		return Int(int64(len(seen))), nil
	case "first":
		col, _ := df.Column(a.Column)
		if len(rows) == 0 {
			return Null(), nil
		}
		return col[rows[0]], nil
	case "last":
		col, _ := df.Column(a.Column)
		if len(rows) == 0 {
			return Null(), nil
		}
		return col[rows[len(rows)-1]], nil
	case "concat_str":
		if a.Delimiter == "" {
			return Null(), fmt.Errorf("%w: concat_str requires delimiter", ErrBadArgument)
		}
		col, _ := df.Column(a.Column)
		parts := make([]string, 0, len(rows))
		for _, r := range rows {
			if !col[r].IsNull() {
				parts = append(parts, col[r].String())
			}
		}
		return Str(strings.Join(parts, a.Delimiter)), nil
	case "sum", "mean", "min", "max":
		col, _ := df.Column(a.Column)
		return computeNumericAgg(a.Func, col, rows)
	default:
		return Null(), fmt.Errorf("%w: unknown aggregation func %q", ErrBadArgument, a.Func)
	}
}

func computeNumericAgg(fn string, col []Value, rows []int) (Value, error) {
	var sum float64
	var count int
	isFloat := false
	var minV, maxV Value
	haveMin, haveMax := false, false
	for _, r := range rows {
		v := col[r]
		if v.IsNull() {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return Null(), fmt.Errorf("%w: %s on non-numeric column", ErrTypeMismatch, fn)
		}
		if _, isF := v.AsFloat(); isF {
			if _, isInt := v.AsInt(); !isInt {
				isFloat = true
			}
		}
		sum += f
		count++
		if !haveMin {
			minV, haveMin = v, true
		} else if cmp, ok := v.Compare(minV); ok && cmp < 0 {
			minV = v
		}
		if !haveMax {
			maxV, haveMax = v, true
		} else if cmp, ok := v.Compare(maxV); ok && cmp > 0 {
			maxV = v
		}
	}
	switch fn {
	case "sum":
		if count == 0 {
			return Int(0), nil
		}
		if isFloat {
			return Float(sum), nil
		}
		return Int(int64(sum)), nil
	case "mean":
		if count == 0 {
			return Null(), nil
		}
		return Float(sum / float64(count)), nil
	case "min":
		if !haveMin {
			return Null(), nil
		}
		return minV, nil
	case "max":
		if !haveMax {
			return Null(), nil
		}
		return maxV, nil
	}
	return Null(), nil
}

// opSortBy sorts by columns with per-column direction; nulls last for
// ascending, first for descending. Mixed-runtime-type columns are
// rejected with OpError{TypeMismatch}, per the Open Question decisions
// of SPEC_FULL.md §11.
func opSortBy(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Columns    []string        `json:"columns"`
		Descending jsonRawOrAbsent `json:"descending,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, args.Columns); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	desc := make([]bool, len(args.Columns))
	dv := args.Descending.toValue()
	if b, ok := dv.AsBool(); ok {
		for i := range desc {
			desc[i] = b
		}
	} else if list, ok := dv.AsList(); ok {
		for i := range desc {
			if i < len(list) {
				if b, ok := list[i].AsBool(); ok {
					desc[i] = b
				}
			}
		}
	}

	rows := make([]int, df.Height())
	for i := range rows {
		rows[i] = i
	}
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		ri, rj := rows[i], rows[j]
		for ci, c := range args.Columns {
			col, _ := df.Column(c)
			vi, vj := col[ri], col[rj]
			if vi.IsNull() || vj.IsNull() {
				if vi.IsNull() && vj.IsNull() {
					continue
				}
				if desc[ci] {
					return vi.IsNull()
				}
				return vj.IsNull()
			}
			cmp, ok := vi.Compare(vj)
			if !ok {
				sortErr = fmt.Errorf("%w: column %q has mixed comparable types", ErrTypeMismatch, c)
				return false
			}
			if cmp == 0 {
				continue
			}
			if desc[ci] {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	if sortErr != nil {
		return nil, newOpError(idx, step.Op, sortErr, "%v", sortErr)
	}
	return df.selectRows(rows), nil
}

// opPivotWider: unique values of column become new columns named
// after them, aggregated with agg per (keys, pivot) bucket.
func opPivotWider(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Keys   []string `json:"keys"`
		Column string   `json:"column"`
		Values string   `json:"values"`
		Agg    string   `json:"agg"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	need := append(append([]string(nil), args.Keys...), args.Column, args.Values)
	if err := requireColumns(df, need); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}

	var pivotOrder []string
	seenPivot := map[string]bool{}
	pivotCol, _ := df.Column(args.Column)
	for r := 0; r < df.Height(); r++ {
		name := pivotCol[r].String()
		if !seenPivot[name] {
			seenPivot[name] = true
			pivotOrder = append(pivotOrder, name)
		}
	}

	var groupOrder []string
	groupRows := map[string][]int{}
	groupKeyValues := map[string][]Value{}
	for r := 0; r < df.Height(); r++ {
		key := rowKey(df, args.Keys, r)
		if _, ok := groupRows[key]; !ok {
			groupOrder = append(groupOrder, key)
			vals := make([]Value, len(args.Keys))
			for i, k := range args.Keys {
				col, _ := df.Column(k)
				vals[i] = col[r]
			}
			groupKeyValues[key] = vals
		}
		groupRows[key] = append(groupRows[key], r)
	}

	columns := append(append([]string(nil), args.Keys...), pivotOrder...)
	data := make(map[string][]Value, len(columns))
	for _, c := range columns {
		data[c] = make([]Value, 0, len(groupOrder))
	}
	for _, key := range groupOrder {
		for i, k := range args.Keys {
			data[k] = append(data[k], groupKeyValues[key][i])
		}
		rows := groupRows[key]
		for _, pv := range pivotOrder {
			var bucket []int
			for _, r := range rows {
				if pivotCol[r].String() == pv {
					bucket = append(bucket, r)
				}
			}
			v, err := computeAgg(df, aggSpec{Func: args.Agg, Column: args.Values}, bucket)
			if err != nil {
				return nil, newOpError(idx, step.Op, err, "%v", err)
			}
			data[pv] = append(data[pv], v)
		}
	}
	return NewDataFrame(columns, data)
}

// opPivotLonger unpivots value_vars (or all non-id columns if omitted)
// into (variable_name, value_name) pairs.
func opPivotLonger(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		IDVars       []string `json:"id_vars"`
		ValueVars    []string `json:"value_vars,omitempty"`
		VariableName string   `json:"variable_name"`
		ValueName    string   `json:"value_name"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, args.IDVars); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	valueVars := args.ValueVars
	if len(valueVars) == 0 {
		valueVars = removeAllNames(df.Columns(), args.IDVars)
	}
	if err := requireColumns(df, valueVars); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}

	columns := append(append(append([]string(nil), args.IDVars...), args.VariableName), args.ValueName)
	data := make(map[string][]Value, len(columns))
	for _, c := range columns {
		data[c] = nil
	}
	for r := 0; r < df.Height(); r++ {
		for _, vv := range valueVars {
			for _, id := range args.IDVars {
				col, _ := df.Column(id)
				data[id] = append(data[id], col[r])
			}
			data[args.VariableName] = append(data[args.VariableName], Str(vv))
			col, _ := df.Column(vv)
			data[args.ValueName] = append(data[args.ValueName], col[r])
		}
	}
	return NewDataFrame(columns, data)
}

// opWindowCumsum computes an in-partition cumulative sum, partition
// order preserved by input row order.
func opWindowCumsum(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column      string   `json:"column"`
		PartitionBy []string `json:"partition_by,omitempty"`
		As          string   `json:"as"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	need := append([]string{args.Column}, args.PartitionBy...)
	if err := requireColumns(df, need); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	col, _ := df.Column(args.Column)
	running := map[string]float64{}
	runningIsFloat := map[string]bool{}
	out := make([]Value, df.Height())
	for r := 0; r < df.Height(); r++ {
		key := rowKey(df, args.PartitionBy, r)
		v := col[r]
		if !v.IsNull() {
			f, _ := v.AsFloat()
			running[key] += f
			if _, isF := v.AsFloat(); isF {
				if _, isI := v.AsInt(); !isI {
					runningIsFloat[key] = true
				}
			}
		}
		if runningIsFloat[key] {
			out[r] = Float(running[key])
		} else {
			out[r] = Int(int64(running[key]))
		}
	}
	return df.withColumn(args.As, out), nil
}

// opRank assigns a rank per partition using method
// ordinal|dense|min|max|average.
func opRank(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column      string   `json:"column"`
		Method      string   `json:"method"`
		Descending  bool     `json:"descending"`
		PartitionBy []string `json:"partition_by,omitempty"`
		As          string   `json:"as"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	need := append([]string{args.Column}, args.PartitionBy...)
	if err := requireColumns(df, need); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	col, _ := df.Column(args.Column)

	partitions := map[string][]int{}
	var order []string
	for r := 0; r < df.Height(); r++ {
		key := rowKey(df, args.PartitionBy, r)
		if _, ok := partitions[key]; !ok {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], r)
	}

	out := make([]Value, df.Height())
	for _, key := range order {
		rows := partitions[key]
		sorted := append([]int(nil), rows...)
		sort.SliceStable(sorted, func(i, j int) bool {
			vi, vj := col[sorted[i]], col[sorted[j]]
			cmp, _ := vi.Compare(vj)
			if args.Descending {
				return cmp > 0
			}
			return cmp < 0
		})
		assignRanks(sorted, col, args.Method, out)
	}
	return df.withColumn(args.As, out), nil
}

func assignRanks(sorted []int, col []Value, method string, out []Value) {
	n := len(sorted)
	i := 0
	dense := 1
	for i < n {
		j := i
		for j+1 < n {
			cmp, _ := col[sorted[j+1]].Compare(col[sorted[i]])
			if cmp != 0 {
				break
			}
			j++
		}
		switch method {
		case "dense":
			for k := i; k <= j; k++ {
				out[sorted[k]] = Int(int64(dense))
			}
		case "min":
			for k := i; k <= j; k++ {
				out[sorted[k]] = Int(int64(i + 1))
			}
		case "max":
			for k := i; k <= j; k++ {
				out[sorted[k]] = Int(int64(j + 1))
			}
		case "average":
			avg := float64(i+1+j+1) / 2
			for k := i; k <= j; k++ {
				out[sorted[k]] = Float(avg)
			}
		default: // ordinal
			for k := i; k <= j; k++ {
				out[sorted[k]] = Int(int64(k + 1))
			}
		}
		dense++
		i = j + 1
	}
}

// opRollingMean / opRollingSum: leading window-1 rows produce null.
func opRollingMean(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	return rollingAgg(df, idx, step, "mean")
}

func opRollingSum(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	return rollingAgg(df, idx, step, "sum")
}

func rollingAgg(df *DataFrame, idx int, step Step, kind string) (*DataFrame, error) {
	var args struct {
		Column string `json:"column"`
		Window int    `json:"window"`
		As     string `json:"as"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	if args.Window < 1 {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "window must be >= 1")
	}
	col, _ := df.Column(args.Column)
	out := make([]Value, len(col))
	for r := range col {
		if r < args.Window-1 {
			out[r] = Null()
			continue
		}
		var sum float64
		isFloat := false
		ok := true
		for k := r - args.Window + 1; k <= r; k++ {
			f, isNum := col[k].AsFloat()
			if !isNum || col[k].IsNull() {
				ok = false
				break
			}
			if _, isI := col[k].AsInt(); !isI {
				isFloat = true
			}
			sum += f
		}
		if !ok {
			out[r] = Null()
			continue
		}
		if kind == "mean" {
			out[r] = Float(sum / float64(args.Window))
		} else if isFloat {
			out[r] = Float(sum)
		} else {
			out[r] = Int(int64(sum))
		}
	}
	return df.withColumn(args.As, out), nil
}
