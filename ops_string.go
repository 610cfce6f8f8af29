package determin

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

func compileOpRegex(idx int, op, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, newOpError(idx, op, ErrBadArgument, "bad pattern %q: %v", pattern, err)
	}
	return re, nil
}

// opRegexExtract: group==0 wraps the pattern in an implicit group and
// extracts the full match; otherwise extracts the 1-based group.
func opRegexExtract(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column  string `json:"column"`
		Pattern string `json:"pattern"`
		Group   int    `json:"group"`
		As      string `json:"as"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	pattern := args.Pattern
	group := args.Group
	if group == 0 {
		pattern = "(" + pattern + ")"
		group = 1
	}
	re, err := compileOpRegex(idx, step.Op, pattern)
	if err != nil {
		return nil, err
	}
	src, _ := df.Column(args.Column)
	out := make([]Value, len(src))
	for i, v := range src {
		s := v.String()
		if v.IsNull() {
			out[i] = Null()
			continue
		}
		m := re.FindStringSubmatch(s)
		if m == nil || group >= len(m) {
			out[i] = Null()
			continue
		}
		out[i] = Str(m[group])
	}
	return df.withColumn(args.As, out), nil
}

// opRegexExtractMulti extracts groups 1..N into parallel columns.
func opRegexExtractMulti(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column  string   `json:"column"`
		Pattern string   `json:"pattern"`
		As      []string `json:"as"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	re, err := compileOpRegex(idx, step.Op, args.Pattern)
	if err != nil {
		return nil, err
	}
	src, _ := df.Column(args.Column)
	cols := make([][]Value, len(args.As))
	for i := range cols {
		cols[i] = make([]Value, len(src))
	}
	for r, v := range src {
		if v.IsNull() {
			for g := range args.As {
				cols[g][r] = Null()
			}
			continue
		}
		m := re.FindStringSubmatch(v.String())
		for g := range args.As {
			if m == nil || g+1 >= len(m) {
				cols[g][r] = Null()
			} else {
				cols[g][r] = Str(m[g+1])
			}
		}
	}
	out := df
	for g, name := range args.As {
		out = out.withColumn(name, cols[g])
	}
	return out, nil
}

// opRegexReplace replaces every match globally.
func opRegexReplace(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column      string `json:"column"`
		Pattern     string `json:"pattern"`
		Replacement string `json:"replacement"`
		As          string `json:"as,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	re, err := compileOpRegex(idx, step.Op, args.Pattern)
	if err != nil {
		return nil, err
	}
	src, _ := df.Column(args.Column)
	out := make([]Value, len(src))
	for i, v := range src {
		if v.IsNull() {
			out[i] = Null()
			continue
		}
		out[i] = Str(re.ReplaceAllString(v.String(), args.Replacement))
	}
	target := args.As
	if target == "" {
		target = args.Column
	}
	return df.withColumn(target, out), nil
}

// opReplaceValues performs exact-value substitution; unmatched values
// pass through unchanged.
func opReplaceValues(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column  string            `json:"column"`
		Mapping map[string]string `json:"mapping"`
		As      string            `json:"as,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	src, _ := df.Column(args.Column)
	out := make([]Value, len(src))
	for i, v := range src {
		if v.IsNull() {
			out[i] = v
			continue
		}
		if repl, ok := args.Mapping[v.String()]; ok {
			out[i] = Str(repl)
		} else {
			out[i] = v
		}
	}
	target := args.As
	if target == "" {
		target = args.Column
	}
	return df.withColumn(target, out), nil
}

// opLookup is a table-driven map with an optional default. Table keys
// and the default are arbitrary Values (spec §4.3), not necessarily
// strings, so matching goes through valueFromJSON/Value.Equal rather
// than a Go string-keyed map.
func opLookup(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		On       string           `json:"on"`
		Table    []map[string]any `json:"table"`
		KeyField string           `json:"key_field,omitempty"`
		ValField string           `json:"value_field,omitempty"`
		Default  jsonRawOrAbsent  `json:"default,omitempty"`
		As       string           `json:"as,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.On}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	keyField := args.KeyField
	if keyField == "" {
		keyField = "key"
	}
	valField := args.ValField
	if valField == "" {
		valField = "value"
	}
	type entry struct {
		key Value
		val Value
	}
	table := make([]entry, 0, len(args.Table))
	for _, row := range args.Table {
		table = append(table, entry{
			key: valueFromJSON(row[keyField]),
			val: valueFromJSON(row[valField]),
		})
	}
	hasDefault := args.Default.set
	defaultVal := args.Default.toValue()

	src, _ := df.Column(args.On)
	out := make([]Value, len(src))
	for i, v := range src {
		matched := false
		for _, e := range table {
			if e.key.Equal(v) {
				out[i] = e.val
				matched = true
				break
			}
		}
		if !matched {
			if hasDefault {
				out[i] = defaultVal
			} else {
				out[i] = v
			}
		}
	}
	target := args.As
	if target == "" {
		target = args.On
	}
	return df.withColumn(target, out), nil
}

// opFilterRegex keeps rows whose string contains a match.
func opFilterRegex(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column  string `json:"column"`
		Pattern string `json:"pattern"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	re, err := compileOpRegex(idx, step.Op, args.Pattern)
	if err != nil {
		return nil, err
	}
	src, _ := df.Column(args.Column)
	var rows []int
	for i, v := range src {
		if !v.IsNull() && re.MatchString(v.String()) {
			rows = append(rows, i)
		}
	}
	return df.selectRows(rows), nil
}

// opFilterEq keeps rows with exact equality; null == null is true
// here, per spec §4.3 (distinct from the usual expression-evaluator
// null semantics).
func opFilterEq(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column string          `json:"column"`
		Value  jsonRawOrAbsent `json:"value"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	target := args.Value.toValue()
	src, _ := df.Column(args.Column)
	var rows []int
	for i, v := range src {
		if v.IsNull() && target.IsNull() {
			rows = append(rows, i)
		} else if !v.IsNull() && !target.IsNull() && v.Equal(target) {
			rows = append(rows, i)
		}
	}
	return df.selectRows(rows), nil
}

// opConcatColumns stringifies and joins columns with delimiter.
func opConcatColumns(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Columns   []string `json:"columns"`
		Delimiter string   `json:"delimiter"`
		As        string   `json:"as"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, args.Columns); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	height := df.Height()
	out := make([]Value, height)
	for r := 0; r < height; r++ {
		parts := make([]string, len(args.Columns))
		for i, c := range args.Columns {
			col, _ := df.Column(c)
			parts[i] = col[r].String()
		}
		out[r] = Str(strings.Join(parts, args.Delimiter))
	}
	return df.withColumn(args.As, out), nil
}

// opSplitColumn splits into exactly len(into) parts, trailing parts
// joined to the last.
func opSplitColumn(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column       string   `json:"column"`
		Delimiter    string   `json:"delimiter"`
		Into         []string `json:"into"`
		DropOriginal bool     `json:"drop_original"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	if len(args.Into) == 0 {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "into must be non-empty")
	}
	src, _ := df.Column(args.Column)
	cols := make([][]Value, len(args.Into))
	for i := range cols {
		cols[i] = make([]Value, len(src))
	}
	for r, v := range src {
		if v.IsNull() {
			for g := range args.Into {
				cols[g][r] = Null()
			}
			continue
		}
		parts := strings.SplitN(v.String(), args.Delimiter, len(args.Into))
		for g := range args.Into {
			if g < len(parts) {
				cols[g][r] = Str(parts[g])
			} else {
				cols[g][r] = Null()
			}
		}
	}
	out := df
	if args.DropOriginal {
		out = out.project(removeName(out.Columns(), args.Column))
	}
	for g, name := range args.Into {
		out = out.withColumn(name, cols[g])
	}
	return out, nil
}

func removeName(names []string, target string) []string {
	var out []string
	for _, n := range names {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

// opSplitToRows splits a column then explodes: each part becomes a
// row.
func opSplitToRows(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column       string `json:"column"`
		Delimiter    string `json:"delimiter"`
		As           string `json:"as,omitempty"`
		DropOriginal bool   `json:"drop_original,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	target := args.As
	if target == "" {
		target = args.Column
	}
	keepOriginal := !args.DropOriginal && target != args.Column
	src, _ := df.Column(args.Column)
	otherCols := removeName(df.Columns(), args.Column)

	order := append([]string(nil), otherCols...)
	if keepOriginal {
		order = append(order, args.Column)
	}
	order = append(order, target)

	newData := make(map[string][]Value, len(order))
	for _, c := range order {
		newData[c] = nil
	}

	for r, v := range src {
		var parts []string
		if v.IsNull() {
			parts = []string{""}
		} else {
			parts = strings.Split(v.String(), args.Delimiter)
		}
		for _, p := range parts {
			for _, c := range otherCols {
				col, _ := df.Column(c)
				newData[c] = append(newData[c], col[r])
			}
			if keepOriginal {
				newData[args.Column] = append(newData[args.Column], v)
			}
			newData[target] = append(newData[target], Str(p))
		}
	}
	return NewDataFrame(order, newData)
}

// opToDatetime parses a column to an ISO-8601 date string,
// non-strict: unparseable becomes null. Per the Open Question decisions
// of SPEC_FULL.md §11, absent format probes only RFC3339/ISO-8601, no
// heuristic guessing.
func opToDatetime(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column string  `json:"column"`
		Format *string `json:"format,omitempty"`
		As     string  `json:"as,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	format := ""
	if args.Format != nil {
		format = goTimeLayout(*args.Format)
	}
	src, _ := df.Column(args.Column)
	out := make([]Value, len(src))
	for i, v := range src {
		t, ok := parseDateTimeValue(v, format)
		if !ok {
			out[i] = Null()
			continue
		}
		out[i] = Str(t.Format(isoDate))
	}
	target := args.As
	if target == "" {
		target = args.Column
	}
	return df.withColumn(target, out), nil
}

// goTimeLayout maps a handful of common strftime-ish format tokens to
// Go's reference-time layout; unrecognized formats pass through
// unchanged (time.Parse will simply fail to match, yielding null).
func goTimeLayout(format string) string {
	repl := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
	)
	return repl.Replace(format)
}

// opNormalizeUnicode (§10.1, supplemental) normalizes a string column
// to NFC|NFD|NFKC|NFKD.
func opNormalizeUnicode(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Column string `json:"column"`
		Form   string `json:"form,omitempty"`
		As     string `json:"as,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if err := requireColumns(df, []string{args.Column}); err != nil {
		return nil, newOpError(idx, step.Op, err, "%v", err)
	}
	form := args.Form
	if form == "" {
		form = "NFC"
	}
	var nf norm.Form
	switch form {
	case "NFC":
		nf = norm.NFC
	case "NFD":
		nf = norm.NFD
	case "NFKC":
		nf = norm.NFKC
	case "NFKD":
		nf = norm.NFKD
	default:
		return nil, newOpError(idx, step.Op, ErrBadArgument, "unknown normalization form %q", form)
	}
	src, _ := df.Column(args.Column)
	out := make([]Value, len(src))
	for i, v := range src {
		if v.IsNull() {
			out[i] = Null()
			continue
		}
		out[i] = Str(nf.String(v.String()))
	}
	target := args.As
	if target == "" {
		target = args.Column
	}
	return df.withColumn(target, out), nil
}
