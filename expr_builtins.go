package determin

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// builtinFunc is one entry of the closed built-in function table of
// spec §4.2. Each is total or fails with a defined ExprError.
type builtinFunc func(c *evalCtx, args []Value) (Value, error)

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"len":         bLen,
		"int":         bInt,
		"float":       bFloat,
		"str":         bStr,
		"abs":         bAbs,
		"round":       bRound,
		"round_to":    bRoundTo,
		"ceil":        bCeil,
		"floor":       bFloor,
		"sqrt":        bSqrt,
		"pow":         bPow,
		"upper":       bUpper,
		"lower":       bLower,
		"trim":        bTrim,
		"substr":      bSubstr,
		"left":        bLeft,
		"right":       bRight,
		"mid":         bMid,
		"find":        bFind,
		"search":      bSearch,
		"startswith":  bStartsWith,
		"endswith":    bEndsWith,
		"replace":     bReplace,
		"concat_ws":   bConcatWs,
		"regex_match":   bRegexMatch,
		"regex_extract": bRegexExtract,
		"to_bool":      bToBool,
		"parse_number": bParseNumber,
		"safe_int":     bSafeInt,
		"safe_float":   bSafeFloat,
		"ifelse":       bIfElse,
		"coalesce_val": bCoalesceVal,
		"sum_nonnull":  bSumNonnull,
		"first_digit":  bFirstDigit,
		"last_digit":   bLastDigit,
		"leading_number": bLeadingNumber,
		"trailing_number": bTrailingNumber,
		"digits":       bDigits,
		"today":        bToday,
		"now":          bNow,
		"date":         bDate,
		"to_date":      bToDate,
		"year":         bYear,
		"month":        bMonth,
		"day":          bDay,
		"date_add_days":  bDateAddDays,
		"date_diff_days": bDateDiffDays,
	}
}

func (c *evalCtx) evalCall(n callExpr) (result Value, err error) {
	if _, shadowed := c.env[n.name]; shadowed {
		return Null(), fmt.Errorf("%w: %s is bound to a value, not a function", ErrFunctionNotAllowed, n.name)
	}
	fn, ok := builtins[n.name]
	if !ok {
		return Null(), fmt.Errorf("%w: %s", ErrFunctionNotAllowed, n.name)
	}
	args := make([]Value, len(n.args))
	for i, a := range n.args {
		v, err := c.eval(a)
		if err != nil {
			return Null(), err
		}
		args[i] = v
	}
	defer func() {
		if r := recover(); r != nil {
			result, err = Null(), fmt.Errorf("%w: %s: %v", ErrCallFailed, n.name, r)
		}
	}()
	v, err := fn(c, args)
	if err != nil {
		return Null(), fmt.Errorf("%w: %s: %v", ErrCallFailed, n.name, err)
	}
	return v, nil
}

func argErr(want int, got int) error {
	return fmt.Errorf("expected %d argument(s), got %d", want, got)
}

// --- numeric ---

func bLen(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 1 {
		return Null(), argErr(1, len(a))
	}
	switch a[0].Kind() {
	case KindString:
		s, _ := a[0].AsString()
		return Int(int64(len([]rune(s)))), nil
	case KindList:
		l, _ := a[0].AsList()
		return Int(int64(len(l))), nil
	case KindNull:
		return Null(), nil
	default:
		return Null(), fmtTypeError(a[0], "string or list")
	}
}

func bInt(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 1 {
		return Null(), argErr(1, len(a))
	}
	return CastTo(a[0], "int"), nil
}

func bFloat(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 1 {
		return Null(), argErr(1, len(a))
	}
	return CastTo(a[0], "float"), nil
}

func bStr(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 1 {
		return Null(), argErr(1, len(a))
	}
	if a[0].IsNull() {
		return Null(), nil
	}
	return Str(a[0].String()), nil
}

func bAbs(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 1 {
		return Null(), argErr(1, len(a))
	}
	if i, ok := a[0].AsInt(); ok {
		if i < 0 {
			i = -i
		}
		return Int(i), nil
	}
	if f, ok := a[0].AsFloat(); ok {
		return Float(math.Abs(f)), nil
	}
	return Null(), fmtTypeError(a[0], "numeric")
}

func bRound(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 1 {
		return Null(), argErr(1, len(a))
	}
	f, ok := a[0].AsFloat()
	if !ok {
		return Null(), fmtTypeError(a[0], "numeric")
	}
	return Int(int64(math.Round(f))), nil
}

func bRoundTo(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 2 {
		return Null(), argErr(2, len(a))
	}
	f, ok := a[0].AsFloat()
	if !ok {
		return Null(), fmtTypeError(a[0], "numeric")
	}
	n, ok := a[1].AsInt()
	if !ok {
		return Null(), fmtTypeError(a[1], "int")
	}
	mul := math.Pow(10, float64(n))
	return Float(math.Round(f*mul) / mul), nil
}

func bCeil(c *evalCtx, a []Value) (Value, error) {
	if len(a) < 1 || len(a) > 2 {
		return Null(), argErr(1, len(a))
	}
	f, ok := a[0].AsFloat()
	if !ok {
		return Null(), fmtTypeError(a[0], "numeric")
	}
	if len(a) == 1 {
		return Int(int64(math.Ceil(f))), nil
	}
	n, _ := a[1].AsInt()
	mul := math.Pow(10, float64(n))
	return Float(math.Ceil(f*mul) / mul), nil
}

func bFloor(c *evalCtx, a []Value) (Value, error) {
	if len(a) < 1 || len(a) > 2 {
		return Null(), argErr(1, len(a))
	}
	f, ok := a[0].AsFloat()
	if !ok {
		return Null(), fmtTypeError(a[0], "numeric")
	}
	if len(a) == 1 {
		return Int(int64(math.Floor(f))), nil
	}
	n, _ := a[1].AsInt()
	mul := math.Pow(10, float64(n))
	return Float(math.Floor(f*mul) / mul), nil
}

func bSqrt(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 1 {
		return Null(), argErr(1, len(a))
	}
	f, ok := a[0].AsFloat()
	if !ok {
		return Null(), fmtTypeError(a[0], "numeric")
	}
	if f < 0 {
		return Null(), fmt.Errorf("sqrt of negative number")
	}
	return Float(math.Sqrt(f)), nil
}

func bPow(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 2 {
		return Null(), argErr(2, len(a))
	}
	x, ok1 := a[0].AsFloat()
	y, ok2 := a[1].AsFloat()
	if !ok1 || !ok2 {
		return Null(), fmtTypeError(a[0], "numeric")
	}
	return Float(math.Pow(x, y)), nil
}

// --- string ---

func asStr(v Value) (string, bool) { return v.AsString() }

func bUpper(c *evalCtx, a []Value) (Value, error) {
	s, ok := asStr(a[0])
	if !ok {
		return Null(), fmtTypeError(a[0], "string")
	}
	return Str(strings.ToUpper(s)), nil
}

func bLower(c *evalCtx, a []Value) (Value, error) {
	s, ok := asStr(a[0])
	if !ok {
		return Null(), fmtTypeError(a[0], "string")
	}
	return Str(strings.ToLower(s)), nil
}

func bTrim(c *evalCtx, a []Value) (Value, error) {
	s, ok := asStr(a[0])
	if !ok {
		return Null(), fmtTypeError(a[0], "string")
	}
	return Str(strings.TrimSpace(s)), nil
}

func bSubstr(c *evalCtx, a []Value) (Value, error) {
	if len(a) < 2 || len(a) > 3 {
		return Null(), argErr(2, len(a))
	}
	s, ok := asStr(a[0])
	if !ok {
		return Null(), fmtTypeError(a[0], "string")
	}
	r := []rune(s)
	start, _ := a[1].AsInt()
	if start < 0 || int(start) > len(r) {
		return Str(""), nil
	}
	end := len(r)
	if len(a) == 3 {
		n, _ := a[2].AsInt()
		if int(start)+int(n) < end {
			end = int(start) + int(n)
		}
	}
	return Str(string(r[start:end])), nil
}

func bLeft(c *evalCtx, a []Value) (Value, error) {
	s, _ := asStr(a[0])
	n, _ := a[1].AsInt()
	r := []rune(s)
	if n < 0 {
		n = 0
	}
	if int(n) > len(r) {
		n = int64(len(r))
	}
	return Str(string(r[:n])), nil
}

func bRight(c *evalCtx, a []Value) (Value, error) {
	s, _ := asStr(a[0])
	n, _ := a[1].AsInt()
	r := []rune(s)
	if n < 0 {
		n = 0
	}
	if int(n) > len(r) {
		n = int64(len(r))
	}
	return Str(string(r[len(r)-int(n):])), nil
}

func bMid(c *evalCtx, a []Value) (Value, error) {
	if len(a) < 2 || len(a) > 3 {
		return Null(), argErr(2, len(a))
	}
	s, _ := asStr(a[0])
	r := []rune(s)
	start, _ := a[1].AsInt()
	if start < 0 || int(start) >= len(r) {
		return Str(""), nil
	}
	end := len(r)
	if len(a) == 3 {
		n, _ := a[2].AsInt()
		if int(start)+int(n) < end {
			end = int(start) + int(n)
		}
	}
	return Str(string(r[start:end])), nil
}

func bFind(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 2 {
		return Null(), argErr(2, len(a))
	}
	sub, _ := asStr(a[0])
	s, _ := asStr(a[1])
	idx := strings.Index(s, sub)
	return Int(int64(idx)), nil
}

func bSearch(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 2 {
		return Null(), argErr(2, len(a))
	}
	sub, _ := asStr(a[0])
	s, _ := asStr(a[1])
	idx := strings.Index(strings.ToLower(s), strings.ToLower(sub))
	return Int(int64(idx)), nil
}

func bStartsWith(c *evalCtx, a []Value) (Value, error) {
	s, _ := asStr(a[0])
	p, _ := asStr(a[1])
	return Bool(strings.HasPrefix(s, p)), nil
}

func bEndsWith(c *evalCtx, a []Value) (Value, error) {
	s, _ := asStr(a[0])
	p, _ := asStr(a[1])
	return Bool(strings.HasSuffix(s, p)), nil
}

func bReplace(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 3 {
		return Null(), argErr(3, len(a))
	}
	s, _ := asStr(a[0])
	old, _ := asStr(a[1])
	neu, _ := asStr(a[2])
	return Str(strings.ReplaceAll(s, old, neu)), nil
}

func bConcatWs(c *evalCtx, a []Value) (Value, error) {
	if len(a) < 1 {
		return Null(), argErr(1, len(a))
	}
	sep, _ := asStr(a[0])
	parts := make([]string, 0, len(a)-1)
	for _, v := range a[1:] {
		if v.IsNull() {
			continue
		}
		parts = append(parts, v.String())
	}
	return Str(strings.Join(parts, sep)), nil
}

// --- regex (RE2 via stdlib regexp) ---

func bRegexMatch(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 2 {
		return Null(), argErr(2, len(a))
	}
	text, _ := asStr(a[0])
	pat, _ := asStr(a[1])
	re, err := regexp.Compile(pat)
	if err != nil {
		return Null(), fmt.Errorf("bad pattern: %w", err)
	}
	return Bool(re.MatchString(text)), nil
}

func bRegexExtract(c *evalCtx, a []Value) (Value, error) {
	if len(a) < 2 || len(a) > 3 {
		return Null(), argErr(2, len(a))
	}
	text, _ := asStr(a[0])
	pat, _ := asStr(a[1])
	group := int64(0)
	if len(a) == 3 {
		group, _ = a[2].AsInt()
	}
	effective := pat
	if group == 0 {
		effective = "(" + pat + ")"
		group = 1
	}
	re, err := regexp.Compile(effective)
	if err != nil {
		return Null(), fmt.Errorf("bad pattern: %w", err)
	}
	m := re.FindStringSubmatch(text)
	if m == nil || int(group) >= len(m) {
		return Null(), nil
	}
	return Str(m[group]), nil
}

// --- conversion ---

func bToBool(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 1 {
		return Null(), argErr(1, len(a))
	}
	return Bool(a[0].Truthy()), nil
}

var numberRe = regexp.MustCompile(`[-+]?\d+(\.\d+)?`)

func bParseNumber(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 1 {
		return Null(), argErr(1, len(a))
	}
	s, ok := asStr(a[0])
	if !ok {
		return Null(), nil
	}
	m := numberRe.FindString(s)
	if m == "" {
		return Null(), nil
	}
	if strings.Contains(m, ".") {
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return Null(), nil
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return Null(), nil
	}
	return Int(i), nil
}

func bSafeInt(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 2 {
		return Null(), argErr(2, len(a))
	}
	v := CastTo(a[0], "int")
	if v.IsNull() {
		return a[1], nil
	}
	return v, nil
}

func bSafeFloat(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 2 {
		return Null(), argErr(2, len(a))
	}
	v := CastTo(a[0], "float")
	if v.IsNull() {
		return a[1], nil
	}
	return v, nil
}

// --- null-aware ---

func bIfElse(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 3 {
		return Null(), argErr(3, len(a))
	}
	if a[0].Truthy() {
		return a[1], nil
	}
	return a[2], nil
}

func bCoalesceVal(c *evalCtx, a []Value) (Value, error) {
	for _, v := range a {
		if !v.IsNull() {
			return v, nil
		}
	}
	return Null(), nil
}

func bSumNonnull(c *evalCtx, a []Value) (Value, error) {
	var sumInt int64
	var sumFloat float64
	isFloat := false
	for _, v := range a {
		if v.IsNull() {
			continue
		}
		if i, ok := v.AsInt(); ok {
			sumInt += i
			continue
		}
		if f, ok := v.AsFloat(); ok {
			isFloat = true
			sumFloat += f
			continue
		}
		if s, ok := v.AsString(); ok {
			n, err := bParseNumber(c, []Value{Str(s)})
			if err == nil && !n.IsNull() {
				if i, ok := n.AsInt(); ok {
					sumInt += i
				} else if f, ok := n.AsFloat(); ok {
					isFloat = true
					sumFloat += f
				}
			}
		}
	}
	if isFloat {
		return Float(sumFloat + float64(sumInt)), nil
	}
	return Int(sumInt), nil
}

// --- digit helpers ---

func digitsOf(s string) []rune {
	var out []rune
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return out
}

func bFirstDigit(c *evalCtx, a []Value) (Value, error) {
	s, ok := asStr(a[0])
	if !ok {
		return Null(), nil
	}
	d := digitsOf(s)
	if len(d) == 0 {
		return Null(), nil
	}
	return Str(string(d[0])), nil
}

func bLastDigit(c *evalCtx, a []Value) (Value, error) {
	s, ok := asStr(a[0])
	if !ok {
		return Null(), nil
	}
	d := digitsOf(s)
	if len(d) == 0 {
		return Null(), nil
	}
	return Str(string(d[len(d)-1])), nil
}

var leadingNumberRe = regexp.MustCompile(`^\D*(\d+)`)
var trailingNumberRe = regexp.MustCompile(`(\d+)\D*$`)

func bLeadingNumber(c *evalCtx, a []Value) (Value, error) {
	s, ok := asStr(a[0])
	if !ok {
		return Null(), nil
	}
	m := leadingNumberRe.FindStringSubmatch(s)
	if m == nil {
		return Null(), nil
	}
	return Str(m[1]), nil
}

func bTrailingNumber(c *evalCtx, a []Value) (Value, error) {
	s, ok := asStr(a[0])
	if !ok {
		return Null(), nil
	}
	m := trailingNumberRe.FindStringSubmatch(s)
	if m == nil {
		return Null(), nil
	}
	return Str(m[1]), nil
}

func bDigits(c *evalCtx, a []Value) (Value, error) {
	s, ok := asStr(a[0])
	if !ok {
		return Null(), nil
	}
	d := digitsOf(s)
	if len(d) == 0 {
		return Null(), nil
	}
	return Str(string(d)), nil
}

// --- time (UTC, deterministic per call via the injected clock) ---

const isoDate = "2006-01-02"
const isoDateTime = "2006-01-02T15:04:05Z"

func bToday(c *evalCtx, a []Value) (Value, error) {
	return Str(c.now().Format(isoDate)), nil
}

func bNow(c *evalCtx, a []Value) (Value, error) {
	return Str(c.now().Format(isoDateTime)), nil
}

func bDate(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 3 {
		return Null(), argErr(3, len(a))
	}
	y, _ := a[0].AsInt()
	m, _ := a[1].AsInt()
	d, _ := a[2].AsInt()
	t := time.Date(int(y), time.Month(m), int(d), 0, 0, 0, 0, time.UTC)
	return Str(t.Format(isoDate)), nil
}

func parseDateTimeValue(v Value, format string) (time.Time, bool) {
	s, ok := v.AsString()
	if !ok {
		return time.Time{}, false
	}
	if format != "" {
		t, err := time.Parse(format, s)
		return t, err == nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(isoDateTime, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(isoDate, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func bToDate(c *evalCtx, a []Value) (Value, error) {
	if len(a) < 1 || len(a) > 2 {
		return Null(), argErr(1, len(a))
	}
	format := ""
	if len(a) == 2 {
		format, _ = asStr(a[1])
	}
	t, ok := parseDateTimeValue(a[0], format)
	if !ok {
		return Null(), nil
	}
	return Str(t.Format(isoDate)), nil
}

func bYear(c *evalCtx, a []Value) (Value, error) {
	t, ok := parseDateTimeValue(a[0], "")
	if !ok {
		return Null(), nil
	}
	return Int(int64(t.Year())), nil
}

func bMonth(c *evalCtx, a []Value) (Value, error) {
	t, ok := parseDateTimeValue(a[0], "")
	if !ok {
		return Null(), nil
	}
	return Int(int64(t.Month())), nil
}

func bDay(c *evalCtx, a []Value) (Value, error) {
	t, ok := parseDateTimeValue(a[0], "")
	if !ok {
		return Null(), nil
	}
	return Int(int64(t.Day())), nil
}

func bDateAddDays(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 2 {
		return Null(), argErr(2, len(a))
	}
	t, ok := parseDateTimeValue(a[0], "")
	if !ok {
		return Null(), nil
	}
	n, _ := a[1].AsInt()
	return Str(t.AddDate(0, 0, int(n)).Format(isoDate)), nil
}

func bDateDiffDays(c *evalCtx, a []Value) (Value, error) {
	if len(a) != 2 {
		return Null(), argErr(2, len(a))
	}
	ta, ok1 := parseDateTimeValue(a[0], "")
	tb, ok2 := parseDateTimeValue(a[1], "")
	if !ok1 || !ok2 {
		return Null(), nil
	}
	diff := ta.Sub(tb).Hours() / 24
	return Int(int64(math.Round(diff))), nil
}
