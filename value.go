package determin

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind identifies which alternative of the Value tagged union is held.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// Value is the tagged union described in spec §3: null, bool, int64,
// float64, string, list-of-Value, or struct (string -> Value). Only one
// of the typed fields is meaningful, selected by Kind.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	strc map[string]Value
}

func Null() Value                 { return Value{kind: KindNull} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Int(i int64) Value           { return Value{kind: KindInt, i: i} }
func Float(f float64) Value       { return Value{kind: KindFloat, f: f} }
func Str(s string) Value          { return Value{kind: KindString, s: s} }
func List(vs []Value) Value       { return Value{kind: KindList, list: vs} }
func Struct(m map[string]Value) Value {
	return Value{kind: KindStruct, strc: m}
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

func (v Value) AsStruct() (map[string]Value, bool) {
	if v.kind != KindStruct {
		return nil, false
	}
	return v.strc, true
}

// IsNumeric reports whether v is an int or float Value.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// Truthy implements Python-like truthiness for contexts (filter_expr,
// BoolOp evaluation) that coerce a Value to bool.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindStruct:
		return len(v.strc) > 0
	default:
		return false
	}
}

// String renders v for string-coercion contexts (concat_columns,
// string built-ins, cast to str).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList:
		out := "["
		for i, e := range v.list {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out + "]"
	case KindStruct:
		keys := make([]string, 0, len(v.strc))
		for k := range v.strc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ", "
			}
			out += k + ": " + v.strc[k].String()
		}
		return out + "}"
	default:
		return ""
	}
}

// Equal implements the structural equality of spec §3: null equals
// null, but null never equals any non-null Value. Numeric values widen
// before comparison. Lists/structs compare elementwise/key-wise.
func (v Value) Equal(o Value) bool {
	if v.kind == KindNull || o.kind == KindNull {
		return v.kind == KindNull && o.kind == KindNull
	}
	if v.IsNumeric() && o.IsNumeric() {
		vf, _ := v.AsFloat()
		of, _ := o.AsFloat()
		return vf == of
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if len(v.strc) != len(o.strc) {
			return false
		}
		for k, vv := range v.strc {
			ov, ok := o.strc[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two Values for sort_by: numbers by value, strings
// lexicographically, bools false<true. ok is false when the kinds are
// not comparable (mixed non-numeric kinds), which callers turn into
// OpError{TypeMismatch}.
func (v Value) Compare(o Value) (int, bool) {
	if v.IsNumeric() && o.IsNumeric() {
		vf, _ := v.AsFloat()
		of, _ := o.AsFloat()
		switch {
		case vf < of:
			return -1, true
		case vf > of:
			return 1, true
		default:
			return 0, true
		}
	}
	if v.kind != o.kind {
		return 0, false
	}
	switch v.kind {
	case KindString:
		switch {
		case v.s < o.s:
			return -1, true
		case v.s > o.s:
			return 1, true
		default:
			return 0, true
		}
	case KindBool:
		vi, oi := 0, 0
		if v.b {
			vi = 1
		}
		if o.b {
			oi = 1
		}
		return vi - oi, true
	default:
		return 0, false
	}
}

// CastTo coerces v non-strictly to the named target kind
// ("int"|"float"|"str"|"bool"), per cast's spec: unparseable yields
// null rather than an error.
func CastTo(v Value, target string) Value {
	if v.IsNull() {
		return Null()
	}
	switch target {
	case "int":
		switch v.kind {
		case KindInt:
			return v
		case KindFloat:
			if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
				return Null()
			}
			return Int(int64(v.f))
		case KindBool:
			if v.b {
				return Int(1)
			}
			return Int(0)
		case KindString:
			if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
				return Int(i)
			}
			if f, err := strconv.ParseFloat(v.s, 64); err == nil {
				return Int(int64(f))
			}
			return Null()
		default:
			return Null()
		}
	case "float":
		switch v.kind {
		case KindFloat:
			return v
		case KindInt:
			return Float(float64(v.i))
		case KindBool:
			if v.b {
				return Float(1)
			}
			return Float(0)
		case KindString:
			if f, err := strconv.ParseFloat(v.s, 64); err == nil {
				return Float(f)
			}
			return Null()
		default:
			return Null()
		}
	case "str":
		return Str(v.String())
	case "bool":
		switch v.kind {
		case KindBool:
			return v
		case KindString:
			switch v.s {
			case "true", "True", "TRUE", "1":
				return Bool(true)
			case "false", "False", "FALSE", "0":
				return Bool(false)
			default:
				return Null()
			}
		case KindInt:
			return Bool(v.i != 0)
		case KindFloat:
			return Bool(v.f != 0)
		default:
			return Null()
		}
	default:
		return Null()
	}
}

// toJSON converts a Value into a plain any suitable for
// encoding/json, used by the Result Serializer.
func (v Value) toJSON() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.toJSON()
		}
		return out
	case KindStruct:
		out := make(map[string]any, len(v.strc))
		for k, e := range v.strc {
			out[k] = e.toJSON()
		}
		return out
	default:
		return nil
	}
}

// valueFromJSON converts a decoded encoding/json value (nil, bool,
// float64, string, []any, map[string]any) into a Value.
func valueFromJSON(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case int64:
		return Int(t)
	case int:
		return Int(int64(t))
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) && math.Abs(t) < 1e15 {
			return Int(int64(t))
		}
		return Float(t)
	case string:
		return Str(t)
	case []any:
		vs := make([]Value, len(t))
		for i, e := range t {
			vs[i] = valueFromJSON(e)
		}
		return List(vs)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = valueFromJSON(e)
		}
		return Struct(m)
	default:
		return Null()
	}
}

func fmtTypeError(v Value, want string) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, want, v.Kind())
}

// jsonRawOrAbsent decodes an arbitrary-shaped JSON field (including a
// JSON null) into a Value, for op arguments like filter_eq's "value"
// that may hold any literal type.
type jsonRawOrAbsent struct {
	raw any
	set bool
}

func (j *jsonRawOrAbsent) UnmarshalJSON(data []byte) error {
	var v any
	if string(data) != "null" {
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
	}
	j.raw = v
	j.set = true
	return nil
}

func (j jsonRawOrAbsent) toValue() Value {
	if !j.set {
		return Null()
	}
	return valueFromJSON(j.raw)
}
