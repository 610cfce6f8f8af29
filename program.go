package determin

import (
	"encoding/json"
)

// Program is a JSON-serializable, ordered sequence of Steps, per spec
// §3. Programs are pure data; they carry no closures.
type Program struct {
	Steps []Step `json:"steps"`
}

// Step is one entry of a Program: a closed-set op discriminator plus
// op-specific fields, held as raw JSON until the interpreter or the
// Program Validator inspects it.
type Step struct {
	Op     string          `json:"op"`
	Fields json.RawMessage `json:"-"`
}

// UnmarshalJSON captures Op plus the full object (as Fields) so each
// operation can decode its own argument shape during validation or
// execution.
func (s *Step) UnmarshalJSON(data []byte) error {
	var probe struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	s.Op = probe.Op
	s.Fields = append(json.RawMessage(nil), data...)
	return nil
}

// decode unmarshals the step's fields into dst (a pointer to an
// op-specific argument struct).
func (s Step) decode(dst any) error {
	return json.Unmarshal(s.Fields, dst)
}

// knownOps is the closed set of operation names from spec §6.
var knownOps = map[string]bool{
	"regex_extract": true, "regex_extract_multi": true, "regex_replace": true,
	"replace_values": true, "lookup": true, "select": true, "rename": true,
	"drop": true, "cast": true, "fill_null": true, "coalesce": true,
	"filter_eq": true, "filter_regex": true, "drop_na": true, "slice": true,
	"head": true, "tail": true, "sample": true, "json_extract": true,
	"take_every": true, "add_row_number": true, "filter_expr": true,
	"compute_expr": true, "concat_columns": true, "split_column": true,
	"to_datetime": true, "scan": true, "group_by_agg": true, "sort_by": true,
	"distinct": true, "explode": true, "split_to_rows": true,
	"pivot_wider": true, "pivot_longer": true, "window_cumsum": true,
	"rank": true, "rolling_mean": true, "rolling_sum": true,
	// supplemental (§10.1)
	"normalize_unicode": true,
}
