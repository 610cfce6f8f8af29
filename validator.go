package determin

import (
	"encoding/json"
)

// ValidateProgram performs the structural pre-execution check of spec
// §4.5: every step's op must be in the closed set and every field
// listed for that op in requiredFields must be present. Field shapes
// are not checked here: a field of the wrong type fails when the op
// decodes its arguments during execution, as an OpError. Expression fields are
// deliberately not parsed here — parse failures surface at execution
// time carrying a step_index, per spec.
func ValidateProgram(p *Program) error {
	if p == nil {
		return newValidationError(-1, nil, "program is nil")
	}
	for i, step := range p.Steps {
		if step.Op == "" {
			return newValidationError(i, ErrMissingField, "step missing op")
		}
		if !knownOps[step.Op] {
			return newValidationError(i, ErrUnknownOp, "unknown op %q", step.Op)
		}
		if err := validateStepShape(i, step); err != nil {
			return err
		}
	}
	return nil
}

// validateStepShape decodes the step into a raw JSON object and checks
// that every field requiredFields lists for its op is present as a key.
// Only presence is checked; field types and optional fields are left
// to execution time.
func validateStepShape(idx int, step Step) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(step.Fields, &raw); err != nil {
		return newValidationError(idx, ErrBadArgument, "step %d is not a JSON object: %v", idx, err)
	}
	required := requiredFields[step.Op]
	for _, f := range required {
		if _, ok := raw[f]; !ok {
			return newValidationError(idx, ErrMissingField, "op %q missing required field %q", step.Op, f)
		}
	}
	return nil
}

// requiredFields names, per op, the JSON fields spec §4.3 documents as
// required (not merely optional-with-default).
var requiredFields = map[string][]string{
	"regex_extract":       {"column", "pattern", "group", "as"},
	"regex_extract_multi": {"column", "pattern", "as"},
	"regex_replace":       {"column", "pattern", "replacement"},
	"replace_values":      {"column", "mapping"},
	"lookup":              {"on", "table"},
	"select":              {"columns"},
	"rename":              {"mapping"},
	"drop":                {"columns"},
	"cast":                {"mapping"},
	"fill_null":           {"mapping"},
	"coalesce":            {"columns", "as"},
	"filter_eq":           {"column", "value"},
	"filter_regex":        {"column", "pattern"},
	"drop_na":             {},
	"slice":               {"offset"},
	"head":                {"n"},
	"tail":                {"n"},
	"sample":              {},
	"json_extract":        {"expr", "as"},
	"take_every":          {"n", "offset"},
	"add_row_number":      {"as", "start"},
	"filter_expr":         {"expr"},
	"compute_expr":        {"expr", "as"},
	"concat_columns":      {"columns", "delimiter", "as"},
	"split_column":        {"column", "delimiter", "into", "drop_original"},
	"to_datetime":         {"column"},
	"scan":                {"update", "emit"},
	"group_by_agg":        {"keys", "aggregations"},
	"sort_by":             {"columns"},
	"distinct":            {},
	"explode":             {"columns"},
	"split_to_rows":       {"column", "delimiter"},
	"pivot_wider":         {"keys", "column", "values", "agg"},
	"pivot_longer":        {"id_vars", "variable_name", "value_name"},
	"window_cumsum":       {"column", "as"},
	"rank":                {"column", "method", "descending", "as"},
	"rolling_mean":        {"column", "window", "as"},
	"rolling_sum":         {"column", "window", "as"},
	"normalize_unicode":   {"column"},
}
