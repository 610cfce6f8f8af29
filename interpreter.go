package determin

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// opFunc is the signature every operation implementation satisfies,
// mirroring the teacher's parsePrepTag switch-dispatch shape: an
// ExecutionContext for ambient configuration, the current DataFrame,
// the step's index (for error attribution) and the step itself.
type opFunc func(ec *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error)

// dispatch is the closed-set op-name to implementation table. Every
// name in knownOps (program.go) must have an entry here; Execute
// treats a missing entry as an internal inconsistency rather than a
// user-facing error, since ValidateProgram already rejected unknown
// ops.
var dispatch = map[string]opFunc{
	"select":              opSelect,
	"rename":              opRename,
	"drop":                opDrop,
	"cast":                opCast,
	"fill_null":           opFillNull,
	"coalesce":            opCoalesce,
	"drop_na":             opDropNa,
	"distinct":            opDistinct,
	"slice":               opSlice,
	"head":                opHead,
	"tail":                opTail,
	"sample":              opSample,
	"take_every":          opTakeEvery,
	"add_row_number":      opAddRowNumber,
	"regex_extract":       opRegexExtract,
	"regex_extract_multi": opRegexExtractMulti,
	"regex_replace":       opRegexReplace,
	"replace_values":      opReplaceValues,
	"lookup":              opLookup,
	"filter_regex":        opFilterRegex,
	"filter_eq":           opFilterEq,
	"concat_columns":      opConcatColumns,
	"split_column":        opSplitColumn,
	"split_to_rows":       opSplitToRows,
	"to_datetime":         opToDatetime,
	"normalize_unicode":   opNormalizeUnicode,
	"filter_expr":         opFilterExpr,
	"compute_expr":        opComputeExpr,
	"group_by_agg":        opGroupByAgg,
	"sort_by":             opSortBy,
	"pivot_wider":         opPivotWider,
	"pivot_longer":        opPivotLonger,
	"window_cumsum":       opWindowCumsum,
	"rank":                opRank,
	"rolling_mean":        opRollingMean,
	"rolling_sum":         opRollingSum,
	"explode":             opExplode,
	"json_extract":        opJSONExtract,
	"scan":                opScan,
}

// hasUnseededSample reports whether program contains any "sample" step
// with no (or a null) "seed" field, per spec §4.3's requirement that
// such a draw be flagged non-deterministic in ResultMeta.
func hasUnseededSample(program *Program) bool {
	if program == nil {
		return false
	}
	for _, step := range program.Steps {
		if step.Op != "sample" {
			continue
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(step.Fields, &raw); err != nil {
			continue
		}
		seed, ok := raw["seed"]
		if !ok || string(seed) == "null" {
			return true
		}
	}
	return false
}

// Execute runs program over the DataFrame decoded from input, per spec
// §6: validate, decode, then apply each step in order, wrapping any
// failure with its step index. Determinism holds for any fixed
// (program, input) pair regardless of ec's logger or clock; only the
// documented non-determinism of sample without a seed escapes that
// guarantee.
func Execute(ctx context.Context, ec *ExecutionContext, program *Program, input *InputPayload) (*ExecuteResult, error) {
	if ec == nil {
		ec = NewExecutionContext()
	}
	runID := uuid.New().String()
	log := ec.Logger().With().Str("run_id", runID).Logger()
	start := ec.now()

	if err := ValidateProgram(program); err != nil {
		log.Error().Err(err).Msg("program validation failed")
		return nil, err
	}

	df, err := DecodeInput(input)
	if err != nil {
		log.Error().Err(err).Msg("input decode failed")
		return nil, err
	}

	for i, step := range program.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fn, ok := dispatch[step.Op]
		if !ok {
			err := newOpError(i, step.Op, ErrUnknownOp, "no dispatch entry for op %q", step.Op)
			log.Error().Err(err).Int("step_index", i).Str("op", step.Op).Msg("step failed")
			return nil, err
		}
		rowsIn := df.Height()
		next, err := fn(ec, df, i, step)
		if err != nil {
			log.Error().Err(err).Int("step_index", i).Str("op", step.Op).Msg("step failed")
			return nil, err
		}
		log.Debug().
			Int("step_index", i).
			Str("op", step.Op).
			Int("rows_in", rowsIn).
			Int("rows_out", next.Height()).
			Msg("step applied")
		df = next
	}

	result := Serialize(df, !hasUnseededSample(program))
	log.Info().
		Int("steps", len(program.Steps)).
		Int("rows_out", df.Height()).
		Dur("duration", ec.now().Sub(start)).
		Msg("program executed")
	return result, nil
}
