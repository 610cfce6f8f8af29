package determin

import "encoding/json"

// opScan implements spec §4.3's stateful scan primitive: a bounded
// fold whose update expressions all read the pre-iteration state
// (simultaneous-update semantics, spec §9's design note), discarding
// the input DataFrame's rows and producing a fresh single-column
// result.
func opScan(ec *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Init         map[string]json.RawMessage `json:"init,omitempty"`
		InitFromRows []struct {
			Var    string `json:"var"`
			Column string `json:"column"`
			Row    int    `json:"row"`
			Cast   string `json:"cast,omitempty"`
		} `json:"init_from_rows,omitempty"`
		Steps         *int `json:"steps,omitempty"`
		StepsFromRow  *struct {
			Column string `json:"column"`
			Row    int    `json:"row"`
			Cast   string `json:"cast,omitempty"`
		} `json:"steps_from_row,omitempty"`
		Update map[string]string `json:"update"`
		Emit   string            `json:"emit"`
		As     string            `json:"as,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}

	state := make(evalEnv, len(args.Init))
	for k, raw := range args.Init {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, newOpError(idx, step.Op, ErrBadArgument, "init[%s]: %v", k, err)
		}
		state[k] = valueFromJSON(decoded)
	}
	for _, ifr := range args.InitFromRows {
		v, err := df.At(ifr.Column, ifr.Row)
		if err != nil {
			return nil, newOpError(idx, step.Op, err, "init_from_rows[%s]: %v", ifr.Var, err)
		}
		if ifr.Cast != "" {
			v = CastTo(v, ifr.Cast)
		}
		state[ifr.Var] = v
	}

	n, err := resolveScanSteps(df, args.Steps, args.StepsFromRow, idx, step.Op)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > ec.maxScanSteps {
		return nil, newOpError(idx, step.Op, ErrOutOfRange, "steps %d out of range [0,%d]", n, ec.maxScanSteps)
	}

	asName := args.As
	if asName == "" {
		asName = "value"
	}

	out := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		next := make(evalEnv, len(state))
		for k, v := range state {
			next[k] = v
		}
		emitVal, err := evalExpression(ec, state, args.Emit)
		if err != nil {
			return nil, newExprError(idx, args.Emit, err, "%v", err)
		}
		for v, exprSrc := range args.Update {
			uv, err := evalExpression(ec, state, exprSrc)
			if err != nil {
				return nil, newExprError(idx, exprSrc, err, "%v", err)
			}
			next[v] = uv
		}
		out = append(out, emitVal)
		state = next
	}
	return NewDataFrame([]string{asName}, map[string][]Value{asName: out})
}

func resolveScanSteps(df *DataFrame, steps *int, fromRow *struct {
	Column string `json:"column"`
	Row    int    `json:"row"`
	Cast   string `json:"cast,omitempty"`
}, idx int, op string) (int, error) {
	if steps != nil {
		return *steps, nil
	}
	if fromRow != nil {
		v, err := df.At(fromRow.Column, fromRow.Row)
		if err != nil {
			return 0, newOpError(idx, op, err, "steps_from_row: %v", err)
		}
		if fromRow.Cast != "" {
			v = CastTo(v, fromRow.Cast)
		}
		i, ok := v.AsInt()
		if !ok {
			if f, ok2 := v.AsFloat(); ok2 {
				i = int64(f)
			} else {
				return 0, newOpError(idx, op, ErrTypeMismatch, "steps_from_row value is not numeric")
			}
		}
		return int(i), nil
	}
	return 0, newOpError(idx, op, ErrMissingField, "scan requires steps or steps_from_row")
}
