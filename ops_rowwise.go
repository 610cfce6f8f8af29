package determin

// opFilterExpr evaluates expr per row in environment {row_index,
// ...columns...}; keeps rows where the result is truthy.
func opFilterExpr(ec *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Expr string `json:"expr"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	var rows []int
	for r := 0; r < df.Height(); r++ {
		env := rowEnv(df, r)
		v, err := evalExpression(ec, env, args.Expr)
		if err != nil {
			return nil, newExprError(idx, args.Expr, err, "%v", err)
		}
		if v.Truthy() {
			rows = append(rows, r)
		}
	}
	return df.selectRows(rows), nil
}

// opComputeExpr evaluates expr per row and assigns the result to
// column as, overwriting if present.
func opComputeExpr(ec *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Expr string `json:"expr"`
		As   string `json:"as"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	height := df.Height()
	out := make([]Value, height)
	for r := 0; r < height; r++ {
		env := rowEnv(df, r)
		v, err := evalExpression(ec, env, args.Expr)
		if err != nil {
			return nil, newExprError(idx, args.Expr, err, "%v", err)
		}
		out[r] = v
	}
	return df.withColumn(args.As, out), nil
}

// rowEnv builds the expression environment for row r: every column
// plus the injected row_index (spec §4.2).
func rowEnv(df *DataFrame, r int) evalEnv {
	env := make(evalEnv, len(df.Columns())+1)
	for _, c := range df.Columns() {
		col, _ := df.Column(c)
		env[c] = col[r]
	}
	env["row_index"] = Int(int64(r))
	return env
}
