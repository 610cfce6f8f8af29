package determin

import (
	"math/rand"
)

// opSlice implements half-open [offset, offset+length); negative
// offset is an error.
func opSlice(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		Offset int  `json:"offset"`
		Length *int `json:"length,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if args.Offset < 0 {
		return nil, newOpError(idx, step.Op, ErrOutOfRange, "negative offset %d", args.Offset)
	}
	start := args.Offset
	if start > df.Height() {
		start = df.Height()
	}
	end := df.Height()
	if args.Length != nil {
		end = start + *args.Length
		if end > df.Height() {
			end = df.Height()
		}
		if end < start {
			end = start
		}
	}
	rows := make([]int, 0, end-start)
	for r := start; r < end; r++ {
		rows = append(rows, r)
	}
	return df.selectRows(rows), nil
}

func opHead(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		N int `json:"n"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	n := args.N
	if n < 0 {
		n = 0
	}
	if n > df.Height() {
		n = df.Height()
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return df.selectRows(rows), nil
}

func opTail(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		N int `json:"n"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	n := args.N
	if n < 0 {
		n = 0
	}
	if n > df.Height() {
		n = df.Height()
	}
	start := df.Height() - n
	rows := make([]int, n)
	for i := range rows {
		rows[i] = start + i
	}
	return df.selectRows(rows), nil
}

// opSample implements the documented non-determinism of spec §4.3:
// when seed is absent the draw is non-deterministic and the caller
// (interpreter) must flag meta accordingly.
func opSample(ec *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		N               *int     `json:"n,omitempty"`
		Frac            *float64 `json:"frac,omitempty"`
		WithReplacement bool     `json:"with_replacement,omitempty"`
		Seed            *int64   `json:"seed,omitempty"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	n := 0
	switch {
	case args.N != nil:
		n = *args.N
	case args.Frac != nil:
		n = int(*args.Frac * float64(df.Height()))
	default:
		return nil, newOpError(idx, step.Op, ErrBadArgument, "sample requires n or frac")
	}
	if n < 0 {
		n = 0
	}
	var rng *rand.Rand
	if args.Seed != nil {
		rng = rand.New(rand.NewSource(*args.Seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	height := df.Height()
	var rows []int
	if args.WithReplacement {
		if height == 0 {
			n = 0
		}
		rows = make([]int, n)
		for i := range rows {
			rows[i] = rng.Intn(height)
		}
	} else {
		if n > height {
			n = height
		}
		perm := rng.Perm(height)
		rows = perm[:n]
	}
	return df.selectRows(rows), nil
}

// opTakeEvery keeps rows whose zero-based row index ≡ offset mod n.
func opTakeEvery(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		N      int `json:"n"`
		Offset int `json:"offset"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	if args.N < 1 {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "n must be >= 1, got %d", args.N)
	}
	var rows []int
	for r := 0; r < df.Height(); r++ {
		if ((r%args.N)+args.N)%args.N == ((args.Offset%args.N)+args.N)%args.N {
			rows = append(rows, r)
		}
	}
	return df.selectRows(rows), nil
}

// opAddRowNumber appends a new integer column starting at start.
func opAddRowNumber(_ *ExecutionContext, df *DataFrame, idx int, step Step) (*DataFrame, error) {
	var args struct {
		As    string `json:"as"`
		Start int64  `json:"start"`
	}
	if err := step.decode(&args); err != nil {
		return nil, newOpError(idx, step.Op, ErrBadArgument, "decode: %v", err)
	}
	height := df.Height()
	vals := make([]Value, height)
	for i := 0; i < height; i++ {
		vals[i] = Int(args.Start + int64(i))
	}
	return df.withColumn(args.As, vals), nil
}
