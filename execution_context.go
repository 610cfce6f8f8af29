package determin

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultMaxScanSteps  = 100_000
	defaultExprDepthLimit = 64
)

// ExecutionContext is a read-only configuration snapshot threaded
// through Execute, mirroring the teacher's functional-options
// Processor/Option pattern. It carries no mutable state after
// construction: per spec §9's design note, it is the only process-wide
// state the core permits, and its lifecycle is host-controlled.
type ExecutionContext struct {
	logger         zerolog.Logger
	clock          func() time.Time
	maxScanSteps   int
	exprDepthLimit int
}

// ExecutionOption configures an ExecutionContext at construction time.
type ExecutionOption func(*ExecutionContext)

// WithLogger attaches a structured logger. Step-level and run-level
// diagnostic events are emitted through it; logging never affects
// control flow or output (it is observational only).
func WithLogger(logger zerolog.Logger) ExecutionOption {
	return func(ec *ExecutionContext) { ec.logger = logger }
}

// WithClock injects a deterministic clock for today()/now(), making
// tests that exercise those expression built-ins reproducible. The
// zero value uses time.Now.
func WithClock(clock func() time.Time) ExecutionOption {
	return func(ec *ExecutionContext) { ec.clock = clock }
}

// WithMaxScanSteps lowers the scan step ceiling below the spec's
// absolute maximum of 100,000 (§5); it can never raise it above that.
func WithMaxScanSteps(n int) ExecutionOption {
	return func(ec *ExecutionContext) {
		if n >= 0 && n < defaultMaxScanSteps {
			ec.maxScanSteps = n
		}
	}
}

// WithExprDepthLimit overrides the expression recursion-depth guard
// (default 64, per spec §5's SHOULD).
func WithExprDepthLimit(n int) ExecutionOption {
	return func(ec *ExecutionContext) {
		if n > 0 {
			ec.exprDepthLimit = n
		}
	}
}

// NewExecutionContext builds an ExecutionContext. With no options, it
// logs nothing (a disabled logger, so the hot path allocates nothing),
// uses time.Now for today()/now(), and applies the spec's default
// resource bounds.
func NewExecutionContext(opts ...ExecutionOption) *ExecutionContext {
	ec := &ExecutionContext{
		logger:         zerolog.Nop(),
		clock:          time.Now,
		maxScanSteps:   defaultMaxScanSteps,
		exprDepthLimit: defaultExprDepthLimit,
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// Logger returns the configured logger (zerolog.Nop() if unset).
func (ec *ExecutionContext) Logger() *zerolog.Logger { return &ec.logger }

func (ec *ExecutionContext) now() time.Time { return ec.clock() }
