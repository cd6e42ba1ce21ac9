package engine

import (
	"context"
	"sync"
	"time"
)

// Notifier receives operation outcomes for surfacing to a user-facing
// channel (toast, log line, webhook). Implementations must be safe for
// concurrent use.
type Notifier interface {
	Success(ctx context.Context, operation, message string)
	Error(ctx context.Context, operation string, err error)
}

type noopNotifier struct{}

func (noopNotifier) Success(context.Context, string, string) {}
func (noopNotifier) Error(context.Context, string, error)    {}

// OperationState describes the runner's most recent activity.
type OperationState struct {
	Loading bool
	Err     error
	LastOp  string
}

// Runner executes engine operations, tracking loading state and routing
// outcomes to the configured notifier, metrics recorder and tracer. Errors
// never escape Run; callers observe failure through the returned ok flag.
type Runner struct {
	mu       sync.Mutex
	state    OperationState
	notifier Notifier
	metrics  MetricsRecorder
	tracer   Tracer
	logger   Logger
	nowFn    func() time.Time
}

// RunnerOption customises Runner construction.
type RunnerOption func(*Runner)

// WithRunnerNotifier routes operation outcomes to sink.
func WithRunnerNotifier(sink Notifier) RunnerOption {
	return func(r *Runner) {
		if sink != nil {
			r.notifier = sink
		}
	}
}

// WithRunnerMetrics records per-operation timings and results.
func WithRunnerMetrics(recorder MetricsRecorder) RunnerOption {
	return func(r *Runner) {
		if recorder != nil {
			r.metrics = recorder
		}
	}
}

// WithRunnerTracer wraps each operation in a trace span.
func WithRunnerTracer(tracer Tracer) RunnerOption {
	return func(r *Runner) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithRunnerLogger emits a structured log line per failed operation.
func WithRunnerLogger(logger Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner constructs a Runner with noop observability defaults.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		notifier: noopNotifier{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		logger:   noopLogger{},
		nowFn:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns a copy of the current operation state.
func (r *Runner) State() OperationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetNowFunc overrides the runner clock. Intended for tests.
func (r *Runner) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r.mu.Lock()
	r.nowFn = now
	r.mu.Unlock()
}

func (r *Runner) begin(operation string) func() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = OperationState{Loading: true, LastOp: operation}
	return r.nowFn
}

func (r *Runner) finish(operation string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = OperationState{Loading: false, Err: err, LastOp: operation}
}

// Run executes fn under the runner's bookkeeping. The success value of fn is
// returned as-is; any error is absorbed, notified, and reported as the zero
// value with ok=false.
func Run[T any](ctx context.Context, r *Runner, operation, successMsg string, fn func(ctx context.Context) (T, error)) (T, bool) {
	now := r.begin(operation)
	started := now()

	spanCtx, span := r.tracer.Start(ctx, operation)
	value, err := fn(spanCtx)
	span.End(err)

	r.metrics.Observe(ctx, operation, err == nil, now().Sub(started))
	r.finish(operation, err)

	if err != nil {
		r.logger.Error(ctx, "operation failed", "operation", operation, "error", err)
		r.notifier.Error(ctx, operation, err)
		var zero T
		return zero, false
	}
	if successMsg != "" {
		r.notifier.Success(ctx, operation, successMsg)
	}
	return value, true
}
