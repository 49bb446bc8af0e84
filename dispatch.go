package procedure

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Call is one invocation as received from a transport.
type Call struct {
	// Path is the full dotted path of the procedure.
	Path string

	// Kind is the kind the caller invokes the procedure as.
	Kind Kind

	// Input is the raw input. Transports typically pass json.RawMessage.
	Input any

	// Values is the base context for the call. It is copied, never changed.
	Values Values
}

// Result is the outcome of a call: exactly one of Data and Error is
// meaningful. Error is nil on success.
type Result struct {
	Data  any         `json:"data,omitempty"`
	Error *ErrorShape `json:"error,omitempty"`
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Error == nil }

// Err returns the error shape as an error, or nil on success.
func (r Result) Err() error {
	if r.Error == nil {
		return nil
	}
	return *r.Error
}

// Dispatcher resolves calls against the table of a router and runs them.
//
// A Dispatcher holds no per-call state and is safe for concurrent use.
// Configure it with options at construction; it cannot be changed after.
type Dispatcher struct {
	table     *Table
	hooks     hooks
	formatter ErrorFormatter
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher serving the procedures of r.
//
// Example:
//
//	d := procedure.NewDispatcher(router,
//	    procedure.WithLogger(slog.Default()),
//	    procedure.WithErrorHook(func(shape procedure.ErrorShape, err error) map[string]any {
//	        return map[string]any{"service": "billing"}
//	    }),
//	)
func NewDispatcher(r *Router, opts ...Option) *Dispatcher {
	d := &Dispatcher{table: r.Table()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Table returns the table the dispatcher serves.
func (d *Dispatcher) Table() *Table { return d.table }

// FormatError builds the error shape for a failure that happened outside a
// call, such as a transport failing to parse a request. The dispatcher's
// error hooks apply.
func (d *Dispatcher) FormatError(err error, path string) ErrorShape {
	return d.formatter.Format(err, path)
}

// Invoke is Dispatch with the call spelled out.
func (d *Dispatcher) Invoke(ctx context.Context, path string, kind Kind, input any, values Values) Result {
	return d.Dispatch(ctx, Call{Path: path, Kind: kind, Input: input, Values: values})
}

// Dispatch runs one call and returns its normalized result.
//
// The processing flow:
//  1. Look up the path; a missing path or a procedure of another kind is
//     NOT_FOUND, and the two cases are indistinguishable to the caller
//  2. Run the procedure's chain and then its handler
//  3. Wrap the handler's return value, or format the failure
//
// Dispatch never panics because of a middleware or handler: a panic is
// reported as INTERNAL_SERVER_ERROR. Every failure goes through the error
// formatter.
func (d *Dispatcher) Dispatch(ctx context.Context, c Call) Result {
	p, ok := d.table.Lookup(c.Path)
	if !ok || p.kind != c.Kind {
		d.callOnNotFound(ctx, c.Path, c.Kind)
		return d.fail(ctx, c, notFound(c.Path, c.Kind), 0)
	}

	d.callOnDispatch(ctx, c.Path, c.Kind)

	start := time.Now()
	out, err := d.execute(ctx, p, c)
	duration := time.Since(start)

	if err != nil {
		return d.fail(ctx, c, err, duration)
	}
	d.callOnSuccess(ctx, c.Path, c.Kind, duration)
	return Result{Data: out}
}

func (d *Dispatcher) execute(ctx context.Context, p *Procedure, c Call) (out any, err error) {
	defer func() {
		if v := recover(); v != nil {
			out = nil
			err = &Error{
				Code:    CodeInternal,
				Message: fmt.Sprintf("panic: %v", v),
				Cause:   panicError{value: v},
			}
		}
	}()

	e := &executor{
		ctx:     ctx,
		path:    c.Path,
		kind:    p.kind,
		meta:    p.meta,
		steps:   p.chain,
		handler: p.handler,
	}
	return e.start(c.Values, c.Input)
}

func (d *Dispatcher) fail(ctx context.Context, c Call, err error, duration time.Duration) Result {
	shape := d.formatter.Format(err, c.Path)
	d.callOnFailure(ctx, c.Path, c.Kind, shape, err, duration)
	if d.logger != nil {
		level := slog.LevelWarn
		if shape.Code == CodeInternal || shape.Code == CodeMiddlewareMisuse {
			level = slog.LevelError
		}
		d.logger.LogAttrs(ctx, level, "procedure call failed",
			slog.String("path", c.Path),
			slog.String("kind", c.Kind.String()),
			slog.String("code", string(shape.Code)),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
	}
	return Result{Error: &shape}
}

// panicError carries a value recovered from a panicking middleware or
// handler.
type panicError struct {
	value any
}

func (e panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }
