package procedure

import (
	"context"
	"log/slog"
	"time"
)

// OnDispatchFunc is called after the procedure has been resolved, just before
// its chain runs.
type OnDispatchFunc func(ctx context.Context, path string, kind Kind)

// OnSuccessFunc is called after a call completes successfully.
type OnSuccessFunc func(ctx context.Context, path string, kind Kind, duration time.Duration)

// OnFailureFunc is called after a call fails, with the shape returned to the
// caller and the failure it was built from. It is called for every failure,
// including unresolved paths.
type OnFailureFunc func(ctx context.Context, path string, kind Kind, shape ErrorShape, err error, duration time.Duration)

// OnNotFoundFunc is called when no procedure of the requested kind exists at
// the path, before OnFailure.
type OnNotFoundFunc func(ctx context.Context, path string, kind Kind)

// hooks holds all configured hook functions.
type hooks struct {
	onDispatch []OnDispatchFunc
	onSuccess  []OnSuccessFunc
	onFailure  []OnFailureFunc
	onNotFound []OnNotFoundFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithOnDispatch adds a hook called just before a resolved procedure runs.
// Multiple hooks are called in order.
//
// Example:
//
//	procedure.WithOnDispatch(func(ctx context.Context, path string, kind procedure.Kind) {
//	    logger.DebugContext(ctx, "dispatching", "path", path, "kind", kind)
//	})
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onDispatch = append(d.hooks.onDispatch, fn)
	}
}

// WithOnSuccess adds a hook called after a call completes successfully.
// Multiple hooks are called in order.
//
// Example:
//
//	procedure.WithOnSuccess(func(ctx context.Context, path string, kind procedure.Kind, d time.Duration) {
//	    metrics.Timing("procedure.success", d, "path:"+path)
//	})
func WithOnSuccess(fn OnSuccessFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onSuccess = append(d.hooks.onSuccess, fn)
	}
}

// WithOnFailure adds a hook called after a call fails.
// Multiple hooks are called in order.
//
// Example:
//
//	procedure.WithOnFailure(func(ctx context.Context, path string, kind procedure.Kind, shape procedure.ErrorShape, err error, d time.Duration) {
//	    metrics.Incr("procedure.failure", "code:"+string(shape.Code))
//	})
func WithOnFailure(fn OnFailureFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onFailure = append(d.hooks.onFailure, fn)
	}
}

// WithOnNotFound adds a hook called when a call does not resolve.
// Multiple hooks are called in order.
func WithOnNotFound(fn OnNotFoundFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onNotFound = append(d.hooks.onNotFound, fn)
	}
}

// WithErrorHook adds a hook that extends the data of every error shape.
// Multiple hooks are applied in order; later hooks see the data added by
// earlier ones.
func WithErrorHook(fn ErrorHook) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.formatter.hooks = append(d.formatter.hooks, fn)
		}
	}
}

// WithLogger logs failed calls to l: internal failures at Error level and
// everything else at Warn.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

func (d *Dispatcher) callOnDispatch(ctx context.Context, path string, kind Kind) {
	for _, fn := range d.hooks.onDispatch {
		fn(ctx, path, kind)
	}
}

func (d *Dispatcher) callOnSuccess(ctx context.Context, path string, kind Kind, duration time.Duration) {
	for _, fn := range d.hooks.onSuccess {
		fn(ctx, path, kind, duration)
	}
}

func (d *Dispatcher) callOnFailure(ctx context.Context, path string, kind Kind, shape ErrorShape, err error, duration time.Duration) {
	for _, fn := range d.hooks.onFailure {
		fn(ctx, path, kind, shape, err, duration)
	}
}

func (d *Dispatcher) callOnNotFound(ctx context.Context, path string, kind Kind) {
	for _, fn := range d.hooks.onNotFound {
		fn(ctx, path, kind)
	}
}
