package procedure

import (
	"context"
	"errors"
	"sync/atomic"
)

// executor runs a single call through a chain. Each call gets its own
// executor; nothing in it is shared with other calls.
type executor struct {
	ctx     context.Context
	path    string
	kind    Kind
	meta    Meta
	steps   []step
	handler Handler

	// misuse records the first contract violation seen during the call. It
	// fails the call even if the offending middleware swallowed the error.
	misuse atomic.Pointer[Error]
}

// Execute runs chain in order followed by h, starting from the Values and
// Input in req. It is the executor the Dispatcher uses, exposed for running a
// chain without a router.
//
// Within one call, next in link N does not return until link N+1 and
// everything after it, including h, have returned.
func Execute(ctx context.Context, req Request, chain []Middleware, h Handler) (any, error) {
	steps := make([]step, 0, len(chain))
	for _, mw := range chain {
		if mw != nil {
			steps = append(steps, step{mw: mw})
		}
	}
	e := &executor{
		ctx:     ctx,
		path:    req.Path,
		kind:    req.Kind,
		meta:    req.Meta,
		steps:   steps,
		handler: h,
	}
	return e.start(req.Values, req.Input)
}

func (e *executor) start(values Values, input any) (any, error) {
	if e.handler == nil {
		return nil, NewError(CodeInternal, "procedure has no handler")
	}
	out, err := e.run(0, values.clone(), input)
	if m := e.misuse.Load(); m != nil {
		return nil, m
	}
	return out, err
}

func (e *executor) request(values Values, input any) Request {
	return Request{
		Path:   e.path,
		Kind:   e.kind,
		Input:  input,
		Values: values,
		Meta:   e.meta,
		misuse: e.recordMisuse,
	}
}

func (e *executor) recordMisuse(m *Error) {
	e.misuse.CompareAndSwap(nil, m)
}

func (e *executor) run(i int, values Values, input any) (any, error) {
	if i == len(e.steps) {
		return e.handler(e.ctx, e.request(values, input))
	}

	s := e.steps[i]
	if s.parse != nil {
		parsed, err := s.parse.Validate(input)
		if err != nil {
			return nil, inputError(err)
		}
		return e.run(i+1, values, parsed)
	}

	req := e.request(values, input)
	var used atomic.Bool
	next := func(patch Values) (any, error) {
		if !used.CompareAndSwap(false, true) {
			return nil, req.reportMisuse(&Error{Code: errNextTwice.Code, Message: errNextTwice.Message})
		}
		return e.run(i+1, values.Merge(patch), input)
	}
	return s.mw(e.ctx, req, next)
}

func inputError(err error) *Error {
	var perr *Error
	if errors.As(err, &perr) && perr.Code == CodeInputValidation {
		return perr
	}
	return &Error{Code: CodeInputValidation, Message: err.Error(), Cause: err}
}
