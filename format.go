package procedure

import (
	"context"
	"errors"
	"fmt"
)

// ErrorShape is the normalized form of every call failure returned by a
// Dispatcher.
type ErrorShape struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Error implements the error interface so a shape received from a transport
// can be returned as an error.
func (s ErrorShape) Error() string {
	return fmt.Sprintf("%s: %s", s.Code, s.Message)
}

// ErrorHook extends the data of an error shape for a deployment. It receives
// a copy of the shape built so far and the original failure, and returns keys
// to merge into Data. It cannot change Code or Message.
//
//	procedure.WithErrorHook(func(shape procedure.ErrorShape, err error) map[string]any {
//	    var verr validation.Errors
//	    if errors.As(err, &verr) {
//	        return map[string]any{"fields": verr}
//	    }
//	    return nil
//	})
type ErrorHook func(shape ErrorShape, err error) map[string]any

// ErrorFormatter maps failures to error shapes. The zero value applies no
// hooks.
type ErrorFormatter struct {
	hooks []ErrorHook
}

// NewErrorFormatter returns a formatter that applies hooks in order.
func NewErrorFormatter(hooks ...ErrorHook) *ErrorFormatter {
	f := &ErrorFormatter{}
	for _, h := range hooks {
		if h != nil {
			f.hooks = append(f.hooks, h)
		}
	}
	return f
}

// Format builds the shape for err raised by a call on path. The base data
// carries the code name, its JSON-RPC number, its HTTP status and the path.
// For a given err and set of hooks the result is always the same.
func (f *ErrorFormatter) Format(err error, path string) ErrorShape {
	perr := Classify(err)
	shape := ErrorShape{
		Code:    perr.Code,
		Message: perr.Message,
		Data: map[string]any{
			"code":       string(perr.Code),
			"rpcCode":    perr.Code.RPCCode(),
			"httpStatus": perr.Code.HTTPStatus(),
		},
	}
	if path != "" {
		shape.Data["path"] = path
	}
	if f == nil {
		return shape
	}
	for _, h := range f.hooks {
		patch := h(shape.clone(), err)
		for k, v := range patch {
			shape.Data[k] = v
		}
	}
	return shape
}

func (s ErrorShape) clone() ErrorShape {
	data := make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		data[k] = v
	}
	s.Data = data
	return s
}

// Classify returns the *Error describing err. It looks at the identity of the
// failure, never its text:
//
//   - an *Error anywhere in the chain of err is returned as is
//   - context.DeadlineExceeded is CodeTimeout
//   - context.Canceled is CodeClientClosedRequest
//   - anything else is CodeInternal
func Classify(err error) *Error {
	if err == nil {
		return NewError(CodeInternal, "unknown error")
	}
	var perr *Error
	if errors.As(err, &perr) {
		if perr.Code == "" {
			return &Error{Code: CodeInternal, Message: perr.Message, Cause: perr.Cause}
		}
		return perr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeTimeout, Message: err.Error(), Cause: err}
	case errors.Is(err, context.Canceled):
		return &Error{Code: CodeClientClosedRequest, Message: err.Error(), Cause: err}
	}
	return &Error{Code: CodeInternal, Message: err.Error(), Cause: err}
}
