package procedure

import (
	"errors"
	"fmt"
)

// Code is the symbolic kind of a call failure.
type Code string

const (
	// CodeNotFound means no procedure of the requested kind exists at the path.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInputValidation means the procedure's validator rejected the input.
	CodeInputValidation Code = "INPUT_VALIDATION_ERROR"

	// CodeMiddlewareMisuse means a middleware broke the single-advance
	// contract, or patched keys it did not declare.
	CodeMiddlewareMisuse Code = "MIDDLEWARE_MISUSE"

	// CodeInternal is every failure that does not classify as something else.
	CodeInternal Code = "INTERNAL_SERVER_ERROR"

	// The codes below are never produced by the core itself. Handlers and
	// middleware return them through *Error, and transports use them for
	// failures outside the dispatcher.

	CodeParseError          Code = "PARSE_ERROR"
	CodeBadRequest          Code = "BAD_REQUEST"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeMethodNotSupported  Code = "METHOD_NOT_SUPPORTED"
	CodeTimeout             Code = "TIMEOUT"
	CodeConflict            Code = "CONFLICT"
	CodeTooManyRequests     Code = "TOO_MANY_REQUESTS"
	CodeClientClosedRequest Code = "CLIENT_CLOSED_REQUEST"
)

type codeInfo struct {
	rpc  int // JSON-RPC 2.0 error number
	http int // HTTP status
}

var codeTable = map[Code]codeInfo{
	CodeParseError:          {-32700, 400},
	CodeBadRequest:          {-32600, 400},
	CodeInputValidation:     {-32600, 400},
	CodeInternal:            {-32603, 500},
	CodeMiddlewareMisuse:    {-32603, 500},
	CodeUnauthorized:        {-32001, 401},
	CodeForbidden:           {-32003, 403},
	CodeNotFound:            {-32004, 404},
	CodeMethodNotSupported:  {-32005, 405},
	CodeTimeout:             {-32008, 408},
	CodeConflict:            {-32009, 409},
	CodeTooManyRequests:     {-32029, 429},
	CodeClientClosedRequest: {-32099, 499},
}

// RPCCode returns the JSON-RPC 2.0 error number for c. Unknown codes map to
// the internal error number.
func (c Code) RPCCode() int {
	if info, ok := codeTable[c]; ok {
		return info.rpc
	}
	return codeTable[CodeInternal].rpc
}

// HTTPStatus returns the HTTP status for c. Unknown codes map to 500.
func (c Code) HTTPStatus() int {
	if info, ok := codeTable[c]; ok {
		return info.http
	}
	return 500
}

// Error is a call failure carrying a code. Middleware and handlers return an
// *Error to choose the code reported to the caller; any other error is
// reported as CodeInternal.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// NewError returns an *Error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf returns an *Error with the given code and a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError returns an *Error with the given code whose message and cause
// come from err.
func WrapError(code Code, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Cause: err}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Construction errors. These abort setup and never reach a caller.
var (
	// ErrDuplicatePath is matched (via errors.Is) by every *DuplicatePathError.
	ErrDuplicatePath = errors.New("duplicate procedure path")

	// ErrIncompleteProcedure is reported for a procedure without a handler or
	// with an invalid kind.
	ErrIncompleteProcedure = errors.New("incomplete procedure")

	// ErrInvalidName is reported for an empty entry name or a nil entry.
	ErrInvalidName = errors.New("invalid router entry")
)

// DuplicatePathError reports two entries that resolve to the same full path.
type DuplicatePathError struct {
	Path string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("duplicate procedure path %q", e.Path)
}

// Is reports whether target is ErrDuplicatePath.
func (e *DuplicatePathError) Is(target error) bool { return target == ErrDuplicatePath }

// ErrNoProcedure is the cause of the NOT_FOUND error a Dispatcher reports
// when no procedure of the requested kind exists at the path. A handler that
// returns NOT_FOUND itself does not match it.
var ErrNoProcedure = errors.New("no such procedure")

func notFound(path string, kind Kind) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("No %q-procedure on path %q", kind.String(), path),
		Cause:   ErrNoProcedure,
	}
}

var errNextTwice = &Error{
	Code:    CodeMiddlewareMisuse,
	Message: "next() called multiple times",
}
