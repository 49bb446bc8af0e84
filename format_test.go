package procedure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	forbidden := NewError(CodeForbidden, "no")

	tests := []struct {
		name    string
		err     error
		code    Code
		message string
	}{
		{"nil", nil, CodeInternal, "unknown error"},
		{"coded error", forbidden, CodeForbidden, "no"},
		{"wrapped coded error", fmt.Errorf("load: %w", forbidden), CodeForbidden, "no"},
		{"empty code", &Error{Message: "blank"}, CodeInternal, "blank"},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), CodeTimeout, "query: context deadline exceeded"},
		{"canceled", context.Canceled, CodeClientClosedRequest, "context canceled"},
		{"plain", errors.New("boom"), CodeInternal, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.message, got.Message)
		})
	}

	t.Run("keeps the cause", func(t *testing.T) {
		cause := errors.New("boom")
		assert.ErrorIs(t, Classify(cause), cause)
	})

	t.Run("coded error returned as is", func(t *testing.T) {
		assert.Same(t, forbidden, Classify(forbidden))
	})
}

func TestErrorFormatter(t *testing.T) {
	t.Run("base data", func(t *testing.T) {
		got := NewErrorFormatter().Format(NewError(CodeTooManyRequests, "slow down"), "greeting")

		want := ErrorShape{
			Code:    CodeTooManyRequests,
			Message: "slow down",
			Data: map[string]any{
				"code":       "TOO_MANY_REQUESTS",
				"rpcCode":    -32029,
				"httpStatus": 429,
				"path":       "greeting",
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Format() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no path", func(t *testing.T) {
		got := NewErrorFormatter().Format(errors.New("x"), "")
		assert.NotContains(t, got.Data, "path")
	})

	t.Run("nil formatter", func(t *testing.T) {
		var f *ErrorFormatter
		got := f.Format(errors.New("x"), "p")
		assert.Equal(t, CodeInternal, got.Code)
	})

	t.Run("hooks in order", func(t *testing.T) {
		var seen []string
		f := NewErrorFormatter(
			func(shape ErrorShape, err error) map[string]any {
				seen = append(seen, "first")
				return map[string]any{"foo": "bar", "n": 1}
			},
			nil,
			func(shape ErrorShape, err error) map[string]any {
				seen = append(seen, "second")
				assert.Equal(t, "bar", shape.Data["foo"])
				return map[string]any{"n": 2}
			},
		)

		got := f.Format(errors.New("x"), "p")

		assert.Equal(t, []string{"first", "second"}, seen)
		assert.Equal(t, "bar", got.Data["foo"])
		assert.Equal(t, 2, got.Data["n"])
	})

	t.Run("hooks cannot change code or message", func(t *testing.T) {
		f := NewErrorFormatter(func(shape ErrorShape, err error) map[string]any {
			shape.Code = CodeForbidden
			shape.Message = "changed"
			shape.Data["code"] = "scribbled"
			return nil
		})

		got := f.Format(NewError(CodeConflict, "taken"), "p")

		assert.Equal(t, CodeConflict, got.Code)
		assert.Equal(t, "taken", got.Message)
		assert.Equal(t, "CONFLICT", got.Data["code"])
	})

	t.Run("hook sees original error", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		var got error
		f := NewErrorFormatter(func(shape ErrorShape, err error) map[string]any {
			got = err
			return nil
		})

		f.Format(fmt.Errorf("wrap: %w", sentinel), "p")

		require.Error(t, got)
		assert.ErrorIs(t, got, sentinel)
	})

	t.Run("deterministic", func(t *testing.T) {
		f := NewErrorFormatter()
		err := NewError(CodeBadRequest, "bad")
		assert.Equal(t, f.Format(err, "p"), f.Format(err, "p"))
	})
}

func TestCodeMappings(t *testing.T) {
	tests := []struct {
		code Code
		rpc  int
		http int
	}{
		{CodeParseError, -32700, 400},
		{CodeBadRequest, -32600, 400},
		{CodeInputValidation, -32600, 400},
		{CodeInternal, -32603, 500},
		{CodeMiddlewareMisuse, -32603, 500},
		{CodeUnauthorized, -32001, 401},
		{CodeForbidden, -32003, 403},
		{CodeNotFound, -32004, 404},
		{CodeMethodNotSupported, -32005, 405},
		{CodeTimeout, -32008, 408},
		{CodeConflict, -32009, 409},
		{CodeTooManyRequests, -32029, 429},
		{CodeClientClosedRequest, -32099, 499},
		{Code("SOMETHING_ELSE"), -32603, 500},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.rpc, tt.code.RPCCode())
			assert.Equal(t, tt.http, tt.code.HTTPStatus())
		})
	}
}

func TestError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(CodeInternal, cause)

	assert.Equal(t, "INTERNAL_SERVER_ERROR: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "NOT_FOUND", NewError(CodeNotFound, "").Error())
	assert.Equal(t, "CONFLICT: id 7 taken", Errorf(CodeConflict, "id %d taken", 7).Error())
	assert.Equal(t, "FORBIDDEN: nope", ErrorShape{Code: CodeForbidden, Message: "nope"}.Error())
}
