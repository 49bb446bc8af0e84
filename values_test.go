package procedure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues(t *testing.T) {
	t.Run("merge overlays patch", func(t *testing.T) {
		base := Values{"a": 1, "b": 2}
		got := base.Merge(Values{"b": 3, "c": 4})

		assert.Equal(t, Values{"a": 1, "b": 3, "c": 4}, got)
		assert.Equal(t, Values{"a": 1, "b": 2}, base)
	})

	t.Run("merge with empty patch", func(t *testing.T) {
		base := Values{"a": 1}
		assert.Equal(t, base, base.Merge(nil))
		assert.Equal(t, base, base.Merge(Values{}))
	})

	t.Run("accessors", func(t *testing.T) {
		v := Values{"user": "KATT", "n": 1}

		x, ok := v.Get("n")
		assert.True(t, ok)
		assert.Equal(t, 1, x)
		assert.Equal(t, "KATT", v.String("user"))
		assert.Equal(t, "", v.String("n"))
		assert.True(t, v.Has("user", "n"))
		assert.False(t, v.Has("user", "missing"))
	})
}

func TestValueOf(t *testing.T) {
	v := Values{"user": "KATT"}

	got, err := ValueOf[string](v, "user")
	require.NoError(t, err)
	assert.Equal(t, "KATT", got)

	_, err = ValueOf[string](v, "missing")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, CodeInternal, perr.Code)
	assert.Contains(t, perr.Message, `"missing"`)

	_, err = ValueOf[int](v, "user")
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, `context value "user" has type string, want int`, perr.Message)
}

func TestDeclare(t *testing.T) {
	auth := Declare(func(ctx context.Context, req Request, next Next) (any, error) {
		return next(Values{"user": "KATT"})
	}, "user", "session")
	leaky := Declare(func(ctx context.Context, req Request, next Next) (any, error) {
		return next(Values{"user": "KATT", "zeta": 1, "admin": true})
	}, "user")

	t.Run("declared keys pass", func(t *testing.T) {
		out, err := Execute(context.Background(), Request{}, []Middleware{auth}, echoValues)
		require.NoError(t, err)
		assert.Equal(t, Values{"user": "KATT"}, out)
	})

	t.Run("undeclared key fails", func(t *testing.T) {
		called := false
		_, err := Execute(context.Background(), Request{}, []Middleware{leaky}, func(ctx context.Context, req Request) (any, error) {
			called = true
			return nil, nil
		})

		var perr *Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, CodeMiddlewareMisuse, perr.Code)
		assert.Equal(t, `middleware added undeclared context key "admin"`, perr.Message)
		assert.False(t, called)
	})

	t.Run("swallowed violation still fails the call", func(t *testing.T) {
		var inner error
		swallow := Declare(func(ctx context.Context, req Request, next Next) (any, error) {
			_, inner = next(Values{"admin": true})
			return "recovered", nil
		}, "user")
		called := false

		out, err := Execute(context.Background(), Request{}, []Middleware{swallow}, func(ctx context.Context, req Request) (any, error) {
			called = true
			return nil, nil
		})

		require.Error(t, inner)
		assert.Nil(t, out)
		var perr *Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, CodeMiddlewareMisuse, perr.Code)
		assert.Equal(t, `middleware added undeclared context key "admin"`, perr.Message)
		assert.Same(t, inner, error(perr))
		assert.False(t, called)
	})

	t.Run("outside an executor the error is returned", func(t *testing.T) {
		_, err := leaky(context.Background(), Request{}, func(Values) (any, error) {
			t.Fatal("next must not run")
			return nil, nil
		})

		var perr *Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, CodeMiddlewareMisuse, perr.Code)
	})
}

func TestKind(t *testing.T) {
	for _, k := range []Kind{KindQuery, KindMutation, KindSubscription} {
		t.Run(k.String(), func(t *testing.T) {
			text, err := k.MarshalText()
			require.NoError(t, err)

			var back Kind
			require.NoError(t, back.UnmarshalText(text))
			assert.Equal(t, k, back)
		})
	}

	assert.False(t, Kind(0).Valid())
	assert.Equal(t, "Kind(9)", Kind(9).String())

	_, err := Kind(0).MarshalText()
	assert.Error(t, err)

	_, err = ParseKind("QUERY")
	assert.Error(t, err)
}
