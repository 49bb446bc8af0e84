package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/bjaus/procedure"
)

// Logger returns a middleware that logs every call passing through it at
// Debug level, and failures at Warn. The request ID is included when
// RequestID ran earlier in the chain.
func Logger(l *slog.Logger) procedure.Middleware {
	if l == nil {
		l = slog.Default()
	}
	return func(ctx context.Context, req procedure.Request, next procedure.Next) (any, error) {
		attrs := []slog.Attr{
			slog.String("path", req.Path),
			slog.String("kind", req.Kind.String()),
		}
		if id := req.Values.String(KeyRequestID); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}

		start := time.Now()
		out, err := next(nil)
		attrs = append(attrs, slog.Duration("duration", time.Since(start)))

		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			l.LogAttrs(ctx, slog.LevelWarn, "procedure failed", attrs...)
			return out, err
		}
		l.LogAttrs(ctx, slog.LevelDebug, "procedure done", attrs...)
		return out, nil
	}
}
