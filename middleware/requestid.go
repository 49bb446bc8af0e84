package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/bjaus/procedure"
)

// KeyRequestID is the context key RequestID stores the call ID under.
const KeyRequestID = "requestId"

// RequestID returns a middleware that adds a request ID to the context. A
// non-empty ID already present in the base values (for example one taken
// from a transport header) is kept.
func RequestID() procedure.Middleware {
	return procedure.Declare(func(ctx context.Context, req procedure.Request, next procedure.Next) (any, error) {
		if req.Values.String(KeyRequestID) != "" {
			return next(nil)
		}
		return next(procedure.Values{KeyRequestID: uuid.Must(uuid.NewV7()).String()})
	}, KeyRequestID)
}
