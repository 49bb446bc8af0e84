// Package procedure provides a dispatch layer for named, nested procedures.
//
// Callers invoke procedures by dotted path and kind (query, mutation or
// subscription). The package resolves the path against a tree of routers,
// runs the procedure's middleware chain and its handler, and normalizes the
// outcome into a Result carrying either the handler's value or an ErrorShape.
// Transports (HTTP, NATS, in-process) sit on top of the Dispatcher and are
// not part of this package.
//
// # Quick Start
//
// Define procedures and group them into a router:
//
//	hello := procedure.Query().Handle(func(ctx context.Context, req procedure.Request) (any, error) {
//	    return "world", nil
//	})
//
//	router := procedure.MustRouter(procedure.Routes{
//	    "hello": hello,
//	})
//
// Dispatch calls against it:
//
//	d := procedure.NewDispatcher(router)
//	res := d.Invoke(ctx, "hello", procedure.KindQuery, nil, nil)
//	// res.Data == "world"
//
// # Design Philosophy
//
// The package separates concerns into four parts:
//
//   - Routers: immutable trees of named procedures, flattened and checked once
//   - Chains: the middleware of one procedure, run in order for every call
//   - Dispatcher: resolves a call, runs its chain, normalizes the outcome
//   - Error formatting: maps every failure to a stable ErrorShape
//
// Everything is built before the first call. After that nothing changes, so
// the Dispatcher needs no locks.
//
// # Routers
//
// A Router maps names to entries. An entry is either a *Procedure or a nested
// *Router:
//
//	users := procedure.MustRouter(procedure.Routes{
//	    "get":    getUser,
//	    "create": createUser,
//	})
//
//	router := procedure.MustRouter(procedure.Routes{
//	    "health": health,
//	    "users":  users, // reachable as "users.get" and "users.create"
//	})
//
// Merge combines routers side by side:
//
//	app, err := procedure.Merge(publicRouter, adminRouter)
//
// A name defined by more than one operand is an error, never an overwrite.
// So is any pair of entries that resolves to the same full path. Both are
// reported as *DuplicatePathError at construction; a router that exists has
// no collisions. MustRouter and MustMerge panic instead, for routers built at
// startup.
//
// # Middleware
//
// A middleware receives the request and a continuation:
//
//	func auth(ctx context.Context, req procedure.Request, next procedure.Next) (any, error) {
//	    user, err := lookup(req.Values.String("token"))
//	    if err != nil {
//	        return nil, procedure.NewError(procedure.CodeUnauthorized, "bad token")
//	    }
//	    return next(procedure.Values{"user": user})
//	}
//
// Calling next runs the rest of the chain. A patch given to next is merged
// over the current Values for everything downstream; the caller's own Values
// never change. A middleware that returns without calling next ends the call
// with its own return value. Calling next twice fails the call with
// MIDDLEWARE_MISUSE and does not run the rest of the chain again.
//
// Chains are built with a Builder, which never changes in place:
//
//	authed := procedure.Query().Use(auth)
//	me := authed.Handle(getMe)
//
// # Input Validation
//
// Builder.Input adds a validator to the chain at that position:
//
//	procedure.Mutation().
//	    Input(procedure.Guard(procedure.HasFields("name"))).
//	    Input(procedure.JSON[CreateUser]()).
//	    Handle(createUser)
//
// JSON decodes the input into a type and runs its Validate method if it has
// one. Guard checks the raw JSON with gjson-backed discriminators (HasFields,
// FieldEquals, FieldIn, FieldFunc, And, Or, Not) without decoding it and
// passes it on as Fields, which later links read by path and JSON decodes
// directly. A validator failure is reported as INPUT_VALIDATION_ERROR.
//
// # Context Contract
//
// Values are untyped. Declare wraps a middleware with the keys it may add and
// rejects any other key; ValueOf reads a key as a given type and fails the call
// when it is missing. Mistakes that a type checker would catch elsewhere are
// reported at call time as MIDDLEWARE_MISUSE or INTERNAL_SERVER_ERROR.
//
// # Errors
//
// Handlers and middleware may return any error. To choose the code the caller
// sees, return an *Error:
//
//	return nil, procedure.Errorf(procedure.CodeForbidden, "user %s may not do that", id)
//
// Other errors are classified by identity: context.DeadlineExceeded is
// TIMEOUT, context.Canceled is CLIENT_CLOSED_REQUEST, anything else is
// INTERNAL_SERVER_ERROR. Panics are recovered and reported as
// INTERNAL_SERVER_ERROR.
//
// The shape's Data always carries the code name, its JSON-RPC number, its
// HTTP status and the path. Deployments add their own keys with
// WithErrorHook; a hook cannot change Code or Message.
//
// # Hooks
//
// Hooks provide observability without coupling to a logging or metrics
// system:
//
//	d := procedure.NewDispatcher(router,
//	    procedure.WithOnSuccess(func(ctx context.Context, path string, kind procedure.Kind, d time.Duration) {
//	        metrics.Timing("procedure.success", d, "path:"+path)
//	    }),
//	    procedure.WithOnFailure(func(ctx context.Context, path string, kind procedure.Kind, shape procedure.ErrorShape, err error, d time.Duration) {
//	        metrics.Incr("procedure.failure", "code:"+string(shape.Code))
//	    }),
//	)
//
// Available hooks:
//   - WithOnDispatch: called just before a resolved procedure runs
//   - WithOnSuccess: called after a call succeeds
//   - WithOnFailure: called after any call fails
//   - WithOnNotFound: called when a call does not resolve
//
// Multiple hooks of the same type are called in order.
//
// # Thread Safety
//
// Routers, Tables, Procedures and Dispatchers are immutable after
// construction and safe for concurrent use. Each call gets its own chain
// state; nothing is shared between calls.
package procedure
