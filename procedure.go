package procedure

import "context"

// Request is what a middleware or handler sees of the call in progress.
type Request struct {
	// Path is the full dotted path the call resolved to.
	Path string

	// Kind is the kind the procedure was invoked as.
	Kind Kind

	// Input is the call input. Before any validator has run it is the raw
	// input supplied by the transport; after a validator step it is that
	// validator's result.
	Input any

	// Values is the accumulated context for this link.
	Values Values

	// Meta is the metadata declared on the procedure.
	Meta Meta

	// misuse records a contract violation against the running call. It is
	// nil for a Request that did not come from an executor.
	misuse func(*Error)
}

// reportMisuse fails the call req belongs to with m, whatever the reporting
// middleware then returns, and hands m back for returning.
func (req Request) reportMisuse(m *Error) *Error {
	if req.misuse != nil {
		req.misuse(m)
	}
	return m
}

// Handler is the terminal function of a procedure. Its return value becomes
// the call result.
type Handler func(ctx context.Context, req Request) (any, error)

// Next advances the chain. A non-empty patch is merged over the current
// Values for every link after the caller; a nil patch passes the current
// Values through unchanged. Next may be called at most once per middleware
// invocation.
type Next func(patch Values) (any, error)

// Middleware is one link of a procedure's chain. A middleware that returns
// without calling next short-circuits the chain: its return value is the call
// result and nothing downstream runs.
//
// Middleware wanting cleanup wraps its own call to next:
//
//	func(ctx context.Context, req procedure.Request, next procedure.Next) (any, error) {
//	    release := acquire()
//	    defer release()
//	    return next(nil)
//	}
type Middleware func(ctx context.Context, req Request, next Next) (any, error)

// Meta is free-form metadata declared on a procedure and visible to every
// middleware of its chain.
type Meta map[string]any

// Procedure is an immutable callable unit: a kind, a chain of middleware and
// validators, and a terminal handler. Build one with a Builder.
type Procedure struct {
	kind    Kind
	chain   []step
	handler Handler
	meta    Meta
}

// step is one link of a procedure chain: either a middleware or a validator.
type step struct {
	mw    Middleware
	parse Validator
}

func (*Procedure) isEntry() {}

// Kind returns the kind the procedure was declared with.
func (p *Procedure) Kind() Kind { return p.kind }

// Meta returns a copy of the procedure's metadata.
func (p *Procedure) Meta() Meta {
	out := make(Meta, len(p.meta))
	for k, v := range p.meta {
		out[k] = v
	}
	return out
}

// complete reports whether p may be placed into a router.
func (p *Procedure) complete() bool {
	return p != nil && p.handler != nil && p.kind.Valid()
}

// Builder accumulates the chain of a procedure. Builders are values: every
// method returns a new Builder and never changes the receiver, so a partially
// built chain can be shared as a base for several procedures.
//
//	authed := procedure.Query().Use(requireUser)
//	me := authed.Handle(getMe)
//	list := authed.Input(procedure.JSON[ListInput]()).Handle(listThings)
type Builder struct {
	kind  Kind
	chain []step
	meta  Meta
}

// New returns an empty Builder for a procedure of the given kind.
func New(kind Kind) Builder { return Builder{kind: kind} }

// Query returns an empty Builder for a query procedure.
func Query() Builder { return New(KindQuery) }

// Mutation returns an empty Builder for a mutation procedure.
func Mutation() Builder { return New(KindMutation) }

// Subscription returns an empty Builder for a subscription procedure.
func Subscription() Builder { return New(KindSubscription) }

func (b Builder) with(s ...step) Builder {
	chain := make([]step, 0, len(b.chain)+len(s))
	chain = append(chain, b.chain...)
	b.chain = append(chain, s...)
	return b
}

// Use appends middleware to the chain, in order.
func (b Builder) Use(mws ...Middleware) Builder {
	steps := make([]step, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			steps = append(steps, step{mw: mw})
		}
	}
	return b.with(steps...)
}

// Input appends a validator step to the chain. The validator runs at this
// position, after the middleware added before it and before the handler; the
// links after it observe its result as Request.Input.
func (b Builder) Input(v Validator) Builder {
	if v == nil {
		return b
	}
	return b.with(step{parse: v})
}

// Meta merges m into the metadata of the procedure being built.
func (b Builder) Meta(m Meta) Builder {
	meta := make(Meta, len(b.meta)+len(m))
	for k, v := range b.meta {
		meta[k] = v
	}
	for k, v := range m {
		meta[k] = v
	}
	b.meta = meta
	return b
}

// Handle completes the procedure with its terminal handler. The chain is
// frozen: later calls on b do not affect the returned Procedure.
func (b Builder) Handle(h Handler) *Procedure {
	chain := make([]step, len(b.chain))
	copy(chain, b.chain)
	return &Procedure{
		kind:    b.kind,
		chain:   chain,
		handler: h,
		meta:    b.meta,
	}
}

// HandleFunc completes the procedure with a handler that takes only the
// input, for procedures that do not read the context.
func (b Builder) HandleFunc(fn func(ctx context.Context, input any) (any, error)) *Procedure {
	if fn == nil {
		return b.Handle(nil)
	}
	return b.Handle(func(ctx context.Context, req Request) (any, error) {
		return fn(ctx, req.Input)
	})
}
