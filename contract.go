package procedure

import (
	"context"
	"sort"
)

// Declare wraps mw with the set of context keys it is allowed to add. A patch
// passed to next that carries any other key fails the call with
// MIDDLEWARE_MISUSE instead of reaching the rest of the chain. Like a second
// call to next, the violation fails the call even if mw ignores the error
// next returned.
//
//	auth := procedure.Declare(authenticate, "user", "session")
func Declare(mw Middleware, keys ...string) Middleware {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	return func(ctx context.Context, req Request, next Next) (any, error) {
		return mw(ctx, req, func(patch Values) (any, error) {
			var extra []string
			for k := range patch {
				if _, ok := allowed[k]; !ok {
					extra = append(extra, k)
				}
			}
			if len(extra) > 0 {
				sort.Strings(extra)
				return nil, req.reportMisuse(Errorf(CodeMiddlewareMisuse, "middleware added undeclared context key %q", extra[0]))
			}
			return next(patch)
		})
	}
}
