package procedure

import "fmt"

// Values is the per-call context handed from link to link. It is never
// mutated in place: each middleware that passes a patch to next produces a
// new Values for everything downstream of it.
type Values map[string]any

// Merge returns a new Values holding the keys of v overlaid with the keys of
// patch. Keys in patch win. If patch is empty, v is returned as is.
func (v Values) Merge(patch Values) Values {
	if len(patch) == 0 {
		return v
	}
	out := make(Values, len(v)+len(patch))
	for k, x := range v {
		out[k] = x
	}
	for k, x := range patch {
		out[k] = x
	}
	return out
}

// Get returns the value stored under key.
func (v Values) Get(key string) (any, bool) {
	x, ok := v[key]
	return x, ok
}

// String returns the value under key if it is a string, or "".
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Has reports whether every key is present in v.
func (v Values) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := v[k]; !ok {
			return false
		}
	}
	return true
}

func (v Values) clone() Values {
	if v == nil {
		return Values{}
	}
	out := make(Values, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// ValueOf returns the value under key as a T. A handler that depends on a key
// some earlier middleware was supposed to add uses this to check the
// contract at runtime: a missing key or a value of the wrong type yields an
// INTERNAL_SERVER_ERROR.
//
//	user, err := procedure.ValueOf[*User](req.Values, "user")
//	if err != nil {
//	    return nil, err
//	}
func ValueOf[T any](v Values, key string) (T, error) {
	var zero T
	x, ok := v[key]
	if !ok {
		return zero, &Error{
			Code:    CodeInternal,
			Message: fmt.Sprintf("context value %q was not provided", key),
		}
	}
	t, ok := x.(T)
	if !ok {
		return zero, &Error{
			Code:    CodeInternal,
			Message: fmt.Sprintf("context value %q has type %T, want %T", key, x, zero),
		}
	}
	return t, nil
}
