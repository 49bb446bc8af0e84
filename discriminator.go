package procedure

import "github.com/tidwall/gjson"

// Discriminator is a cheap predicate over the fields of a JSON input. Guard
// uses discriminators to reject input before any decoding happens.
type Discriminator interface {
	Match(f Fields) bool
}

// MatchFunc adapts a function to the Discriminator interface.
type MatchFunc func(f Fields) bool

// Match implements the Discriminator interface.
func (fn MatchFunc) Match(f Fields) bool { return fn(f) }

// HasFields matches when every path exists.
func HasFields(paths ...string) Discriminator {
	return MatchFunc(func(f Fields) bool {
		for _, p := range paths {
			if !f.Has(p) {
				return false
			}
		}
		return true
	})
}

// FieldEquals matches when path holds the string value.
func FieldEquals(path, value string) Discriminator {
	return FieldIn(path, value)
}

// FieldIn matches when path holds a string equal to one of values.
func FieldIn(path string, values ...string) Discriminator {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return MatchFunc(func(f Fields) bool {
		s, ok := f.String(path)
		if !ok {
			return false
		}
		_, ok = set[s]
		return ok
	})
}

// FieldFunc matches when path exists and fn accepts its value. It covers
// checks the other discriminators cannot express, such as numeric ranges.
//
//	procedure.FieldFunc("limit", func(r gjson.Result) bool {
//	    return r.Type == gjson.Number && r.Int() <= 100
//	})
func FieldFunc(path string, fn func(gjson.Result) bool) Discriminator {
	return MatchFunc(func(f Fields) bool {
		r := f.Get(path)
		return r.Exists() && fn(r)
	})
}

// And matches when all of ds match. An empty And matches.
func And(ds ...Discriminator) Discriminator {
	return MatchFunc(func(f Fields) bool {
		for _, d := range ds {
			if !d.Match(f) {
				return false
			}
		}
		return true
	})
}

// Or matches when any of ds matches. An empty Or never matches.
func Or(ds ...Discriminator) Discriminator {
	return MatchFunc(func(f Fields) bool {
		for _, d := range ds {
			if d.Match(f) {
				return true
			}
		}
		return false
	})
}

// Not matches when d does not.
func Not(d Discriminator) Discriminator {
	return MatchFunc(func(f Fields) bool { return !d.Match(f) })
}
