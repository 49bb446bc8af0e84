package procedure

import (
	"fmt"
	"sort"
)

// Entry is one named member of a router: either a *Procedure or a nested
// *Router. No other type implements it.
type Entry interface {
	isEntry()
}

// Routes maps local names to entries. It is the authoring form of a router.
type Routes map[string]Entry

// Router is an immutable tree of named procedures and sub-routers. Routers
// are never changed after construction; Merge builds a new one.
//
// Every Router carries its flattened Table, built and checked once when the
// router is constructed, so a router that exists is a router without path
// collisions.
type Router struct {
	entries Routes
	names   []string // sorted keys of entries
	table   *Table
}

func (*Router) isEntry() {}

// NewRouter builds a router from routes. The map is copied; changing it
// afterwards has no effect on the router.
//
// NewRouter fails with ErrInvalidName for an empty name or a nil entry, with
// ErrIncompleteProcedure for a procedure without a handler, and with a
// *DuplicatePathError if two entries flatten to the same path (for example a
// key "a.b" next to a sub-router "a" holding "b").
func NewRouter(routes Routes) (*Router, error) {
	entries := make(Routes, len(routes))
	names := make([]string, 0, len(routes))
	for name, e := range routes {
		if err := checkEntry(name, e); err != nil {
			return nil, err
		}
		entries[name] = e
		names = append(names, name)
	}
	sort.Strings(names)

	r := &Router{entries: entries, names: names}
	t, err := Flatten(r)
	if err != nil {
		return nil, err
	}
	r.table = t
	return r, nil
}

// MustRouter is NewRouter that panics on error. Use it where a bad router is
// a programming error that must stop startup.
func MustRouter(routes Routes) *Router {
	r, err := NewRouter(routes)
	if err != nil {
		panic(err)
	}
	return r
}

func checkEntry(name string, e Entry) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	switch v := e.(type) {
	case *Procedure:
		if !v.complete() {
			return fmt.Errorf("%w: %q", ErrIncompleteProcedure, name)
		}
	case *Router:
		if v == nil || v.table == nil {
			return fmt.Errorf("%w: %q is a nil router", ErrInvalidName, name)
		}
	default:
		return fmt.Errorf("%w: %q has no entry", ErrInvalidName, name)
	}
	return nil
}

// Merge builds a new router whose top-level entries are the union of the
// top-level entries of routers. A name present in more than one of them is a
// *DuplicatePathError; entries are never silently overwritten. The operands
// are not changed.
func Merge(routers ...*Router) (*Router, error) {
	routes := make(Routes)
	for _, r := range routers {
		if r == nil {
			continue
		}
		for _, name := range r.names {
			if _, ok := routes[name]; ok {
				return nil, &DuplicatePathError{Path: name}
			}
			routes[name] = r.entries[name]
		}
	}
	return NewRouter(routes)
}

// MustMerge is Merge that panics on error.
func MustMerge(routers ...*Router) *Router {
	r, err := Merge(routers...)
	if err != nil {
		panic(err)
	}
	return r
}

// Entry returns the entry registered under name at the top level of r. The
// result is the same *Procedure or *Router that was passed in.
func (r *Router) Entry(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns the top-level names of r in sorted order.
func (r *Router) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Table returns the flattened table of r.
func (r *Router) Table() *Table { return r.table }

// Procedure returns the procedure at the full dotted path.
func (r *Router) Procedure(path string) (*Procedure, bool) {
	return r.table.Lookup(path)
}
