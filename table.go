package procedure

import "sort"

// Separator joins the names along a router path.
const Separator = "."

// Table is the flat form of a router: full dotted path to procedure. It is
// built once and read-only afterwards, so any number of goroutines may look
// up procedures in it without locking.
type Table struct {
	procs map[string]*Procedure
	paths []string // sorted
}

// Flatten compiles the tree under r into a Table. Sub-routers contribute
// their own, already checked, tables prefixed with their name. Flatten fails
// with a *DuplicatePathError if two entries resolve to the same path.
//
// Flatten is deterministic and does not copy procedures: the same router
// always yields the same paths mapped to the same *Procedure values.
func Flatten(r *Router) (*Table, error) {
	t := &Table{procs: make(map[string]*Procedure)}
	add := func(path string, p *Procedure) error {
		if _, ok := t.procs[path]; ok {
			return &DuplicatePathError{Path: path}
		}
		t.procs[path] = p
		t.paths = append(t.paths, path)
		return nil
	}

	for _, name := range r.names {
		switch e := r.entries[name].(type) {
		case *Procedure:
			if err := add(name, e); err != nil {
				return nil, err
			}
		case *Router:
			for _, sub := range e.table.paths {
				if err := add(name+Separator+sub, e.table.procs[sub]); err != nil {
					return nil, err
				}
			}
		}
	}
	sort.Strings(t.paths)
	return t, nil
}

// Lookup returns the procedure at path.
func (t *Table) Lookup(path string) (*Procedure, bool) {
	p, ok := t.procs[path]
	return p, ok
}

// Paths returns every path in t in sorted order.
func (t *Table) Paths() []string {
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

// Len returns the number of procedures in t.
func (t *Table) Len() int { return len(t.paths) }
