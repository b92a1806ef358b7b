package dispatch

import (
	"fmt"
	"sort"
	"sync"
)

// RouteInfo is the registration-time summary handed to table observers.
// It carries exactly what an external URL-generation collaborator needs
// to build reverse routes.
type RouteInfo struct {
	Name       string
	Template   string
	Method     string
	ParamNames []string
}

// Snapshot is an order-preserving copy of a table's compiled contents,
// consumed and produced verbatim by an external cache collaborator.
// Import treats the payload as already compiled and consistent.
type Snapshot struct {
	Routes []*Route
	Named  map[string]int
}

// Table is an append-only-then-sorted store of compiled routes. Adds
// mark the table dirty; the next read re-sorts by (method ascending,
// specificity descending) and rebuilds the name index. The sort is
// stable, so insertion order breaks remaining ties.
//
// Registration and dispatch may run concurrently; the sort/rebuild step
// and all reads share one RWMutex.
type Table struct {
	mu        sync.RWMutex
	routes    []*Route
	names     map[string]struct{}
	byName    map[string]int
	dirty     bool
	observers []func(RouteInfo)
}

// NewTable returns an empty route table.
func NewTable() *Table {
	return &Table{
		names:  make(map[string]struct{}),
		byName: make(map[string]int),
	}
}

// Add appends a compiled route. A non-empty route name that is already
// present fails with ErrDuplicateRouteName; this is a registration-time
// error and never a matching concern.
func (t *Table) Add(rt *Route) error {
	t.mu.Lock()

	if rt.name != "" {
		if _, exists := t.names[rt.name]; exists {
			t.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicateRouteName, rt.name)
		}
		t.names[rt.name] = struct{}{}
	}

	t.routes = append(t.routes, rt)
	t.dirty = true
	observers := t.observers
	t.mu.Unlock()

	if rt.name != "" {
		info := RouteInfo{
			Name:       rt.name,
			Template:   rt.template,
			Method:     rt.method,
			ParamNames: rt.ParamNames(),
		}
		for _, fn := range observers {
			fn(info)
		}
	}

	return nil
}

// Observe registers a callback invoked once per named route at Add time.
// Intended for URL-generation collaborators; the core does not build
// URLs itself.
func (t *Table) Observe(fn func(RouteInfo)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, fn)
}

// All returns the routes in match order. Callers must not mutate the
// returned slice.
func (t *Table) All() []*Route {
	t.mu.RLock()
	if !t.dirty {
		routes := t.routes
		t.mu.RUnlock()
		return routes
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sortLocked()
	return t.routes
}

// GetByName returns the named route. The lookup reflects the sorted
// state of the table.
func (t *Table) GetByName(name string) (*Route, bool) {
	t.mu.RLock()
	if !t.dirty {
		idx, ok := t.byName[name]
		if !ok {
			t.mu.RUnlock()
			return nil, false
		}
		rt := t.routes[idx]
		t.mu.RUnlock()
		return rt, true
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sortLocked()
	idx, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.routes[idx], true
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// Export returns an order-preserving snapshot of the sorted table for an
// external cache collaborator.
func (t *Table) Export() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sortLocked()

	s := Snapshot{
		Routes: make([]*Route, len(t.routes)),
		Named:  make(map[string]int, len(t.byName)),
	}
	copy(s.Routes, t.routes)
	for name, idx := range t.byName {
		s.Named[name] = idx
	}
	return s
}

// Import replaces the table contents with a previously exported
// snapshot, bypassing compilation. Entries are assumed already compiled
// and consistent; no validation is performed.
func (t *Table) Import(s Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.routes = make([]*Route, len(s.Routes))
	copy(t.routes, s.Routes)

	t.names = make(map[string]struct{}, len(s.Named))
	t.byName = make(map[string]int, len(s.Named))
	for name, idx := range s.Named {
		t.names[name] = struct{}{}
		t.byName[name] = idx
	}

	// Snapshots preserve sort order, so the import is clean.
	t.dirty = false
}

// Clear removes all routes, names included. Re-registration after Clear
// starts duplicate-name detection from scratch.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.routes = nil
	t.names = make(map[string]struct{})
	t.byName = make(map[string]int)
	t.dirty = false
}

// sortLocked re-sorts the routes and rebuilds the name index. Callers
// must hold the write lock.
func (t *Table) sortLocked() {
	if !t.dirty {
		return
	}

	// Sort a copy and swap it in. Slices handed out by All keep their
	// contents even when a later Add triggers a re-sort, so readers
	// never observe the shuffle.
	routes := append([]*Route(nil), t.routes...)
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].method != routes[j].method {
			return routes[i].method < routes[j].method
		}
		return routes[i].specificity > routes[j].specificity
	})
	t.routes = routes

	t.byName = make(map[string]int, len(t.names))
	for i, rt := range t.routes {
		if rt.name != "" {
			t.byName[rt.name] = i
		}
	}

	t.dirty = false
}
