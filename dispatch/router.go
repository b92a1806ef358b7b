package dispatch

import "net/http"

// Router bundles a table, a middleware registry and a dispatcher behind
// the registration API most applications want. Each Router owns its own
// table and registry; multiple routers coexist without shared state.
//
//	r := dispatch.NewRouter()
//	r.HandleFunc(http.MethodGet, "/users/{id:int}", userHandler,
//		dispatch.WithName("users.show"))
//	http.ListenAndServe(":8080", r)
type Router struct {
	table      *Table
	registry   *Registry
	dispatcher *Dispatcher
}

// NewRouter creates a router with a fresh table and registry. Options
// configure the embedded dispatcher.
func NewRouter(opts ...Option) *Router {
	table := NewTable()
	registry := NewRegistry()
	return &Router{
		table:      table,
		registry:   registry,
		dispatcher: NewDispatcher(table, registry, opts...),
	}
}

// Handle compiles and registers a route. Registration-time problems
// (malformed template, invalid constraint, duplicate name) surface here
// and never during dispatch.
func (r *Router) Handle(method, tpl string, handler http.Handler, opts ...RouteOption) error {
	rt, err := Compile(method, tpl, handler, opts...)
	if err != nil {
		return err
	}
	return r.table.Add(rt)
}

// HandleFunc registers a route with a handler function.
func (r *Router) HandleFunc(method, tpl string, f func(http.ResponseWriter, *http.Request), opts ...RouteOption) error {
	return r.Handle(method, tpl, http.HandlerFunc(f), opts...)
}

// Use appends global middleware references applied to every dispatched
// request.
func (r *Router) Use(names ...string) {
	r.registry.Use(names...)
}

// Table exposes the route table for cache collaborators and listings.
func (r *Router) Table() *Table {
	return r.table
}

// Registry exposes the middleware registry.
func (r *Router) Registry() *Registry {
	return r.registry
}

// ServeHTTP dispatches through the embedded dispatcher.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.dispatcher.ServeHTTP(w, req)
}
