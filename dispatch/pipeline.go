package dispatch

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Next is the continuation handed to an interceptor: the remainder of
// the chain, final handler included.
type Next interface {
	Handle(w http.ResponseWriter, r *http.Request)
}

// Interceptor is a request interceptor in the continuation-object style.
// An interceptor may short-circuit by writing its own response without
// touching next, or call next.Handle and post-process afterwards.
type Interceptor interface {
	Intercept(w http.ResponseWriter, r *http.Request, next Next)
}

// InterceptorFunc is the legacy continuation-function style: the
// remainder of the chain arrives as a plain callable. The registry
// adapts it to the Interceptor shape transparently; callers never need
// to know which style a given middleware used.
type InterceptorFunc func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc)

// ParamSetter is implemented by interceptors that accept inline
// parameters, e.g. "throttle:60,1". SetParams must tolerate repeated
// calls; a shared instance's internal state remains the interceptor's
// own concurrency responsibility.
type ParamSetter interface {
	SetParams(args ...string)
}

// Resolver is the external middleware registry or DI container
// collaborator. It is consulted for names the local registry does not
// know before they are given up on.
type Resolver interface {
	Resolve(name string) (Interceptor, bool)
}

// funcInterceptor adapts a legacy InterceptorFunc to the Interceptor
// shape by delegating the continuation as a plain callable.
type funcInterceptor struct {
	fn InterceptorFunc
}

func (f funcInterceptor) Intercept(w http.ResponseWriter, r *http.Request, next Next) {
	f.fn(w, r, next.Handle)
}

// nextHandler exposes an http.Handler as a chain continuation.
type nextHandler struct {
	h http.Handler
}

func (n nextHandler) Handle(w http.ResponseWriter, r *http.Request) {
	n.h.ServeHTTP(w, r)
}

// pipelineEntry is one registered middleware: its identity plus its
// configured priority and registration sequence for stable ordering.
type pipelineEntry struct {
	interceptor Interceptor
	priority    int
	seq         int
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithResolver installs the external resolver consulted for unknown
// middleware names.
func WithResolver(r Resolver) RegistryOption {
	return func(reg *Registry) { reg.resolver = r }
}

// Strict makes unresolved middleware names a chain-build error instead
// of a silent drop.
func Strict() RegistryOption {
	return func(reg *Registry) { reg.strict = true }
}

// Registry owns the named middleware, their priorities, named groups and
// the global middleware list. Each router instance owns its own
// registry; there is no process-wide state.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*pipelineEntry
	groups   map[string][]string
	global   []string
	resolver Resolver
	strict   bool
	seq      int
}

// NewRegistry returns an empty middleware registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		entries: make(map[string]*pipelineEntry),
		groups:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Register binds a continuation-object-style interceptor to a name with
// the given priority. Higher priority runs earlier (outermost).
// Re-registering a name replaces the previous identity.
func (reg *Registry) Register(name string, ic Interceptor, priority int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.seq++
	reg.entries[name] = &pipelineEntry{interceptor: ic, priority: priority, seq: reg.seq}
}

// RegisterFunc binds a legacy continuation-function-style middleware to
// a name, wrapping it in the adapter.
func (reg *Registry) RegisterFunc(name string, fn InterceptorFunc, priority int) {
	reg.Register(name, funcInterceptor{fn: fn}, priority)
}

// Group defines a named middleware group. Members may reference other
// groups; expansion is recursive and tolerates cycles.
func (reg *Registry) Group(name string, members ...string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.groups[name] = members
}

// Use appends global middleware references applied to every dispatched
// request, ahead of the matched route's own list.
func (reg *Registry) Use(names ...string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.global = append(reg.global, names...)
}

// Chain builds the composed handler for one request: global middleware
// plus the given route middleware, groups expanded, names resolved,
// entries stably sorted by descending priority and wrapped around final
// from the innermost out. The highest-priority middleware ends up
// outermost: first on the way in, last on the way out.
//
// Unresolved names are dropped silently after the external resolver has
// been consulted, unless the registry is strict. Composition is a plain
// nested call; the pipeline introduces no concurrency of its own.
func (reg *Registry) Chain(final http.Handler, names ...string) (http.Handler, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	refs := make([]string, 0, len(reg.global)+len(names))
	refs = append(refs, reg.global...)
	refs = append(refs, names...)
	refs = reg.expand(refs, make(map[string]struct{}))

	resolved := make([]pipelineEntry, 0, len(refs))
	for order, ref := range refs {
		base, args := splitMiddlewareRef(ref)

		entry, ok := reg.entries[base]
		var ic Interceptor
		priority := 0
		if ok {
			ic = entry.interceptor
			priority = entry.priority
		} else if reg.resolver != nil {
			ic, ok = reg.resolver.Resolve(base)
		}
		if !ok || ic == nil {
			if reg.strict {
				return nil, fmt.Errorf("%w: %q", ErrUnresolvedMiddleware, base)
			}
			continue
		}

		if len(args) > 0 {
			if ps, can := ic.(ParamSetter); can {
				ps.SetParams(args...)
			}
		}

		resolved = append(resolved, pipelineEntry{interceptor: ic, priority: priority, seq: order})
	}

	// Stable: equal priorities keep their expansion order.
	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].priority > resolved[j].priority
	})

	h := final
	for i := len(resolved) - 1; i >= 0; i-- {
		h = wrapInterceptor(resolved[i].interceptor, h)
	}
	return h, nil
}

// expand replaces group references with their members, depth first. A
// group already being expanded is skipped, so self-referential groups
// terminate instead of recursing forever.
func (reg *Registry) expand(refs []string, seen map[string]struct{}) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		members, isGroup := reg.groups[ref]
		if !isGroup {
			out = append(out, ref)
			continue
		}
		if _, visiting := seen[ref]; visiting {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, reg.expand(members, seen)...)
		delete(seen, ref)
	}
	return out
}

// splitMiddlewareRef strips an inline parameter suffix from a middleware
// reference: "throttle:60,1" yields ("throttle", ["60", "1"]).
func splitMiddlewareRef(ref string) (string, []string) {
	colon := strings.Index(ref, ":")
	if colon < 0 {
		return ref, nil
	}
	return ref[:colon], strings.Split(ref[colon+1:], ",")
}

// wrapInterceptor nests a single interceptor around the rest of the
// chain.
func wrapInterceptor(ic Interceptor, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ic.Intercept(w, r, nextHandler{h: next})
	})
}
