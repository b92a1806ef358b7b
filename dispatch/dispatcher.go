package dispatch

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// SlashPolicy governs whether /x and /x/ are equivalent, redirected, or
// both independently routable.
type SlashPolicy int

const (
	// SlashStrip removes a trailing slash (except on the root path)
	// before matching. The default.
	SlashStrip SlashPolicy = iota

	// SlashRedirect answers any path with a trailing slash (except the
	// root) with a 301 to the stripped form, before matching.
	SlashRedirect

	// SlashAllowBoth passes the path through unchanged. Compiled
	// patterns tolerate both forms, so /x and /x/ each dispatch.
	SlashAllowBoth
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSlashPolicy sets the trailing-slash strategy.
func WithSlashPolicy(p SlashPolicy) Option {
	return func(d *Dispatcher) { d.slash = p }
}

// WithNotFoundHandler replaces the default 404 handler.
func WithNotFoundHandler(h http.Handler) Option {
	return func(d *Dispatcher) { d.notFound = h }
}

// WithMethodNotAllowedHandler replaces the default 405 handler. The
// Allow header is set before the handler is invoked.
func WithMethodNotAllowedHandler(h http.Handler) Option {
	return func(d *Dispatcher) { d.methodNotAllowed = h }
}

// WithFallbackHandler installs a handler invoked when no route matches
// and no method mismatch was recorded, ahead of the 404 path.
func WithFallbackHandler(h http.Handler) Option {
	return func(d *Dispatcher) { d.fallback = h }
}

// WithLogger sets the structured logger for dispatch misses. Miss logs
// carry method, path and host, never the query string.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMetrics attaches dispatch outcome metrics.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher matches inbound requests against a route table and invokes
// the selected handler through its middleware chain. It implements
// http.Handler. The dispatcher never mutates the table and produces a
// well-formed response for every request; dispatch-time conditions do
// not escape as panics or errors.
type Dispatcher struct {
	table    *Table
	registry *Registry

	slash            SlashPolicy
	notFound         http.Handler
	methodNotAllowed http.Handler
	fallback         http.Handler
	logger           *zap.Logger
	metrics          *Metrics
}

// NewDispatcher wires a dispatcher to a table and a middleware registry.
// The registry may be nil, in which case handlers run bare.
func NewDispatcher(table *Table, registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		table:            table,
		registry:         registry,
		notFound:         http.HandlerFunc(notFound),
		methodNotAllowed: http.HandlerFunc(methodNotAllowedResponse),
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ServeHTTP resolves the request to a route and runs its chain, or
// synthesizes the implicit response: slash redirect, OPTIONS listing,
// 405 with Allow, fallback, or 404.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	host := canonicalHost(req)
	p := cleanPath(requestPath(req))

	switch d.slash {
	case SlashStrip:
		if len(p) > 1 {
			p = strings.TrimSuffix(p, "/")
		}
	case SlashRedirect:
		if len(p) > 1 && strings.HasSuffix(p, "/") {
			target := strings.TrimSuffix(p, "/")
			if q := req.URL.RawQuery; q != "" {
				target += "?" + q
			}
			d.metrics.observe(outcomeRedirect)
			http.Redirect(w, req, target, http.StatusMovedPermanently)
			return
		}
	case SlashAllowBoth:
		// Compiled patterns accept both forms.
	}

	trialMethods := []string{req.Method}
	if req.Method == http.MethodHead {
		// Prefer an explicit HEAD route, then fall back to GET with the
		// response body discarded.
		trialMethods = []string{http.MethodHead, http.MethodGet}
	}

	routes := d.table.All()
	allowed := make(methodSet)

	for _, method := range trialMethods {
		for _, rt := range routes {
			hostVars, hostOK := rt.matchHost(host)
			if !hostOK {
				// Domain-mismatched routes are invisible: they do not
				// count toward allowed methods either.
				continue
			}

			pathVars, pathOK := rt.matchPath(p)
			if !pathOK {
				continue
			}

			if rt.method != method {
				allowed.add(rt.method)
				continue
			}

			d.serve(w, req, rt, mergeVars(pathVars, hostVars), method != req.Method)
			return
		}
	}

	d.miss(w, req, host, p, allowed)
}

// serve runs the matched route's chain. headFallback marks a HEAD
// request served by a GET route; its response body is discarded while
// headers and status pass through.
func (d *Dispatcher) serve(w http.ResponseWriter, req *http.Request, rt *Route, vars map[string]string, headFallback bool) {
	d.metrics.observe(outcomeMatched)

	req = withRoute(req, rt, vars)

	handler := rt.handler
	if handler == nil {
		handler = d.notFound
	}

	if d.registry != nil {
		chained, err := d.registry.Chain(handler, rt.middleware...)
		if err != nil {
			d.logger.Error("middleware chain build failed",
				zap.String("route", rt.template),
				zap.Error(err),
			)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		handler = chained
	}

	if headFallback {
		w = &bodyDiscardWriter{ResponseWriter: w}
	}

	handler.ServeHTTP(w, req)
}

// miss handles the no-route-selected tail of the state machine.
func (d *Dispatcher) miss(w http.ResponseWriter, req *http.Request, host, path string, allowed methodSet) {
	if req.Method == http.MethodOptions && len(allowed) > 0 {
		allowed.add(http.MethodOptions)
		w.Header().Set("Allow", strings.Join(allowed.sorted(), ", "))
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
		d.metrics.observe(outcomeOptions)
		return
	}

	if len(allowed) > 0 {
		if allowed.has(http.MethodGet) {
			allowed.add(http.MethodHead)
		}
		w.Header().Set("Allow", strings.Join(allowed.sorted(), ", "))
		d.logger.Info("method not allowed",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.String("host", host),
		)
		d.metrics.observe(outcomeMethodNotAllowed)
		d.methodNotAllowed.ServeHTTP(w, req)
		return
	}

	if d.fallback != nil {
		d.metrics.observe(outcomeFallback)
		d.fallback.ServeHTTP(w, req)
		return
	}

	d.logger.Info("no route matched",
		zap.String("method", req.Method),
		zap.String("path", path),
		zap.String("host", host),
	)
	d.metrics.observe(outcomeNotFound)
	d.notFound.ServeHTTP(w, req)
}

// mergeVars folds host bindings into the path bindings.
func mergeVars(pathVars, hostVars map[string]string) map[string]string {
	if len(hostVars) == 0 {
		return pathVars
	}
	if pathVars == nil {
		return hostVars
	}
	for k, v := range hostVars {
		pathVars[k] = v
	}
	return pathVars
}

// notFound replies with a generic 404. The request path is deliberately
// not echoed.
func notFound(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "404 page not found", http.StatusNotFound)
}

// methodNotAllowedResponse replies with 405; the Allow header is already
// set by the dispatcher.
func methodNotAllowedResponse(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "405 method not allowed", http.StatusMethodNotAllowed)
}

// bodyDiscardWriter drops the response body while letting headers and
// status through. Used when a HEAD request is served by a GET route.
type bodyDiscardWriter struct {
	http.ResponseWriter
}

func (bw *bodyDiscardWriter) Write(b []byte) (int, error) {
	// Report the body as written so handlers behave identically to the
	// GET case.
	return len(b), nil
}

// Flush implements http.Flusher for streaming handlers.
func (bw *bodyDiscardWriter) Flush() {
	if f, ok := bw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
