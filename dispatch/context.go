package dispatch

import (
	"context"
	"net/http"
)

// dispatchContextKey is an unexported type for the single context key.
type dispatchContextKey struct{}

// ctxKey is the single context key used to store both route and params.
var ctxKey = dispatchContextKey{}

// dispatchContext holds the matched route and its bound parameters.
type dispatchContext struct {
	route  *Route
	params map[string]string
}

// Params returns the bound parameter values for the current request:
// path captures, defaults for absent optionals, and domain tokens.
func Params(r *http.Request) map[string]string {
	if dc, ok := r.Context().Value(ctxKey).(*dispatchContext); ok {
		return dc.params
	}
	return nil
}

// Param returns a single bound parameter by name and a boolean
// indicating whether it exists.
func Param(r *http.Request, name string) (string, bool) {
	if dc, ok := r.Context().Value(ctxKey).(*dispatchContext); ok && dc.params != nil {
		val, exists := dc.params[name]
		return val, exists
	}
	return "", false
}

// CurrentRoute returns the matched route for the current request, if
// any. This only works inside the handler of the matched route because
// the route is carried on the request context.
func CurrentRoute(r *http.Request) *Route {
	if dc, ok := r.Context().Value(ctxKey).(*dispatchContext); ok {
		return dc.route
	}
	return nil
}

// SetParams sets the bound parameters for the given request, returning
// the modified request. Intended for testing handlers in isolation.
func SetParams(r *http.Request, params map[string]string) *http.Request {
	var route *Route
	if dc, ok := r.Context().Value(ctxKey).(*dispatchContext); ok {
		route = dc.route
	}
	return withRoute(r, route, params)
}

// withRoute stores the matched route and parameters in the request
// context with a single WithContext call.
func withRoute(r *http.Request, route *Route, params map[string]string) *http.Request {
	ctx := context.WithValue(r.Context(), ctxKey, &dispatchContext{
		route:  route,
		params: params,
	})
	return r.WithContext(ctx)
}
