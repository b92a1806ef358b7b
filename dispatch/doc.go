// Package dispatch matches incoming HTTP requests (method, path, host)
// against a registered set of route templates and produces an ordered,
// decorated invocation of a handler through a middleware chain. It is
// the dispatch core of an HTTP server toolkit: it decides which handler
// and which interceptor chain apply to a request, and nothing more.
//
// The package implements routing semantics based on:
//   - RFC 9110 (HTTP Semantics)
//   - RFC 3986 (URIs)
//   - RFC 5890 (internationalized domain names)
//
// # Routes
//
// Routes are compiled once at registration time and are immutable
// afterwards. A path template may contain placeholders:
//
//	/users/{id}          required parameter
//	/users/{id:int}      required parameter with a constraint
//	/posts/{page?}       optional parameter (suffix position only)
//	/files/{path+}       terminal catch-all, slashes preserved
//
// Constraints resolve by name (int, numeric, slug, uuid, email, alpha,
// alphanumeric) or act as literal regex fragments:
//
//	r.HandleFunc(http.MethodGet, "/orders/{ref:[A-Z]{3}-[0-9]+}", handler)
//
// Templates compile into a single anchored pattern with one named
// capture group per parameter. Matched values are bound into the
// request context:
//
//	id, ok := dispatch.Param(req, "id")
//	all := dispatch.Params(req)
//
// # Matching order
//
// The table sorts routes by method, then by specificity: templates with
// more static segments outrank templates with more parameters, and
// optional parameters push a route down. Registering /users/admin and
// /users/{id} in either order always selects the static route for a
// request to /users/admin.
//
// Matching runs against the escaped request path, so an encoded slash
// (%2F) stays inside a single segment and never acts as a separator.
//
// # Implicit responses
//
// The dispatcher synthesizes what a well-behaved HTTP surface owes the
// client without explicit registration:
//
//   - HEAD requests fall back to a matching GET route with the response
//     body discarded, headers and status preserved.
//   - OPTIONS requests for a known path answer 200 with an Allow header
//     listing the registered methods.
//   - A known path with the wrong method answers 405 with Allow; HEAD
//     is included whenever GET is.
//   - Everything else reaches the fallback handler, if configured, and
//     then a generic 404.
//
// # Hosts
//
// A route may be bound to a domain. Literal domains match exactly;
// {token} placeholders match one non-dot label and bind as parameters:
//
//	r.HandleFunc(http.MethodGet, "/", home,
//		dispatch.WithDomain("{tenant}.app.com"))
//	// a request to acme.app.com binds tenant=acme
//
// # Middleware
//
// Middleware registers by name with a priority; higher priority runs
// outermost. Two calling conventions interoperate transparently: the
// continuation-object style (Interceptor) and the legacy
// continuation-function style (InterceptorFunc). Routes reference
// middleware by name, optionally parameterized, and names may resolve
// to groups:
//
//	reg := r.Registry()
//	reg.Register("auth", authInterceptor, 100)
//	reg.RegisterFunc("throttle", throttleFunc, 50)
//	reg.Group("web", "auth", "throttle:60,1")
//	r.HandleFunc(http.MethodGet, "/dash", dash,
//		dispatch.WithMiddleware("web"))
//
// Unregistered names are dropped from the chain after an optional
// external Resolver has been consulted; the Strict registry option
// turns that into an error instead.
//
// # Trailing slashes
//
// Three policies are available: SlashStrip (the default) treats /x and
// /x/ as the same route, SlashRedirect answers the slashed form with a
// 301, and SlashAllowBoth routes both forms independently. The root
// path is never rewritten.
//
// # Concurrency
//
// Build the table during startup, then dispatch freely: matching,
// parameter binding and chain composition write no shared state. The
// table additionally guards its lazy sort with a lock, so late
// registration is safe, if unusual. Mutable state inside a shared
// middleware instance remains that middleware's own responsibility.
package dispatch
