package dispatch

import (
	"net/http"
	"regexp"
)

// Route is a compiled route: the unit of registration. Routes are
// created once by Compile and are immutable afterwards; updates happen
// by re-registration, which the table treats as a brand-new entry.
type Route struct {
	method      string
	template    string
	pattern     *regexp.Regexp
	paramNames  []string
	optional    map[string]struct{}
	specificity int

	name        string
	middleware  []string
	constraints map[string]string
	defaults    map[string]string
	meta        map[string]any
	handler     http.Handler

	domain      string
	hostPattern *regexp.Regexp
	hostParams  []string
}

// Method returns the single uppercase HTTP verb the route matches.
func (rt *Route) Method() string { return rt.method }

// Template returns the normalized path template the route was compiled
// from, e.g. "/users/{id}".
func (rt *Route) Template() string { return rt.template }

// Name returns the route name, or an empty string for unnamed routes.
func (rt *Route) Name() string { return rt.name }

// Handler returns the final handler the dispatcher invokes on a match.
func (rt *Route) Handler() http.Handler { return rt.handler }

// Middleware returns the route's middleware references in declaration
// order, possibly parameterized ("throttle:60,1") or naming groups.
func (rt *Route) Middleware() []string { return rt.middleware }

// ParamNames returns the parameter names in template order, path
// parameters first, then domain tokens.
func (rt *Route) ParamNames() []string {
	if len(rt.hostParams) == 0 {
		return rt.paramNames
	}
	names := make([]string, 0, len(rt.paramNames)+len(rt.hostParams))
	names = append(names, rt.paramNames...)
	names = append(names, rt.hostParams...)
	return names
}

// Optional reports whether the named parameter may be absent from a
// matching path.
func (rt *Route) Optional(name string) bool {
	_, ok := rt.optional[name]
	return ok
}

// Constraints returns the effective constraint specifiers, inline
// specifiers already folded in.
func (rt *Route) Constraints() map[string]string { return rt.constraints }

// Defaults returns the configured fallback values for optional
// parameters.
func (rt *Route) Defaults() map[string]string { return rt.defaults }

// Domain returns the host template the route is bound to, or an empty
// string when the route matches any host.
func (rt *Route) Domain() string { return rt.domain }

// Meta returns the opaque metadata attached at registration. The
// dispatch core never interprets it.
func (rt *Route) Meta() map[string]any { return rt.meta }

// Specificity returns the route's sort score. Higher sorts first.
func (rt *Route) Specificity() int { return rt.specificity }

// PathRegexp returns the compiled matching pattern as a string, for
// inspection and debug listings.
func (rt *Route) PathRegexp() string { return rt.pattern.String() }

// matchPath matches path against the compiled pattern. On success it
// returns the captured parameter values, with the route defaults filled
// in for any absent optional parameter.
func (rt *Route) matchPath(path string) (map[string]string, bool) {
	m := rt.pattern.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}

	var vars map[string]string
	for i, name := range rt.pattern.SubexpNames() {
		if i == 0 || name == "" || m[i] == "" {
			continue
		}
		if vars == nil {
			vars = make(map[string]string, len(rt.paramNames))
		}
		vars[name] = m[i]
	}

	for name := range rt.optional {
		if _, bound := vars[name]; bound {
			continue
		}
		if def, ok := rt.defaults[name]; ok {
			if vars == nil {
				vars = make(map[string]string, 1)
			}
			vars[name] = def
		}
	}

	return vars, true
}

// matchHost matches the canonical request host against the route's
// domain constraint. Routes without a domain match every host.
func (rt *Route) matchHost(host string) (map[string]string, bool) {
	if rt.hostPattern == nil {
		return nil, true
	}

	m := rt.hostPattern.FindStringSubmatch(host)
	if m == nil {
		return nil, false
	}

	var vars map[string]string
	for i, name := range rt.hostPattern.SubexpNames() {
		if i == 0 || name == "" || m[i] == "" {
			continue
		}
		if vars == nil {
			vars = make(map[string]string, len(rt.hostParams))
		}
		vars[name] = m[i]
	}

	return vars, true
}
