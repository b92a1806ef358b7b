package dispatch

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Specificity weights. A template with more static segments always
// outranks one with fewer, and a template with fewer optional parameters
// outranks one with more, all else equal.
const (
	weightStaticSegment  = 1000
	weightRequiredParam  = 100
	weightSegment        = 10
	weightParam          = 1
	penaltyOptionalParam = 50
)

// placeholderRe matches a whole-segment placeholder: {name}, {name?} or
// {name+}. Inline constraints are stripped before segment parsing, so no
// constraint part appears here.
var placeholderRe = regexp.MustCompile(`^\{([A-Za-z_][A-Za-z0-9_]*)([?+]?)\}$`)

// domainTokenRe matches a {token} placeholder inside a domain template.
var domainTokenRe = regexp.MustCompile(`^\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// RouteOption configures route attributes at compile time.
type RouteOption func(*Route)

// WithName sets the route name. Non-empty names must be unique across
// the table the route is added to.
func WithName(name string) RouteOption {
	return func(rt *Route) { rt.name = name }
}

// WithMiddleware sets the route middleware list. Entries may carry an
// inline parameter suffix, e.g. "throttle:60,1", and may reference named
// middleware groups.
func WithMiddleware(names ...string) RouteOption {
	return func(rt *Route) { rt.middleware = append(rt.middleware, names...) }
}

// WithConstraints supplies per-parameter constraint specifiers for
// parameters not using the inline {name:constraint} syntax. Inline
// specifiers take precedence on name collision.
func WithConstraints(constraints map[string]string) RouteOption {
	return func(rt *Route) {
		if rt.constraints == nil {
			rt.constraints = make(map[string]string, len(constraints))
		}
		for k, v := range constraints {
			rt.constraints[k] = v
		}
	}
}

// WithDefaults supplies fallback values bound for optional parameters
// absent from the matched path.
func WithDefaults(defaults map[string]string) RouteOption {
	return func(rt *Route) {
		if rt.defaults == nil {
			rt.defaults = make(map[string]string, len(defaults))
		}
		for k, v := range defaults {
			rt.defaults[k] = v
		}
	}
}

// WithDomain restricts the route to requests whose host matches the
// given template. The template may contain {token} placeholders standing
// for one or more non-dot characters; matched tokens are bound as
// request parameters.
func WithDomain(domain string) RouteOption {
	return func(rt *Route) { rt.domain = strings.ToLower(domain) }
}

// WithMeta attaches opaque metadata to the route. The dispatch core
// passes it through untouched.
func WithMeta(meta map[string]any) RouteOption {
	return func(rt *Route) {
		if rt.meta == nil {
			rt.meta = make(map[string]any, len(meta))
		}
		for k, v := range meta {
			rt.meta[k] = v
		}
	}
}

// Compile turns a path template plus registration attributes into an
// immutable Route ready for table insertion. The template uses {name},
// {name?}, {name:constraint} and terminal {name+} placeholders.
//
// All malformed input surfaces here: embedded placeholders, duplicated
// parameter names, an optional parameter followed by a required one, a
// non-terminal catch-all, and custom constraint fragments that fail to
// compile are registration errors, never matching-time ones.
func Compile(method, tpl string, handler http.Handler, opts ...RouteOption) (*Route, error) {
	rt := &Route{
		method:  strings.ToUpper(strings.TrimSpace(method)),
		handler: handler,
	}
	for _, opt := range opts {
		opt(rt)
	}

	if rt.method == "" {
		return nil, fmt.Errorf("dispatch: route %q has no method", tpl)
	}
	if !strings.HasPrefix(tpl, "/") {
		tpl = "/" + tpl
	}

	stripped, inline, err := extractInlineConstraints(tpl)
	if err != nil {
		return nil, err
	}

	// Inline specifiers win over the externally supplied map.
	if rt.constraints == nil && len(inline) > 0 {
		rt.constraints = make(map[string]string, len(inline))
	}
	for name, spec := range inline {
		rt.constraints[name] = spec
	}

	rt.template = normalizeSlash(stripped)

	if err := rt.compilePath(); err != nil {
		return nil, err
	}
	if err := rt.compileDomain(); err != nil {
		return nil, err
	}

	return rt, nil
}

// extractInlineConstraints scans tpl for {name:spec} and {name:spec?}
// placeholders, records each spec, and rewrites the placeholder to the
// bare {name} or {name?} form.
func extractInlineConstraints(tpl string) (string, map[string]string, error) {
	idxs, err := braceIndices(tpl)
	if err != nil {
		return "", nil, err
	}
	if len(idxs) == 0 {
		return tpl, nil, nil
	}

	var (
		out    bytes.Buffer
		inline map[string]string
		end    int
	)

	for i := 0; i < len(idxs); i += 2 {
		out.WriteString(tpl[end:idxs[i]])
		end = idxs[i+1]

		content := tpl[idxs[i]+1 : end-1]
		colon := strings.Index(content, ":")
		if colon < 0 {
			out.WriteByte('{')
			out.WriteString(content)
			out.WriteByte('}')
			continue
		}

		name := content[:colon]
		spec := content[colon+1:]
		optional := strings.HasSuffix(spec, "?")
		if optional {
			spec = strings.TrimSuffix(spec, "?")
		}
		if name == "" || spec == "" {
			return "", nil, fmt.Errorf("dispatch: malformed placeholder %q in %q", tpl[idxs[i]:end], tpl)
		}

		if inline == nil {
			inline = make(map[string]string)
		}
		inline[name] = spec

		out.WriteByte('{')
		out.WriteString(name)
		if optional {
			out.WriteByte('?')
		}
		out.WriteByte('}')
	}
	out.WriteString(tpl[end:])

	return out.String(), inline, nil
}

// normalizeSlash collapses a trailing slash, leaving the root path alone.
func normalizeSlash(tpl string) string {
	if len(tpl) > 1 {
		return strings.TrimSuffix(tpl, "/")
	}
	return tpl
}

// compilePath builds the anchored matching pattern, the ordered parameter
// list, the optional set and the specificity score from rt.template.
func (rt *Route) compilePath() error {
	var (
		pattern      bytes.Buffer
		staticSegs   int
		requiredSegs int
		totalSegs    int
		seenOptional bool
		seenCatchAll bool
	)

	pattern.WriteByte('^')

	if rt.template != "/" {
		for _, seg := range strings.Split(rt.template[1:], "/") {
			totalSegs++

			if seenCatchAll {
				return fmt.Errorf("dispatch: catch-all must be the final segment in %q", rt.template)
			}

			if !strings.ContainsAny(seg, "{}") {
				if seenOptional {
					return fmt.Errorf("dispatch: segment %q follows an optional parameter in %q", seg, rt.template)
				}
				pattern.WriteByte('/')
				pattern.WriteString(regexp.QuoteMeta(seg))
				staticSegs++
				continue
			}

			m := placeholderRe.FindStringSubmatch(seg)
			if m == nil {
				return fmt.Errorf("dispatch: unsupported placeholder segment %q in %q", seg, rt.template)
			}
			name, mod := m[1], m[2]

			for _, existing := range rt.paramNames {
				if existing == name {
					return fmt.Errorf("dispatch: duplicated route parameter %q in %q", name, rt.template)
				}
			}

			c, err := lookupConstraint(rt.constraints[name])
			if err != nil {
				return err
			}
			frag := `[^/]+`
			if c != nil {
				frag = c.Fragment()
			}

			switch mod {
			case "+":
				if seenOptional {
					return fmt.Errorf("dispatch: catch-all %q follows an optional parameter in %q", name, rt.template)
				}
				// Catch-all captures the rest of the path, slashes included.
				fmt.Fprintf(&pattern, "/(?P<%s>.+)", name)
				requiredSegs++
				seenCatchAll = true
			case "?":
				// The leading separator folds into the optional group so an
				// absent segment does not leave a dangling slash.
				fmt.Fprintf(&pattern, "(?:/(?P<%s>%s))?", name, frag)
				seenOptional = true
				if rt.optional == nil {
					rt.optional = make(map[string]struct{})
				}
				rt.optional[name] = struct{}{}
			default:
				if seenOptional {
					return fmt.Errorf("dispatch: required parameter %q follows an optional one in %q", name, rt.template)
				}
				fmt.Fprintf(&pattern, "/(?P<%s>%s)", name, frag)
				requiredSegs++
			}

			rt.paramNames = append(rt.paramNames, name)
		}
	}

	// Both slash forms match so the table works under any slash policy.
	// The catch-all already consumes everything to the end of the path.
	if !seenCatchAll {
		pattern.WriteString("/?")
	}
	pattern.WriteByte('$')

	re, err := compileRegexp(pattern.String())
	if err != nil {
		return fmt.Errorf("dispatch: route %q: %w", rt.template, err)
	}
	rt.pattern = re

	rt.specificity = staticSegs*weightStaticSegment +
		requiredSegs*weightRequiredParam +
		totalSegs*weightSegment +
		len(rt.paramNames)*weightParam -
		len(rt.optional)*penaltyOptionalParam

	return nil
}

// compileDomain builds the anchored host pattern when the route carries a
// domain constraint. Literal text matches exactly; {token} placeholders
// match one or more non-dot characters and bind as parameters.
func (rt *Route) compileDomain() error {
	if rt.domain == "" {
		return nil
	}

	idxs, err := braceIndices(rt.domain)
	if err != nil {
		return err
	}

	var (
		pattern bytes.Buffer
		end     int
	)
	pattern.WriteByte('^')

	for i := 0; i < len(idxs); i += 2 {
		pattern.WriteString(regexp.QuoteMeta(rt.domain[end:idxs[i]]))
		end = idxs[i+1]

		m := domainTokenRe.FindStringSubmatch(rt.domain[idxs[i]:end])
		if m == nil {
			return fmt.Errorf("dispatch: malformed domain placeholder %q in %q", rt.domain[idxs[i]:end], rt.domain)
		}
		name := m[1]

		for _, existing := range rt.paramNames {
			if existing == name {
				return fmt.Errorf("dispatch: domain parameter %q collides with path parameter in %q", name, rt.template)
			}
		}
		for _, existing := range rt.hostParams {
			if existing == name {
				return fmt.Errorf("dispatch: duplicated domain parameter %q in %q", name, rt.domain)
			}
		}

		fmt.Fprintf(&pattern, "(?P<%s>[^.]+)", name)
		rt.hostParams = append(rt.hostParams, name)
	}
	pattern.WriteString(regexp.QuoteMeta(rt.domain[end:]))
	pattern.WriteByte('$')

	re, err := compileRegexp(pattern.String())
	if err != nil {
		return fmt.Errorf("dispatch: domain %q: %w", rt.domain, err)
	}
	rt.hostPattern = re

	return nil
}

// braceIndices returns the start and end+1 indices of each top-level
// {...} pair in s. Returns an error if braces are unbalanced.
func braceIndices(s string) ([]int, error) {
	var (
		idxs  []int
		level int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if level++; level == 1 {
				idxs = append(idxs, i)
			}
		case '}':
			if level--; level == 0 {
				idxs = append(idxs, i+1)
			} else if level < 0 {
				return nil, fmt.Errorf("dispatch: unbalanced braces in %q", s)
			}
		}
	}
	if level != 0 {
		return nil, fmt.Errorf("dispatch: unbalanced braces in %q", s)
	}
	return idxs, nil
}
