package dispatch

import (
	"net/http"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/idna"
)

// patternCache memoizes compiled patterns across routes. Distinct
// patterns are bounded by the number of registered templates, so the
// cache reaches a fixed size and stays there.
var patternCache sync.Map

// compileRegexp compiles pattern, reusing a previously compiled instance
// when several routes share a template shape.
func compileRegexp(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	stored, _ := patternCache.LoadOrStore(pattern, re)
	return stored.(*regexp.Regexp), nil
}

// requestPath returns the matching path for r, preferring the escaped
// form when one exists so an encoded slash (%2F) stays inside a single
// segment instead of acting as a separator.
func requestPath(r *http.Request) string {
	if r.URL.RawPath != "" {
		return r.URL.RawPath
	}
	return r.URL.Path
}

// cleanPath returns the canonical path for p, eliminating . and .. elements
// per RFC 3986 Section 5.2.4 (remove dot segments).
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	np := path.Clean(p)
	// path.Clean removes trailing slash except for root;
	// put the trailing slash back if necessary.
	if p[len(p)-1] == '/' && np != "/" {
		np += "/"
	}
	return np
}

// canonicalHost returns the request host in the form domain patterns are
// matched against: port stripped per RFC 7230 Section 5.4, lowercased,
// and internationalized names converted to their ASCII (punycode) form
// per RFC 5890. Hosts that fail IDNA conversion are matched as-is.
func canonicalHost(r *http.Request) string {
	host := r.Host
	if i := strings.Index(host, ":"); i != -1 {
		host = host[:i]
	}
	host = strings.ToLower(host)
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	return host
}

// methodSet accumulates the allowed methods for 405 and OPTIONS
// synthesis.
type methodSet map[string]struct{}

func (s methodSet) add(methods ...string) {
	for _, m := range methods {
		s[m] = struct{}{}
	}
}

func (s methodSet) has(m string) bool {
	_, ok := s[m]
	return ok
}

// sorted returns the unique methods sorted alphabetically per
// RFC 7231 Section 7.4.1.
func (s methodSet) sorted() []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
