// Package routeconf loads route declarations from YAML documents and
// registers them against a dispatch router. It is the configuration
// face of the registration API: deployments that keep their routing in
// config files declare method, path, handler key, middleware,
// constraints, defaults, domain and metadata per route, and bind
// handler keys to implementations at load time.
//
//	routes:
//	  - method: GET
//	    path: /users/{id:int}
//	    name: users.show
//	    handler: users.show
//	    middleware: [auth, "throttle:60,1"]
//
//	f, err := routeconf.Load(file)
//	err = f.Apply(router, map[string]http.Handler{
//		"users.show": usersShow,
//	})
package routeconf

import (
	"fmt"
	"io"
	"net/http"

	"gopkg.in/yaml.v3"

	"github.com/strada-dev/strada/dispatch"
)

// Route is one declared route.
type Route struct {
	Method      string            `yaml:"method"`
	Path        string            `yaml:"path"`
	Name        string            `yaml:"name"`
	Handler     string            `yaml:"handler"`
	Middleware  []string          `yaml:"middleware"`
	Constraints map[string]string `yaml:"constraints"`
	Defaults    map[string]string `yaml:"defaults"`
	Domain      string            `yaml:"domain"`
	Meta        map[string]any    `yaml:"meta"`
}

// File is a parsed route document.
type File struct {
	Routes []Route `yaml:"routes"`
}

// Parse decodes and validates a YAML route document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("routeconf: %w", err)
	}

	for i, r := range f.Routes {
		if r.Method == "" {
			return nil, fmt.Errorf("routeconf: route %d: missing method", i)
		}
		if r.Path == "" {
			return nil, fmt.Errorf("routeconf: route %d: missing path", i)
		}
		if r.Handler == "" {
			return nil, fmt.Errorf("routeconf: route %d: missing handler", i)
		}
	}

	return &f, nil
}

// Load reads and parses a YAML route document.
func Load(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("routeconf: %w", err)
	}
	return Parse(data)
}

// Apply registers every declared route against the router, resolving
// handler keys through the given map. Registration stops at the first
// failing route; the error names its index.
func (f *File) Apply(router *dispatch.Router, handlers map[string]http.Handler) error {
	for i, r := range f.Routes {
		h, ok := handlers[r.Handler]
		if !ok {
			return fmt.Errorf("routeconf: route %d: unknown handler %q", i, r.Handler)
		}

		var opts []dispatch.RouteOption
		if r.Name != "" {
			opts = append(opts, dispatch.WithName(r.Name))
		}
		if len(r.Middleware) > 0 {
			opts = append(opts, dispatch.WithMiddleware(r.Middleware...))
		}
		if len(r.Constraints) > 0 {
			opts = append(opts, dispatch.WithConstraints(r.Constraints))
		}
		if len(r.Defaults) > 0 {
			opts = append(opts, dispatch.WithDefaults(r.Defaults))
		}
		if r.Domain != "" {
			opts = append(opts, dispatch.WithDomain(r.Domain))
		}
		if len(r.Meta) > 0 {
			opts = append(opts, dispatch.WithMeta(r.Meta))
		}

		if err := router.Handle(r.Method, r.Path, h, opts...); err != nil {
			return fmt.Errorf("routeconf: route %d (%s %s): %w", i, r.Method, r.Path, err)
		}
	}

	return nil
}
