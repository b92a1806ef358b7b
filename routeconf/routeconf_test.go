package routeconf

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strada-dev/strada/dispatch"
)

const sampleDoc = `
routes:
  - method: GET
    path: /users/{id:int}
    name: users.show
    handler: users.show
    middleware: [auth]
  - method: POST
    path: /users
    handler: users.create
    defaults:
      format: json
  - method: GET
    path: /panel
    handler: panel
    domain: admin.example.com
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	require.Len(t, f.Routes, 3)

	assert.Equal(t, "GET", f.Routes[0].Method)
	assert.Equal(t, "/users/{id:int}", f.Routes[0].Path)
	assert.Equal(t, "users.show", f.Routes[0].Name)
	assert.Equal(t, []string{"auth"}, f.Routes[0].Middleware)
	assert.Equal(t, map[string]string{"format": "json"}, f.Routes[1].Defaults)
	assert.Equal(t, "admin.example.com", f.Routes[2].Domain)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "not yaml",
			doc:     "{{ nope",
			wantErr: "routeconf",
		},
		{
			name:    "missing method",
			doc:     "routes:\n  - path: /x\n    handler: h",
			wantErr: "route 0: missing method",
		},
		{
			name:    "missing path",
			doc:     "routes:\n  - method: GET\n    handler: h",
			wantErr: "route 0: missing path",
		},
		{
			name:    "missing handler",
			doc:     "routes:\n  - method: GET\n    path: /x",
			wantErr: "route 0: missing handler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApply(t *testing.T) {
	f, err := Load(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router := dispatch.NewRouter()
	router.Registry().RegisterFunc("auth", func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		next(w, r)
	}, 0)

	require.NoError(t, f.Apply(router, map[string]http.Handler{
		"users.show":   okHandler,
		"users.create": okHandler,
		"panel":        okHandler,
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// The int constraint from the path declaration holds.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, ok := router.Table().GetByName("users.show")
	assert.True(t, ok)
}

func TestApplyErrors(t *testing.T) {
	t.Run("unknown handler key", func(t *testing.T) {
		f, err := Parse([]byte("routes:\n  - method: GET\n    path: /x\n    handler: ghost"))
		require.NoError(t, err)

		err = f.Apply(dispatch.NewRouter(), map[string]http.Handler{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown handler "ghost"`)
	})

	t.Run("compile failure names the route", func(t *testing.T) {
		f, err := Parse([]byte("routes:\n  - method: GET\n    path: /x/{a?}/{b}\n    handler: h"))
		require.NoError(t, err)

		err = f.Apply(dispatch.NewRouter(), map[string]http.Handler{
			"h": http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "route 0 (GET /x/{a?}/{b})")
	})
}
