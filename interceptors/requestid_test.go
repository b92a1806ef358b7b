package interceptors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strada-dev/strada/dispatch"
)

func serveWith(t *testing.T, ic dispatch.Interceptor, req *http.Request, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	reg := dispatch.NewRegistry()
	reg.Register("requestid", ic, 0)
	h, err := reg.Chain(handler, "requestid")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := serveWith(t, &RequestID{}, req, func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		assert.Equal(t, seen, r.Header.Get("X-Request-ID"))
	})

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIncomingIgnoredByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-chosen")

	rec := serveWith(t, &RequestID{}, req, func(http.ResponseWriter, *http.Request) {})

	assert.NotEqual(t, "client-chosen", rec.Header().Get("X-Request-ID"))
}

func TestRequestIDTrustIncoming(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-chosen")

	rec := serveWith(t, &RequestID{TrustIncoming: true}, req, func(_ http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client-chosen", RequestIDFromContext(r.Context()))
	})

	assert.Equal(t, "client-chosen", rec.Header().Get("X-Request-ID"))
}

func TestRequestIDCustomHeaderAndGenerator(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	ic := &RequestID{
		Header:   "X-Trace-ID",
		Generate: func(*http.Request) string { return "fixed" },
	}
	rec := serveWith(t, ic, req, func(http.ResponseWriter, *http.Request) {})

	assert.Equal(t, "fixed", rec.Header().Get("X-Trace-ID"))
	assert.Empty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDFromContextAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}
