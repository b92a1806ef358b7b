package interceptors

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/strada-dev/strada/dispatch"
)

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored in the context by
// the RequestID interceptor. Returns an empty string if no ID is
// present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}

	return ""
}

// RequestID generates or propagates a request ID header. The ID is set
// on both the request (for downstream handlers) and the response (for
// the caller).
//
// RequestID implements the continuation-object interceptor convention.
type RequestID struct {
	// Header overrides the header used to propagate the request ID.
	// Defaults to "X-Request-ID" when empty.
	Header string

	// Generate is an optional callback that returns a new unique ID.
	// Defaults to a random UUID.
	Generate func(r *http.Request) string

	// TrustIncoming, when true, reuses an existing request ID from the
	// incoming request header instead of generating a new one.
	TrustIncoming bool
}

// Intercept implements dispatch.Interceptor.
func (m *RequestID) Intercept(w http.ResponseWriter, r *http.Request, next dispatch.Next) {
	header := m.Header
	if header == "" {
		header = "X-Request-ID"
	}

	id := ""
	if m.TrustIncoming {
		id = r.Header.Get(header)
	}
	if id == "" {
		if m.Generate != nil {
			id = m.Generate(r)
		} else {
			id = uuid.NewString()
		}
	}

	r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))
	r.Header.Set(header, id)
	w.Header().Set(header, id)

	next.Handle(w, r)
}
