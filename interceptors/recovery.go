package interceptors

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/strada-dev/strada/dispatch"
)

// Recovery returns an interceptor that recovers from panics in
// downstream stages, answering 500 Internal Server Error and logging
// the recovered value with the request method, path and host. The query
// string is never logged.
//
// Recovery uses the legacy continuation-function convention; the
// pipeline adapts it transparently.
func Recovery(logger *zap.Logger) dispatch.InterceptorFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					zap.Any("panic", v),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("host", r.Host),
				)

				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		next(w, r)
	}
}
