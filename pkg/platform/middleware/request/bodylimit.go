package request

import (
	"net/http"

	"termyx/pkg/platform/httputil"
)

// BodyLimit caps request bodies. Declared oversize bodies are refused with 413
// up front; undeclared ones fail on read through http.MaxBytesReader.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
					"error":             "request_too_large",
					"error_description": "request body too large",
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
