package device

import (
	"net/http"

	"termyx/pkg/requestcontext"
)

// DefaultHeader is the request header carrying the client-computed device fingerprint hash.
const DefaultHeader = "X-Device-Fingerprint"

// Config holds configuration for the Device middleware.
type Config struct {
	// Header overrides DefaultHeader.
	Header string

	// Normalize canonicalizes the raw header value and returns "" when it is
	// not an acceptable fingerprint. Typically fraud/device.NormalizeFingerprint.
	Normalize func(raw string) string
}

// Device reads the fingerprint header and stores the normalized hash in the
// context. Missing or invalid values leave the context untouched so the
// fingerprint check is skipped downstream.
func Device(cfg *Config) func(http.Handler) http.Handler {
	header := DefaultHeader
	var normalize func(string) string
	if cfg != nil {
		if cfg.Header != "" {
			header = cfg.Header
		}
		normalize = cfg.Normalize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(header)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			fingerprint := raw
			if normalize != nil {
				fingerprint = normalize(raw)
			}
			if fingerprint == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := requestcontext.WithDeviceFingerprint(r.Context(), fingerprint)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
