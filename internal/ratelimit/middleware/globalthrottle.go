package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"termyx/internal/ratelimit/config"
	"termyx/internal/ratelimit/metrics"
	"termyx/pkg/platform/httputil"
	"termyx/pkg/requestcontext"
)

// GlobalThrottle is a per-instance token bucket in front of every route.
// Overflow is answered with 503 so load balancers can shed to other instances.
func GlobalThrottle(cfg config.GlobalLimit, logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	if cfg.RequestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.RequestsPerSecond)
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, burst))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				ctx := r.Context()
				logger.WarnContext(ctx, "global throttle engaged",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				if m != nil {
					m.IncrementGlobalThrottled()
				}
				w.Header().Set("Retry-After", "1")
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"error":             "service_unavailable",
					"error_description": "Serviço temporariamente sobrecarregado. Tente novamente em instantes.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
