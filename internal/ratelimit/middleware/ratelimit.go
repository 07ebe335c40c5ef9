package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"termyx/internal/ratelimit/metrics"
	"termyx/internal/ratelimit/models"
	"termyx/pkg/platform/httputil"
	"termyx/pkg/platform/privacy"
	"termyx/pkg/requestcontext"
)

// Checker is a rate limit preset bound to a limiter.
type Checker interface {
	Name() string
	Check(ctx context.Context, identifier string) (*models.Result, error)
}

type Middleware struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(logger *slog.Logger, m *metrics.Metrics) *Middleware {
	return &Middleware{logger: logger, metrics: m}
}

// RateLimitedResponse is the 429 body.
type RateLimitedResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

// Identifier keys a request by the authenticated user when there is one, else by client IP.
func Identifier(ctx context.Context) string {
	if userID := requestcontext.UserID(ctx); !userID.IsNil() {
		return "user:" + userID.String()
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		return "ip:" + ip
	}
	return "ip:unknown"
}

// Limit enforces a preset. Limiter errors admit the request.
func (m *Middleware) Limit(preset Checker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identifier := Identifier(ctx)

			result, err := preset.Check(ctx, identifier)
			if err != nil {
				m.logger.WarnContext(ctx, "rate limit check failed, admitting request",
					"preset", preset.Name(),
					"error", err,
					"ip_prefix", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
					"request_id", requestcontext.RequestID(ctx),
				)
				if m.metrics != nil {
					m.metrics.IncrementCheck(preset.Name(), "error")
				}
				next.ServeHTTP(w, r)
				return
			}

			setHeaders(w, result)

			if !result.Success {
				retryAfter := result.RetryAfter(requestcontext.Now(ctx))
				m.logger.InfoContext(ctx, "rate limit exceeded",
					"preset", preset.Name(),
					"limit", result.Limit,
					"ip_prefix", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, &RateLimitedResponse{
					Error:            "rate_limited",
					ErrorDescription: fmt.Sprintf("Muitas requisições. Tente novamente em %d segundos.", retryAfter),
					RetryAfter:       retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setHeaders(w http.ResponseWriter, result *models.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))
	if result.Degraded {
		h.Set("X-RateLimit-Status", "degraded")
	}
}
