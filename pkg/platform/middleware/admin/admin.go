package admin

import (
	"context"
	"log/slog"
	"net/http"

	dErrors "termyx/pkg/domain-errors"
	"termyx/pkg/platform/httputil"
	"termyx/pkg/requestcontext"
	"termyx/pkg/secrets"
)

// TokenHeader carries the operator token on admin requests.
const TokenHeader = "X-Admin-Token"

type contextKeyAdminActorID struct{}

// ContextKeyAdminActorID is exported for use in handlers and tests.
var ContextKeyAdminActorID = contextKeyAdminActorID{}

// GetAdminActorID returns the operator name sent in X-Admin-Actor-ID, or "".
func GetAdminActorID(ctx context.Context) string {
	if actorID, ok := ctx.Value(ContextKeyAdminActorID).(string); ok {
		return actorID
	}
	return ""
}

// RejectFunc is called for every rejected admin request, e.g. to emit an audit event.
type RejectFunc func(ctx context.Context)

// RequireAdminToken checks X-Admin-Token against a bcrypt hash. An empty hash
// disables the admin surface entirely.
func RequireAdminToken(tokenHash string, logger *slog.Logger, onReject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if err := secrets.Verify(r.Header.Get(TokenHeader), tokenHash); err != nil {
				logger.WarnContext(ctx, "admin token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				if onReject != nil {
					onReject(ctx)
				}
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			if actorID := r.Header.Get("X-Admin-Actor-ID"); actorID != "" {
				ctx = context.WithValue(ctx, ContextKeyAdminActorID, actorID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
