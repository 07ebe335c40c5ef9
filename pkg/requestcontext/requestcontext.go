// Package requestcontext carries request-scoped values (request id, client
// metadata, caller identity, request time) through context.Context.
package requestcontext

import (
	"context"
	"time"

	id "termyx/pkg/domain"
)

type (
	requestIDKey         struct{}
	clientIPKey          struct{}
	userAgentKey         struct{}
	userIDKey            struct{}
	userEmailKey         struct{}
	deviceFingerprintKey struct{}
	requestTimeKey       struct{}
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request id or "" outside an HTTP request.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata stores the resolved client IP and User-Agent.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, ip)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey{}).(string); ok {
		return v
	}
	return ""
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the authenticated caller, or a nil UserID when unauthenticated.
func UserID(ctx context.Context) id.UserID {
	if v, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return v
	}
	return id.UserID{}
}

// WithUserEmail stores the caller's email as asserted by the auth provider.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailKey{}, email)
}

func UserEmail(ctx context.Context) string {
	if v, ok := ctx.Value(userEmailKey{}).(string); ok {
		return v
	}
	return ""
}

// WithDeviceFingerprint stores the client-derived device fingerprint hash.
func WithDeviceFingerprint(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, deviceFingerprintKey{}, fingerprint)
}

func DeviceFingerprint(ctx context.Context) string {
	if v, ok := ctx.Value(deviceFingerprintKey{}).(string); ok {
		return v
	}
	return ""
}

// WithTime injects a specific "now" into a context. Tests, workers and the
// CLI use it to pin time; HTTP requests get it from the requesttime middleware.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the request-scoped time, falling back to time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
