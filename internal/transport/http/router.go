package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	creditshandler "termyx/internal/credits/handler"
	documentshandler "termyx/internal/documents/handler"
	"termyx/internal/fraud/device"
	"termyx/internal/platform/health"
	ratelimitconfig "termyx/internal/ratelimit/config"
	ratelimitmetrics "termyx/internal/ratelimit/metrics"
	ratelimitmw "termyx/internal/ratelimit/middleware"
	ratelimitservice "termyx/internal/ratelimit/service"
	signuphandler "termyx/internal/signup/handler"
	trialhandler "termyx/internal/trial/handler"
	"termyx/pkg/platform/middleware/admin"
	"termyx/pkg/platform/middleware/auth"
	devicemw "termyx/pkg/platform/middleware/device"
	"termyx/pkg/platform/middleware/metadata"
	"termyx/pkg/platform/middleware/request"
	"termyx/pkg/platform/middleware/requesttime"
)

// MaxBodyBytes caps request bodies. Document content is limited to 64 KiB
// by the handler, the rest is headroom for the envelope.
const MaxBodyBytes = 128 << 10

// Deps are the collaborators the router mounts. Handlers are required;
// metrics may be nil.
type Deps struct {
	Logger           *slog.Logger
	TrustedProxies   []netip.Prefix
	RequestMetrics   *request.Metrics
	RateLimitMetrics *ratelimitmetrics.Metrics
	RateLimit        *ratelimitconfig.Config
	Limiter          *ratelimitservice.Limiter
	Tokens           auth.JWTValidator
	AdminTokenHash   string
	OnAdminReject    admin.RejectFunc

	Health    *health.Handler
	Signup    *signuphandler.Handler
	Documents *documentshandler.Handler
	Credits   *creditshandler.Handler
	Trial     *trialhandler.Handler
}

// NewRouter wires every public endpoint with its middleware stack.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	logger := d.Logger

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.NewMiddleware(&metadata.Config{TrustedProxies: d.TrustedProxies}).Handler)
	r.Use(devicemw.Device(&devicemw.Config{Normalize: device.NormalizeFingerprint}))
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(d.RequestMetrics))

	// Probes and scraping bypass the throttle so an overloaded instance still reports.
	d.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	limits := ratelimitmw.New(logger, d.RateLimitMetrics)
	preset := func(name string) func(http.Handler) http.Handler {
		return limits.Limit(d.Limiter.Preset(d.RateLimit.MustPreset(name)))
	}

	r.Group(func(r chi.Router) {
		r.Use(request.BodyLimit(MaxBodyBytes))
		r.Use(ratelimitmw.GlobalThrottle(d.RateLimit.Global, logger, d.RateLimitMetrics))
		r.Use(request.ContentTypeJSON)

		d.Signup.Register(r, preset(ratelimitconfig.Auth))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(d.Tokens, logger))
			r.Use(preset(ratelimitconfig.Standard))

			d.Signup.RegisterAuthenticated(r)
			d.Documents.Register(r, preset(ratelimitconfig.PDF))
			d.Credits.Register(r)
			d.Trial.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(preset(ratelimitconfig.Strict))
			r.Use(admin.RequireAdminToken(d.AdminTokenHash, logger, d.OnAdminReject))

			d.Credits.RegisterAdmin(r)
		})
	})

	return r
}
