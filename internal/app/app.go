// Package app assembles the gate's stores, services and router from a
// config.Server and runs the HTTP server alongside its background workers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	accountstore "termyx/internal/account/store"
	"termyx/internal/audit"
	creditshandler "termyx/internal/credits/handler"
	creditsmetrics "termyx/internal/credits/metrics"
	creditsservice "termyx/internal/credits/service"
	documentshandler "termyx/internal/documents/handler"
	documentsmetrics "termyx/internal/documents/metrics"
	documentsservice "termyx/internal/documents/service"
	documentsstore "termyx/internal/documents/store"
	fraudmetrics "termyx/internal/fraud/metrics"
	fraudservice "termyx/internal/fraud/service"
	fraudstore "termyx/internal/fraud/store"
	"termyx/internal/gate"
	gatemetrics "termyx/internal/gate/metrics"
	jwttoken "termyx/internal/jwt_token"
	"termyx/internal/platform/config"
	"termyx/internal/platform/database"
	"termyx/internal/platform/health"
	"termyx/internal/platform/kafka"
	"termyx/internal/platform/kafka/producer"
	platformmetrics "termyx/internal/platform/metrics"
	redisclient "termyx/internal/platform/redis"
	ratelimitconfig "termyx/internal/ratelimit/config"
	ratelimitmetrics "termyx/internal/ratelimit/metrics"
	ratelimitservice "termyx/internal/ratelimit/service"
	"termyx/internal/ratelimit/store/window"
	"termyx/internal/ratelimit/workers/sweeper"
	"termyx/internal/seeder"
	signuphandler "termyx/internal/signup/handler"
	signupservice "termyx/internal/signup/service"
	httptransport "termyx/internal/transport/http"
	trialhandler "termyx/internal/trial/handler"
	trialservice "termyx/internal/trial/service"
	id "termyx/pkg/domain"
	"termyx/pkg/platform/circuit"
	"termyx/pkg/platform/middleware/metadata"
	"termyx/pkg/platform/middleware/request"
)

const auditBufferSize = 1024

// Metrics bundles every collector the process registers. Collectors are
// registered globally, so a process builds one bundle and shares it.
type Metrics struct {
	Process   *platformmetrics.Metrics
	Request   *request.Metrics
	RateLimit *ratelimitmetrics.Metrics
	Gate      *gatemetrics.Metrics
	Fraud     *fraudmetrics.Metrics
	Credits   *creditsmetrics.Metrics
	Documents *documentsmetrics.Metrics
}

func NewMetrics() *Metrics {
	return &Metrics{
		Process:   platformmetrics.New(),
		Request:   request.NewMetrics(),
		RateLimit: ratelimitmetrics.New(),
		Gate:      gatemetrics.New(),
		Fraud:     fraudmetrics.New(),
		Credits:   creditsmetrics.New(),
		Documents: documentsmetrics.New(),
	}
}

// accountStore is the users/plans/ledger store shared by credits, trial,
// signup and documents.
type accountStore interface {
	creditsservice.Store
	trialservice.Store
	signupservice.Profiles
	documentsservice.Profiles
	SetPlan(ctx context.Context, userID id.UserID, slug string) error
}

// App is a fully wired gate.
type App struct {
	cfg     config.Server
	logger  *slog.Logger
	metrics *Metrics

	pool      *database.Pool
	redis     *redisclient.Client
	producer  *producer.Producer
	windows   *window.InMemoryStore
	publisher *audit.Publisher

	Accounts  accountStore
	Blocklist seeder.BlocklistStore
	Fraud     *fraudservice.Service
	Credits   *creditsservice.Service
	Documents *documentsservice.Service
	Tokens    *jwttoken.JWTService
	Handler   http.Handler
}

type Option func(*App)

// WithMetrics enables Prometheus instrumentation. Without it the app runs
// uninstrumented, which lets tests build many apps in one process.
func WithMetrics(m *Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// New opens the configured backends and wires every module. An empty
// DATABASE_URL selects in-memory stores; an empty REDIS_URL keeps rate
// limiting process-local; KAFKA_BROKERS additionally streams audit events.
func New(ctx context.Context, cfg config.Server, logger *slog.Logger, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, logger: logger, metrics: &Metrics{}}
	for _, opt := range opts {
		opt(a)
	}
	m := a.metrics

	proxies, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse TRUSTED_PROXIES: %w", err)
	}

	a.pool, err = database.New(ctx, database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.redis, err = redisclient.New(ctx, cfg.Redis)
	if err != nil {
		a.closeBackends()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	var (
		fraudStore interface {
			fraudservice.Store
			seeder.BlocklistStore
		}
		docStore   documentsservice.Store
		auditStore audit.Store
	)
	if a.pool != nil {
		db := a.pool.DB()
		a.Accounts = accountstore.NewPostgres(db)
		fraudStore = fraudstore.NewPostgres(db)
		docStore = documentsstore.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		if m.Process != nil {
			if err := prometheus.Register(a.pool.Collector()); err != nil {
				logger.Warn("database stats collector not registered", "error", err)
			}
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		a.Accounts = accountstore.NewInMemory()
		fraudStore = fraudstore.NewInMemory()
		docStore = documentsstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		if _, err := seeder.New(fraudStore, logger).SeedDefaults(ctx); err != nil {
			a.closeBackends()
			return nil, err
		}
	}
	a.Blocklist = fraudStore

	if cfg.Kafka.Brokers != "" {
		a.producer, err = producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			Acks:            cfg.Kafka.Acks,
			DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
		}, logger)
		if err != nil {
			a.closeBackends()
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		auditStore = audit.NewStreamStore(auditStore, a.producer, cfg.Kafka.AuditTopic, logger)
	}

	publisherOpts := []audit.PublisherOption{
		audit.WithAsyncBuffer(auditBufferSize),
		audit.WithPublisherLogger(logger),
	}
	if m.Process != nil {
		publisherOpts = append(publisherOpts, audit.WithOnDrop(m.Process.IncrementAuditEventsDropped))
	}
	a.publisher = audit.NewPublisher(auditStore, publisherOpts...)

	runner := gate.NewRunner(gate.WithLogger(logger), gate.WithMetrics(m.Gate))

	a.Fraud = fraudservice.New(fraudStore,
		fraudservice.WithLogger(logger),
		fraudservice.WithMetrics(m.Fraud),
		fraudservice.WithRunner(runner),
		fraudservice.WithAuditPublisher(a.publisher),
		fraudservice.WithIPThreshold(cfg.Signup.IPWindow, cfg.Signup.IPMax),
	)
	trial := trialservice.New(a.Accounts,
		trialservice.WithLogger(logger),
		trialservice.WithRunner(runner),
	)
	a.Credits = creditsservice.New(a.Accounts,
		creditsservice.WithLogger(logger),
		creditsservice.WithMetrics(m.Credits),
		creditsservice.WithAuditPublisher(a.publisher),
	)
	a.Documents = documentsservice.New(docStore, a.Accounts, trial, a.Credits,
		documentsservice.WithLogger(logger),
		documentsservice.WithMetrics(m.Documents),
		documentsservice.WithAuditPublisher(a.publisher),
	)
	signup := signupservice.New(a.Fraud, a.Accounts,
		signupservice.WithLogger(logger),
		signupservice.WithAuditPublisher(a.publisher),
	)

	a.Tokens = jwttoken.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)

	rlConfig := ratelimitconfig.DefaultConfig()
	rlConfig.Global = ratelimitconfig.GlobalLimit{
		RequestsPerSecond: cfg.RateLimit.GlobalRPS,
		Burst:             cfg.RateLimit.GlobalBurst,
	}
	limiter := a.newLimiter(m.RateLimit)

	healthHandler := health.New(cfg.Environment, a.backends())
	if a.pool != nil {
		healthHandler.RegisterCheck("database", a.pool.Health)
	}
	if a.redis != nil {
		healthHandler.RegisterCheck("redis", a.redis.Health)
	}
	if a.producer != nil {
		healthHandler.RegisterCheck("kafka", kafka.NewHealthChecker(cfg.Kafka.Brokers).Check)
	}

	a.Handler = httptransport.NewRouter(httptransport.Deps{
		Logger:           logger,
		TrustedProxies:   proxies,
		RequestMetrics:   m.Request,
		RateLimitMetrics: m.RateLimit,
		RateLimit:        rlConfig,
		Limiter:          limiter,
		Tokens:           jwttoken.NewJWTServiceAdapter(a.Tokens),
		AdminTokenHash:   cfg.AdminTokenHash,
		OnAdminReject:    a.onAdminReject,
		Health:           healthHandler,
		Signup:           signuphandler.New(signup, logger),
		Documents:        documentshandler.New(a.Documents, logger),
		Credits:          creditshandler.New(a.Credits, logger),
		Trial:            trialhandler.New(trial, logger),
	})

	if m.Process != nil {
		m.Process.SetBuildInfo(health.Version, cfg.Environment)
	}
	return a, nil
}

func (a *App) backends() health.Backends {
	b := health.Backends{Storage: "memory", RateLimit: "memory", Audit: "memory"}
	if a.pool != nil {
		b.Storage, b.Audit = "postgres", "postgres"
	}
	if a.redis != nil {
		b.RateLimit = "redis"
	}
	if a.producer != nil {
		b.Audit += "+kafka"
	}
	return b
}

// newLimiter keeps counters in Redis when configured, falling back to the
// process-local windows while Redis is failing.
func (a *App) newLimiter(m *ratelimitmetrics.Metrics) *ratelimitservice.Limiter {
	a.windows = window.NewInMemory()
	opts := []ratelimitservice.Option{
		ratelimitservice.WithLogger(a.logger),
		ratelimitservice.WithMetrics(m),
	}
	if a.redis == nil {
		return ratelimitservice.New(a.windows, opts...)
	}

	breakerOpts := []circuit.Option{}
	if a.cfg.RateLimit.FailureTrigger > 0 {
		breakerOpts = append(breakerOpts, circuit.WithFailureThreshold(a.cfg.RateLimit.FailureTrigger))
	}
	if m != nil {
		breakerOpts = append(breakerOpts, circuit.WithOnStateChange(func(name string, state circuit.State) {
			m.SetCircuitOpen(name, state == circuit.StateOpen)
		}))
	}
	breaker := circuit.New("ratelimit-redis", breakerOpts...)
	opts = append(opts, ratelimitservice.WithFallback(a.windows, breaker))
	return ratelimitservice.New(window.NewRedis(a.redis.Client), opts...)
}

func (a *App) onAdminReject(ctx context.Context) {
	if a.metrics.Process != nil {
		a.metrics.Process.IncrementAdminAuthRejected()
	}
	event := audit.NewEvent(ctx, audit.ActionAdminAuthRejected)
	event.Decision = "denied"
	if err := a.publisher.Emit(ctx, event); err != nil {
		a.logger.WarnContext(ctx, "audit emit failed", "error", err, "action", event.Action)
	}
}

// Run serves HTTP and runs the background workers until ctx is cancelled,
// then shuts the server down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.Handler,
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting http server", "addr", a.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	sweep := sweeper.New(a.windows,
		sweeper.WithLogger(a.logger),
		sweeper.WithInterval(a.cfg.RateLimit.SweepInterval),
		sweeper.WithMetrics(a.metrics.RateLimit),
	)
	g.Go(func() error {
		return ignoreCancel(sweep.Start(gctx))
	})

	if a.redis != nil && a.metrics.Process != nil {
		g.Go(func() error {
			return ignoreCancel(a.redis.RunPoolStats(gctx, a.cfg.RateLimit.StatsInterval, a.logger))
		})
	}

	return g.Wait()
}

// Close flushes pending audit events and releases the backends.
func (a *App) Close() {
	a.publisher.Close()
	a.closeBackends()
}

func (a *App) closeBackends() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close failed", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", "error", err)
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("database close failed", "error", err)
		}
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
