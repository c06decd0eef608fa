package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/rebuildweb/internal/backend"
	"github.com/2beens/rebuildweb/internal/config"
	"github.com/2beens/rebuildweb/internal/middleware"
	"github.com/2beens/rebuildweb/internal/telemetry/metrics"
	"github.com/2beens/rebuildweb/internal/telemetry/tracing"
	"github.com/2beens/rebuildweb/internal/web"
	"github.com/2beens/rebuildweb/pkg"
)

const csrfKeyLength = 32

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config    *config.Config
	apiClient *backend.Client
	templates *web.Templates
	csrfKey   []byte
	location  *time.Location

	redisClient *redis.Client

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	CSRFKey                 string
	HoneycombTracingEnabled bool
	// BackendHTTPClient replaces the default traced client, mostly for tests.
	BackendHTTPClient *http.Client
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("rebuild", "web", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "rebuild-web", rdb)
	if err != nil {
		return nil, err
	}

	csrfKey, err := csrfKeyFrom(params.CSRFKey, cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	baseURL, err := backend.ResolveBaseURL(cfg.IsProduction(), cfg.BackendOrigin)
	if err != nil {
		return nil, fmt.Errorf("resolve backend base url: %w", err)
	}
	schema, err := backend.ParseSchemaVersion(cfg.BackendSchema)
	if err != nil {
		return nil, err
	}

	httpClient := params.BackendHTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.BackendTimeout(),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	apiClient, err := backend.NewClient(backend.NewClientParams{
		BaseURL:          baseURL,
		HTTPClient:       httpClient,
		Schema:           schema,
		LoginFormEncoded: cfg.LoginFormEncoded,
		MetricsManager:   metricsManager,
	})
	if err != nil {
		return nil, fmt.Errorf("new backend client: %w", err)
	}
	log.Debugf("using backend [%s], schema %s", baseURL, schema)

	templates, err := web.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	return &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		apiClient:   apiClient,
		templates:   templates,
		csrfKey:     csrfKey,
		location:    location,

		redisClient: rdb,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

// csrfKeyFrom decodes the CSRF auth key. Outside production a missing key is replaced by
// a random one, which invalidates open forms on every restart.
func csrfKeyFrom(key string, production bool) ([]byte, error) {
	if key != "" {
		if len(key) < csrfKeyLength {
			return nil, fmt.Errorf("csrf key must be at least %d bytes long", csrfKeyLength)
		}
		return []byte(key)[:csrfKeyLength], nil
	}

	if production {
		return nil, errors.New("csrf key not set")
	}

	log.Warnln("csrf key not set, using a random one")
	randomKey, err := pkg.GenerateRandomBytes(csrfKeyLength)
	if err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	return randomKey, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("rebuild-web-router"))

	r.Use(middleware.RequestID())
	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest())
	r.Use(web.CSRFMiddleware(s.csrfKey, s.config.CSRFSecure))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	webHandler := web.NewHandler(s.apiClient, s.templates, s.redisClient, s.location)
	webHandler.SetupRoutes(r, reqRateLimiter, s.metricsManager, s.config.AuthRateLimitAllowedPerMin)

	return r, nil
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
	if s.versionInfo != "" {
		log.Debugf("serving version: %s", s.versionInfo)
	}
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
