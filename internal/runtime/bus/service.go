// Package bus connects the envelope protocol to a message bus through a
// Watermill router. Publishing builds an envelope and sends its body with the
// type tag and publisher identity as message metadata. Consuming dispatches
// every received message through the protocol before the handler sees it.
package bus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/drblury/schemaflow/internal/runtime/config"
	"github.com/drblury/schemaflow/internal/runtime/envelope"
	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	"github.com/drblury/schemaflow/internal/runtime/logging"
	"github.com/drblury/schemaflow/transport"
)

const tracerName = "github.com/drblury/schemaflow/bus"

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

// Dependencies holds the optional collaborators of a Service. Zero values
// fall back to the process-wide defaults.
type Dependencies struct {
	// Transports selects the transport registry. Defaults to transport.DefaultRegistry.
	Transports *transport.Registry
	// Registerer and Gatherer back the router metrics and the /metrics endpoint.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	// TracerProvider creates the consume spans. Defaults to the global provider.
	TracerProvider trace.TracerProvider
	// Middlewares are added after the default chain.
	Middlewares []message.HandlerMiddleware
}

// Service publishes and consumes envelopes over one transport.
type Service struct {
	conf     *config.Config
	logger   logging.ServiceLogger
	protocol *envelope.Protocol

	transport    transport.Transport
	capabilities transport.Capabilities
	router       *message.Router
	tracer       trace.Tracer
	gatherer     prometheus.Gatherer

	consumersMu sync.Mutex
	consumers   map[string]struct{}
}

// NewService builds the configured transport and a router with the default
// middleware chain: metrics (when enabled), retry, poison queue (when
// configured) and panic recovery. Register consumers before calling Start.
func NewService(ctx context.Context, conf *config.Config, logger logging.ServiceLogger, protocol *envelope.Protocol, deps Dependencies) (*Service, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if protocol == nil {
		return nil, errspkg.ErrProtocolRequired
	}
	if err := errspkg.NewConfigValidationError(conf.Validate()); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger).With(logging.LogFields{"component": "bus"})
	wmLogger := logging.NewWatermillAdapter(logger)

	registry := deps.Transports
	if registry == nil {
		registry = transport.DefaultRegistry
	}
	name := transport.ResolveName(conf)
	logger.Info("Creating event bus", logging.LogFields{
		"pubsub_system": name,
		"destination":   conf.Destination,
		"config":        conf,
	})

	tr, err := registry.Build(ctx, conf, wmLogger)
	if err != nil {
		return nil, err
	}

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		_ = tr.Close()
		return nil, err
	}
	router.AddPlugin(plugin.SignalsHandler)

	provider := deps.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Service{
		conf:         conf,
		logger:       logger,
		protocol:     protocol,
		transport:    tr,
		capabilities: registry.GetCapabilities(name),
		router:       router,
		tracer:       provider.Tracer(tracerName),
		gatherer:     gatherer,
		consumers:    make(map[string]struct{}),
	}

	if err := s.addMiddlewares(deps); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) addMiddlewares(deps Dependencies) error {
	if s.conf.MetricsEnabled {
		registerer := deps.Registerer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		builder := metrics.NewPrometheusMetricsBuilder(registerer, "schemaflow", transport.ResolveName(s.conf))
		builder.AddPrometheusRouterMetrics(s.router)
	}

	s.router.AddMiddleware(s.retryMiddleware())

	if s.conf.PoisonQueue != "" {
		poison, err := middleware.PoisonQueueWithFilter(s.transport.Publisher, s.conf.PoisonQueue, IsRejected)
		if err != nil {
			return fmt.Errorf("poison queue middleware: %w", err)
		}
		s.router.AddMiddleware(poison)
	}

	s.router.AddMiddleware(middleware.Recoverer)
	s.router.AddMiddleware(deps.Middlewares...)
	return nil
}

// retryMiddleware retries failed handlers with exponential backoff. Rejected
// envelopes are never retried.
func (s *Service) retryMiddleware() message.HandlerMiddleware {
	maxRetries := s.conf.RetryMaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	initial := s.conf.RetryInitialInterval
	if initial <= 0 {
		initial = time.Second
	}
	maxInterval := s.conf.RetryMaxInterval
	if maxInterval <= 0 {
		maxInterval = 16 * time.Second
	}

	return middleware.Retry{
		MaxRetries:      maxRetries,
		InitialInterval: initial,
		MaxInterval:     maxInterval,
		ShouldRetry: func(params middleware.RetryParams) bool {
			return !IsRejected(params.Err)
		},
		Logger: logging.NewWatermillAdapter(s.logger),
	}.Middleware
}

// Protocol returns the envelope protocol the service dispatches with.
func (s *Service) Protocol() *envelope.Protocol { return s.protocol }

// Capabilities returns the capabilities of the active transport.
func (s *Service) Capabilities() transport.Capabilities { return s.capabilities }

// Publisher returns the transport publisher.
func (s *Service) Publisher() message.Publisher { return s.transport.Publisher }

// Subscriber returns the transport subscriber.
func (s *Service) Subscriber() message.Subscriber { return s.transport.Subscriber }

// Running is closed once the router has started all consumers.
func (s *Service) Running() chan struct{} { return s.router.Running() }

// Start runs the router until ctx is cancelled. When metrics are enabled on a
// port, a /metrics endpoint is served for the same lifetime.
func (s *Service) Start(ctx context.Context) error {
	if s.conf.MetricsEnabled && s.conf.MetricsPort > 0 {
		s.serveMetrics(ctx)
	}
	return routerRun(s.router, ctx)
}

func (s *Service) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.conf.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("Starting metrics server", logging.LogFields{"address": server.Addr})
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", err, logging.LogFields{"address": server.Addr})
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

// Close stops the router and closes the transport.
func (s *Service) Close() error {
	return errors.Join(s.router.Close(), s.transport.Close())
}
