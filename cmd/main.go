package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/response-router/config"
	"github.com/angeloszaimis/response-router/internal/circuitbreaker"
	"github.com/angeloszaimis/response-router/internal/endpoint"
	"github.com/angeloszaimis/response-router/internal/handler"
	"github.com/angeloszaimis/response-router/internal/healthcheck"
	"github.com/angeloszaimis/response-router/internal/httpserver"
	"github.com/angeloszaimis/response-router/internal/metrics"
	"github.com/angeloszaimis/response-router/pkg/dispatch"
	"github.com/angeloszaimis/response-router/pkg/logger"
	"github.com/angeloszaimis/response-router/pkg/rest"
)

const metricsBufferSize = 1000

var errNoEndpoints = errors.New("no valid endpoints configured")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "monitor",
		Short:        "Probe HTTP endpoints and report their health",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			log := logger.New(cfg.Logging.Level, cfg.Logging.AddSource, cfg.Server.Environment)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := run(ctx, cfg, log); err != nil {
				log.Error("monitor failed", slog.Any("err", err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to the configuration file (default: config.yaml in ./config or .)")

	return cmd
}

// monitor holds the wired components of the service.
type monitor struct {
	endpoints []*endpoint.Endpoint
	collector *metrics.Collector
	breakers  *circuitbreaker.Registry
	checker   *healthcheck.Checker
	interval  time.Duration
	log       *slog.Logger
}

func newMonitor(cfg *config.Config, log *slog.Logger) (*monitor, error) {
	endpoints, err := initializeEndpoints(cfg, log)
	if err != nil {
		return nil, err
	}

	timeout, reset, interval := cfg.Durations()

	collector := metrics.NewCollector(metricsBufferSize, log)
	breakers := circuitbreaker.NewRegistry(cfg.CircuitBreaker.Threshold, reset)

	client, err := rest.New(nil,
		rest.WithTimeout(timeout),
		rest.WithUserAgent(cfg.Client.UserAgent),
		rest.WithCircuitBreaker(breakers),
		rest.WithObserver(collector),
		rest.WithLogger(log),
		rest.WithDispatcher(dispatch.New(
			dispatch.WithSampleLimit(cfg.Client.BodySampleLimit),
			dispatch.WithLogger(log),
		)),
	)
	if err != nil {
		return nil, err
	}

	return &monitor{
		endpoints: endpoints,
		collector: collector,
		breakers:  breakers,
		checker:   healthcheck.New(client, cfg.HealthCheck.Path, collector, log),
		interval:  interval,
		log:       log,
	}, nil
}

// start runs the collector and one health check loop per endpoint until
// ctx is done.
func (m *monitor) start(ctx context.Context) {
	m.collector.Start(ctx)
	for _, ep := range m.endpoints {
		go m.checker.Run(ctx, ep, m.interval)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	m, err := newMonitor(cfg, log)
	if err != nil {
		return err
	}

	srv, err := httpserver.New(cfg.Server.Address,
		handler.AccessLog(log, setupRouter(m)),
		httpserver.WithLogger(log))
	if err != nil {
		return err
	}

	l, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return err
	}

	m.start(ctx)
	log.Info("monitor started",
		slog.String("addr", l.Addr().String()),
		slog.Int("endpoints", len(m.endpoints)),
		slog.Duration("interval", m.interval))

	return srv.Run(ctx, l)
}

func initializeEndpoints(cfg *config.Config, log *slog.Logger) ([]*endpoint.Endpoint, error) {
	endpoints := make([]*endpoint.Endpoint, 0, len(cfg.Endpoints))

	for _, ec := range cfg.Endpoints {
		u, err := url.Parse(ec.URL)
		if err != nil || u.Host == "" {
			log.Error("skipping endpoint with invalid url",
				slog.String("name", ec.Name),
				slog.String("url", ec.URL),
				slog.Any("err", err))
			continue
		}
		endpoints = append(endpoints, endpoint.New(ec.Name, u))
	}

	if len(endpoints) == 0 {
		return nil, errNoEndpoints
	}
	return endpoints, nil
}
