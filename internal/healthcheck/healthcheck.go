package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/angeloszaimis/response-router/internal/endpoint"
	"github.com/angeloszaimis/response-router/internal/metrics"
	"github.com/angeloszaimis/response-router/pkg/dispatch"
	"github.com/angeloszaimis/response-router/pkg/mediatype"
	"github.com/angeloszaimis/response-router/pkg/problem"
	"github.com/angeloszaimis/response-router/pkg/rest"
)

const DefaultPath = "/health"

// ErrUnhealthy is returned by Probe when the endpoint answered but reported
// itself as not healthy.
var ErrUnhealthy = errors.New("endpoint is unhealthy")

// Report is a JSON health document such as {"status": "UP"}.
type Report struct {
	Status string `json:"status"`
}

// Healthy reports whether the status is one of the common "up" spellings.
// An empty status counts as healthy.
func (r Report) Healthy() bool {
	switch strings.ToUpper(r.Status) {
	case "", "UP", "OK", "PASS", "HEALTHY":
		return true
	default:
		return false
	}
}

// Checker probes endpoints through a rest client.
type Checker struct {
	client *rest.Rest
	path   string
	events *metrics.Collector
	logger *slog.Logger
	router dispatch.Router
}

// New returns a Checker that probes path below every endpoint. events may be
// nil.
func New(client *rest.Rest, path string, events *metrics.Collector, logger *slog.Logger) *Checker {
	if path == "" {
		path = DefaultPath
	}
	return &Checker{
		client: client,
		path:   path,
		events: events,
		logger: logger,
		router: probeRouter(),
	}
}

// probeRouter accepts any 2xx; a JSON body, when present, must report an up
// status. Problems and vnd.errors are raised, other failures carry the status.
func probeRouter() dispatch.Router {
	unhealthy := func(resp *http.Response) error {
		return fmt.Errorf("%w: %s", ErrUnhealthy, dispatch.Status(resp.StatusCode))
	}

	return dispatch.Route(dispatch.StatusSeries(),
		dispatch.On(dispatch.Successful).Dispatch(dispatch.Route(dispatch.ContentType(),
			dispatch.OnAs[Report](mediatype.JSON).Capture(),
			dispatch.OnAs[Report](mediatype.MustParse("application/*+json")).Capture(),
			dispatch.AnyContentType().Pass(),
		)),
		dispatch.AnySeries().Dispatch(dispatch.Route(dispatch.ContentType(),
			append(problem.Propagate(),
				dispatch.AnyContentType().Call(unhealthy),
			)...,
		)),
	)
}

// Probe sends one health request to ep and records the outcome on it. It
// returns nil when the endpoint is healthy.
func (c *Checker) Probe(ctx context.Context, ep *endpoint.Endpoint) error {
	start := time.Now()
	result, err := c.client.Get(ctx, ep.HealthURL(c.path).String()).
		Accept(mediatype.JSON, mediatype.Problem, mediatype.All).
		Dispatch(c.router)
	latency := time.Since(start)

	if err == nil {
		if report, rerr := dispatch.Retrieve[Report](result).Get(); rerr == nil && !report.Healthy() {
			err = fmt.Errorf("%w: status %q", ErrUnhealthy, report.Status)
		}
	}

	var changed bool
	if err != nil {
		changed = ep.RecordFailure(err)
	} else {
		changed = ep.RecordSuccess(latency)
	}

	if changed {
		c.announce(ep, err)
	}
	return err
}

func (c *Checker) announce(ep *endpoint.Endpoint, err error) {
	healthy := err == nil
	if healthy {
		c.logger.Info("endpoint is up",
			slog.String("endpoint", ep.Name()),
			slog.String("url", ep.URL().String()))
	} else {
		c.logger.Warn("endpoint is down",
			slog.String("endpoint", ep.Name()),
			slog.String("url", ep.URL().String()),
			slog.Any("err", err))
	}

	if c.events != nil {
		c.events.Emit(metrics.MetricEvent{
			Type:     metrics.EventHealthChanged,
			Endpoint: ep.URL().Host,
			Healthy:  healthy,
		})
	}
}

// Run probes ep immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, ep *endpoint.Endpoint, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = c.Probe(ctx, ep)

		select {
		case <-ctx.Done():
			c.logger.Info("health check stopped", slog.String("endpoint", ep.Name()))
			return
		case <-ticker.C:
		}
	}
}
