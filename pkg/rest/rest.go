package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/angeloszaimis/response-router/internal/circuitbreaker"
	"github.com/angeloszaimis/response-router/pkg/convert"
	"github.com/angeloszaimis/response-router/pkg/dispatch"
)

const (
	// RequestIDHeader carries the id generated for every request.
	RequestIDHeader = "X-Request-Id"

	DefaultUserAgent = "response-router"
	DefaultTimeout   = 30 * time.Second
)

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Rest is an HTTP client whose responses are handled by routing tables. It
// is safe for concurrent use.
type Rest struct {
	doer       Doer
	timeout    time.Duration
	baseURL    *url.URL
	headers    http.Header
	userAgent  string
	converters *convert.Registry
	dispatcher *dispatch.Dispatcher
	breakers   *circuitbreaker.Registry
	observer   Observer
	logger     *slog.Logger
	err        error
}

// Option configures a Rest client.
type Option func(*Rest)

// WithBaseURL resolves relative request URIs against base.
func WithBaseURL(base string) Option {
	return func(r *Rest) {
		u, err := url.Parse(base)
		if err != nil {
			r.err = fmt.Errorf("rest: base url: %w", err)
			return
		}
		if !u.IsAbs() {
			r.err = fmt.Errorf("rest: base url %q is not absolute", base)
			return
		}
		r.baseURL = u
	}
}

// WithTimeout sets the timeout of the default *http.Client. It has no effect
// when New is given a Doer.
func WithTimeout(d time.Duration) Option {
	return func(r *Rest) {
		r.timeout = d
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(r *Rest) {
		r.headers.Add(key, value)
	}
}

func WithUserAgent(ua string) Option {
	return func(r *Rest) {
		r.userAgent = ua
	}
}

// WithConverters sets the registry used to write request bodies. Unless
// WithDispatcher is also given, responses are read with it too.
func WithConverters(reg *convert.Registry) Option {
	return func(r *Rest) {
		if reg != nil {
			r.converters = reg
		}
	}
}

func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(r *Rest) {
		r.dispatcher = d
	}
}

// WithCircuitBreaker guards every host with a breaker from reg.
func WithCircuitBreaker(reg *circuitbreaker.Registry) Option {
	return func(r *Rest) {
		r.breakers = reg
	}
}

func WithObserver(o Observer) Option {
	return func(r *Rest) {
		r.observer = o
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Rest) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New returns a client sending requests through doer, or through an
// *http.Client when doer is nil.
func New(doer Doer, opts ...Option) (*Rest, error) {
	r := &Rest{
		doer:       doer,
		timeout:    DefaultTimeout,
		headers:    make(http.Header),
		userAgent:  DefaultUserAgent,
		converters: convert.DefaultRegistry(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.err != nil {
		return nil, r.err
	}

	if r.doer == nil {
		r.doer = &http.Client{Timeout: r.timeout}
	}
	if r.dispatcher == nil {
		r.dispatcher = dispatch.New(
			dispatch.WithConverters(r.converters),
			dispatch.WithLogger(r.logger),
		)
	}
	return r, nil
}

// Execute starts a request. uri may contain {name} placeholders that are
// replaced, in order, by vars.
func (r *Rest) Execute(ctx context.Context, method, uri string, vars ...any) *Request {
	return &Request{
		rest:   r,
		ctx:    ctx,
		method: method,
		uri:    uri,
		vars:   vars,
		header: make(http.Header),
	}
}

// Get is shorthand for Execute with http.MethodGet.
func (r *Rest) Get(ctx context.Context, uri string, vars ...any) *Request {
	return r.Execute(ctx, http.MethodGet, uri, vars...)
}

// Post is shorthand for Execute with http.MethodPost.
func (r *Rest) Post(ctx context.Context, uri string, vars ...any) *Request {
	return r.Execute(ctx, http.MethodPost, uri, vars...)
}
