package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/response-router/pkg/dispatch"
	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

// Request is a request being built. It is not safe for concurrent use and is
// meant to be dispatched once.
type Request struct {
	rest   *Rest
	ctx    context.Context
	method string
	uri    string
	vars   []any
	header http.Header

	body     any
	bodyType mediatype.MediaType
	hasBody  bool
}

// Header adds a header to the request.
func (r *Request) Header(key, value string) *Request {
	r.header.Add(key, value)
	return r
}

// Accept sets the Accept header to the given media types.
func (r *Request) Accept(types ...mediatype.MediaType) *Request {
	values := make([]string, 0, len(types))
	for _, mt := range types {
		values = append(values, mt.String())
	}
	r.header.Set("Accept", strings.Join(values, ", "))
	return r
}

// Body sets the request body, written as mt by the client's converters.
func (r *Request) Body(mt mediatype.MediaType, v any) *Request {
	r.body, r.bodyType, r.hasBody = v, mt, true
	return r
}

// Dispatch sends the request and routes the response through router. The
// response body is closed before Dispatch returns.
//
// Errors from router, including those returned by handlers, are returned
// unchanged. Failures to send are *TransportError, an open breaker is
// ErrCircuitOpen.
func (r *Request) Dispatch(router dispatch.Router) (*dispatch.Result, error) {
	req, err := r.build()
	if err != nil {
		return nil, err
	}

	c := r.rest
	x := Exchange{
		RequestID: req.Header.Get(RequestIDHeader),
		Method:    req.Method,
		Host:      req.URL.Host,
		URL:       req.URL.String(),
	}
	defer func() {
		if c.observer != nil {
			c.observer.Observe(x)
		}
	}()

	if c.breakers != nil && !c.breakers.For(x.Host).Allow() {
		x.Err = fmt.Errorf("rest: %s %s: %w", x.Method, x.Host, ErrCircuitOpen)
		return nil, x.Err
	}

	c.logger.Debug("sending request",
		slog.String("method", x.Method),
		slog.String("url", x.URL),
		slog.String("request_id", x.RequestID))

	start := time.Now()
	resp, err := c.doer.Do(req)
	x.Duration = time.Since(start)
	if err != nil {
		r.recordFailure(x.Host)
		c.logger.Warn("request failed",
			slog.String("method", x.Method),
			slog.String("url", x.URL),
			slog.String("request_id", x.RequestID),
			slog.Any("err", err))

		x.Err = &TransportError{Method: x.Method, URL: x.URL, Err: err}
		return nil, x.Err
	}

	x.Status = resp.StatusCode
	if resp.StatusCode >= http.StatusInternalServerError {
		r.recordFailure(x.Host)
	} else if c.breakers != nil {
		c.breakers.For(x.Host).RecordSuccess()
	}

	result, err := c.dispatcher.Dispatch(resp, router)
	if result != nil {
		x.Route = result.Route()
	}
	x.Err = err
	return result, err
}

func (r *Request) recordFailure(host string) {
	if r.rest.breakers != nil {
		r.rest.breakers.For(host).RecordFailure()
	}
}

func (r *Request) build() (*http.Request, error) {
	c := r.rest

	uri, err := expand(r.uri, r.vars)
	if err != nil {
		return nil, err
	}
	u, err := resolve(c.baseURL, uri)
	if err != nil {
		return nil, fmt.Errorf("rest: %s %s: %w", r.method, uri, err)
	}

	var body io.Reader
	if r.hasBody {
		b, err := c.converters.Write(r.body, r.bodyType)
		if err != nil {
			return nil, fmt.Errorf("rest: %s %s: write body: %w", r.method, u, err)
		}
		body = bytes.NewReader(b)
	}

	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("rest: %s %s: %w", r.method, u, err)
	}

	for k, values := range c.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	for k, values := range r.header {
		req.Header[k] = append([]string(nil), values...)
	}
	if r.hasBody {
		req.Header.Set("Content-Type", r.bodyType.String())
	}
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return req, nil
}
