package dispatch

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"unicode/utf8"

	"github.com/angeloszaimis/response-router/pkg/convert"
)

// DefaultSampleLimit is the number of body bytes kept in a ConversionError.
const DefaultSampleLimit = 512

// Dispatcher evaluates routing tables against responses. It is safe for
// concurrent use.
type Dispatcher struct {
	converters  *convert.Registry
	logger      *slog.Logger
	sampleLimit int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConverters sets the registry used for typed bindings.
func WithConverters(reg *convert.Registry) Option {
	return func(d *Dispatcher) {
		if reg != nil {
			d.converters = reg
		}
	}
}

// WithLogger sets the logger for routing decisions. Handler errors are never
// logged.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSampleLimit sets how many body bytes a ConversionError keeps.
func WithSampleLimit(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.sampleLimit = n
		}
	}
}

// New returns a Dispatcher using convert.DefaultRegistry unless configured
// otherwise.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		converters:  convert.DefaultRegistry(),
		logger:      slog.New(slog.DiscardHandler),
		sampleLimit: DefaultSampleLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDispatcher = New()

// Dispatch routes resp with a default Dispatcher.
func Dispatch(resp *http.Response, router Router) (*Result, error) {
	return defaultDispatcher.Dispatch(resp, router)
}

// Dispatch selects the binding of router that matches resp and runs its
// action. The body of resp is closed before Dispatch returns.
//
// The returned error is a *RoutingError, a *ConversionError, a *CaptureError
// or exactly the error returned by the handler that ran.
func (d *Dispatcher) Dispatch(resp *http.Response, router Router) (*Result, error) {
	if resp == nil {
		return nil, errors.New("dispatch: nil response")
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}
	if router == nil {
		return nil, errors.New("dispatch: nil router")
	}

	x := &exchange{
		Dispatcher: d,
		resp:       resp,
		result:     newResult(resp),
	}
	if err := router.route(x); err != nil {
		return nil, err
	}
	return x.result, nil
}

// exchange is the state of one Dispatch call.
type exchange struct {
	*Dispatcher
	resp   *http.Response
	result *Result

	body    []byte
	read    bool
	readErr error
}

func (x *exchange) convert(target reflect.Type) (any, error) {
	mt := contentTypeOf(x.resp)

	body, err := x.readBody()
	if err != nil {
		return nil, &ConversionError{Type: target, ContentType: mt, Err: err}
	}

	dst := reflect.New(target)
	if err := x.converters.Read(dst.Interface(), mt, body); err != nil {
		sample, truncated := truncate(body, x.sampleLimit)
		x.logger.Debug("body conversion failed",
			slog.String("type", target.String()),
			slog.String("content_type", mt.String()),
			slog.Any("err", err))

		return nil, &ConversionError{
			Type:        target,
			ContentType: mt,
			Sample:      sample,
			Truncated:   truncated,
			Err:         err,
		}
	}
	return dst.Elem().Interface(), nil
}

// readBody reads the body on first use and returns the same bytes afterwards.
func (x *exchange) readBody() ([]byte, error) {
	if x.read {
		return x.body, x.readErr
	}
	x.read = true

	if x.resp.Body == nil || x.resp.Body == http.NoBody {
		return nil, nil
	}
	x.body, x.readErr = io.ReadAll(x.resp.Body)
	return x.body, x.readErr
}

func truncate(body []byte, limit int) (string, bool) {
	if len(body) <= limit {
		return string(body), false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]), true
}
