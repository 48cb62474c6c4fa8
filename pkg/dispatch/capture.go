package dispatch

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

// slot holds the value of the one capture a dispatch may perform. Every table
// runs a single action, so the ErrAlreadyCaptured guard in store is not
// reachable through Route.
type slot struct {
	value any
	typ   reflect.Type
	set   bool
}

func (s *slot) store(v any, t reflect.Type) error {
	if s.set {
		return &CaptureError{Reason: ErrAlreadyCaptured, Requested: t, Captured: s.typ}
	}
	s.value, s.typ, s.set = v, t, true
	return nil
}

// Result describes a dispatched response and holds its captured value.
type Result struct {
	status      int
	header      http.Header
	contentType mediatype.MediaType
	route       []string
	slot        slot
}

func newResult(resp *http.Response) *Result {
	return &Result{
		status:      resp.StatusCode,
		header:      resp.Header,
		contentType: contentTypeOf(resp),
	}
}

// StatusCode returns the status of the dispatched response.
func (r *Result) StatusCode() int {
	return r.status
}

// Header returns the headers of the dispatched response.
func (r *Result) Header() http.Header {
	return r.header
}

// ContentType returns the parsed content type, zero when absent.
func (r *Result) ContentType() mediatype.MediaType {
	return r.contentType
}

// Route returns the keys of the bindings taken, outermost first, joined by
// " > ". The wildcard is written as "*".
func (r *Result) Route() string {
	return strings.Join(r.route, " > ")
}

// Captured reports whether a capture ran.
func (r *Result) Captured() bool {
	return r != nil && r.slot.set
}

// Holder is the outcome of Retrieve.
type Holder[T any] struct {
	value   T
	present bool
	err     error
}

// Retrieve reads the captured value of r as T. It fails if nothing was
// captured or the captured value cannot be used as a T.
func Retrieve[T any](r *Result) Holder[T] {
	requested := reflect.TypeFor[T]()

	if !r.Captured() {
		return Holder[T]{err: &CaptureError{Reason: ErrNotCaptured, Requested: requested}}
	}

	captured := r.slot.typ
	if !captured.AssignableTo(requested) {
		return Holder[T]{err: &CaptureError{Reason: ErrCaptureType, Requested: requested, Captured: captured}}
	}

	v, _ := r.slot.value.(T)
	return Holder[T]{value: v, present: true}
}

// Get returns the captured value or a *CaptureError.
func (h Holder[T]) Get() (T, error) {
	return h.value, h.err
}

// OrElse returns the captured value, or def if there is none.
func (h Holder[T]) OrElse(def T) T {
	if !h.present {
		return def
	}
	return h.value
}

// Present reports whether a value of type T was captured.
func (h Holder[T]) Present() bool {
	return h.present
}

// Err returns the *CaptureError, if any.
func (h Holder[T]) Err() error {
	return h.err
}
