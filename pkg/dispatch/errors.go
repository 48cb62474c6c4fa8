package dispatch

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/angeloszaimis/response-router/pkg/mediatype"
)

var (
	// ErrNoRoute is matched by *RoutingError.
	ErrNoRoute = errors.New("no binding matched the response")

	// ErrConversion is matched by *ConversionError.
	ErrConversion = errors.New("response body could not be converted")

	// ErrNotCaptured is returned by Holder.Get when nothing was captured.
	ErrNotCaptured = errors.New("no value was captured")

	// ErrCaptureType is returned by Holder.Get when the captured value is not
	// of the requested type.
	ErrCaptureType = errors.New("captured value has a different type")

	// ErrAlreadyCaptured is returned by Dispatch when a second capture runs
	// for the same response.
	ErrAlreadyCaptured = errors.New("a value was already captured")
)

// RoutingError reports a response for which no binding and no wildcard
// matched.
type RoutingError struct {
	Status      int
	ContentType mediatype.MediaType
	Selector    string
	Key         string
	Table       string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("dispatch: no binding for %s %s in %s (status %d, content type %q)",
		e.Selector, e.Key, e.Table, e.Status, e.ContentType.String())
}

func (e *RoutingError) Unwrap() error {
	return ErrNoRoute
}

// ConversionError reports a body that could not be converted to the type a
// binding declared. Sample holds the start of the body.
type ConversionError struct {
	Type        reflect.Type
	ContentType mediatype.MediaType
	Sample      string
	Truncated   bool
	Err         error
}

func (e *ConversionError) Error() string {
	sample := e.Sample
	if e.Truncated {
		sample += "..."
	}
	return fmt.Sprintf("dispatch: convert %q body to %s: %v (body: %q)",
		e.ContentType.String(), e.Type, e.Err, sample)
}

func (e *ConversionError) Unwrap() []error {
	return []error{ErrConversion, e.Err}
}

// CaptureError reports a capture that was repeated, missing or of another
// type than requested.
type CaptureError struct {
	Reason    error
	Requested reflect.Type
	Captured  reflect.Type
}

func (e *CaptureError) Error() string {
	switch {
	case errors.Is(e.Reason, ErrNotCaptured):
		return fmt.Sprintf("dispatch: retrieve %s: %v", e.Requested, e.Reason)
	case errors.Is(e.Reason, ErrAlreadyCaptured):
		return fmt.Sprintf("dispatch: capture %s: %v (%s)", e.Requested, e.Reason, e.Captured)
	default:
		return fmt.Sprintf("dispatch: retrieve %s: %v (%s)", e.Requested, e.Reason, e.Captured)
	}
}

func (e *CaptureError) Unwrap() error {
	return e.Reason
}
