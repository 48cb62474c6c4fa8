package rest

import (
	"errors"
	"fmt"
)

var (
	// ErrCircuitOpen is returned without sending when the breaker of the
	// target host is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTemplate is returned for URI templates whose placeholders do not
	// match the variables passed to Execute.
	ErrTemplate = errors.New("invalid uri template")
)

// TransportError reports a request that did not produce a response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rest: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
