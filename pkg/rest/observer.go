package rest

import "time"

// Exchange describes one request sent by a Rest client and how its
// response was routed.
type Exchange struct {
	RequestID string
	Method    string
	Host      string
	URL       string
	// Status is 0 when no response was received.
	Status   int
	Duration time.Duration
	// Route is the path of bindings taken, see dispatch.Result.Route.
	Route string
	Err   error
}

// Observer receives an Exchange after every Dispatch. Observe is called
// synchronously and must not block.
type Observer interface {
	Observe(Exchange)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Exchange)

func (f ObserverFunc) Observe(x Exchange) {
	f(x)
}
