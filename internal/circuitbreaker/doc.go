// Package circuitbreaker keeps one circuit breaker per upstream host.
//
// A breaker is CLOSED while calls succeed, OPEN after the failure threshold
// is reached and HALF-OPEN once the reset timeout has passed, when a single
// probe decides whether it closes again.
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	cb := registry.For("api.example.com")
//	if !cb.Allow() {
//	    return rest.ErrCircuitOpen
//	}
package circuitbreaker
