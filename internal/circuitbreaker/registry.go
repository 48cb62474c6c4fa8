package circuitbreaker

import (
	"sync"
	"time"
)

// Registry hands out one breaker per host.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*CircuitBreaker
	threshold int
	timeout   time.Duration
	now       func() time.Time
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
	}
}

// WithClock makes breakers created from now on read time from now.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.now = now
	return r
}

// For returns the breaker of host, creating it on first use.
func (r *Registry) For(host string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[host]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if cb, exists = r.breakers[host]; exists {
		return cb
	}

	cb = NewCircuitBreaker(r.threshold, r.timeout)
	cb.now = r.now
	r.breakers[host] = cb
	return cb
}

func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.breakers = make(map[string]*CircuitBreaker)
}

// Stats returns a snapshot per host.
func (r *Registry) Stats() map[string]Snapshot {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]Snapshot, len(r.breakers))
	for host, cb := range r.breakers {
		stats[host] = cb.Snapshot()
	}
	return stats
}
