package endpoint

import (
	"net/url"
	"strings"
	"sync"
	"time"
)

const ewmaAlpha = 0.2

// Endpoint is an upstream service with health and latency tracking.
type Endpoint struct {
	name string
	url  *url.URL

	mutex               sync.Mutex
	isHealthy           bool
	checked             bool
	lastChecked         time.Time
	lastError           string
	consecutiveFailures int
	ewmaResponseTime    time.Duration
	hasEWMA             bool
}

// Status is the JSON view of an Endpoint.
type Status struct {
	Name                string        `json:"name"`
	URL                 string        `json:"url"`
	Healthy             bool          `json:"healthy"`
	Checked             bool          `json:"checked"`
	LastChecked         time.Time     `json:"last_checked,omitzero"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	Latency             time.Duration `json:"latency"`
}

// New creates an Endpoint. It is unhealthy until the first successful probe.
// An empty name defaults to the host of u.
func New(name string, u *url.URL) *Endpoint {
	if name == "" {
		name = u.Host
	}
	return &Endpoint{name: name, url: u}
}

func (e *Endpoint) Name() string {
	return e.name
}

func (e *Endpoint) URL() *url.URL {
	return e.url
}

// HealthURL returns path resolved below the endpoint's own path.
func (e *Endpoint) HealthURL(path string) *url.URL {
	u := *e.url
	u.Path = strings.TrimSuffix(e.url.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return &u
}

// IsHealthy returns true if the last probe succeeded.
func (e *Endpoint) IsHealthy() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.isHealthy
}

// RecordSuccess marks the endpoint healthy and folds latency into the
// moving average. It reports whether the health changed.
func (e *Endpoint) RecordSuccess(latency time.Duration) (changed bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.observe(latency)
	e.consecutiveFailures = 0
	e.lastError = ""
	return e.setHealthy(true)
}

// RecordFailure marks the endpoint unhealthy. It reports whether the health
// changed. The first failed probe of a new endpoint counts as a change.
func (e *Endpoint) RecordFailure(err error) (changed bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.consecutiveFailures++
	if err != nil {
		e.lastError = err.Error()
	}
	first := !e.checked
	return e.setHealthy(false) || first
}

func (e *Endpoint) setHealthy(healthy bool) bool {
	e.checked = true
	e.lastChecked = time.Now()
	if e.isHealthy == healthy {
		return false
	}
	e.isHealthy = healthy
	return true
}

// observe updates the exponentially weighted moving average latency.
func (e *Endpoint) observe(latency time.Duration) {
	if !e.hasEWMA {
		e.ewmaResponseTime = latency
		e.hasEWMA = true
		return
	}
	// ewma = (1 - α) * ewma + α * latest
	e.ewmaResponseTime = time.Duration((1-ewmaAlpha)*float64(e.ewmaResponseTime) + ewmaAlpha*float64(latency))
}

// EWMATime returns the moving average latency, 0 before the first success.
func (e *Endpoint) EWMATime() time.Duration {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.ewmaResponseTime
}

func (e *Endpoint) Status() Status {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return Status{
		Name:                e.name,
		URL:                 e.url.String(),
		Healthy:             e.isHealthy,
		Checked:             e.checked,
		LastChecked:         e.lastChecked,
		LastError:           e.lastError,
		ConsecutiveFailures: e.consecutiveFailures,
		Latency:             e.ewmaResponseTime,
	}
}
