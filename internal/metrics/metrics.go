package metrics

import (
	"slices"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	exchanges     map[string]int64
	failures      map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	routes        map[string]map[string]int64
	healthStatus  map[string]bool
	startTime     time.Time
}

type Snapshot struct {
	TotalExchanges int64                      `json:"total_exchanges"`
	TotalFailures  int64                      `json:"total_failures"`
	DroppedEvents  int64                      `json:"dropped_events"`
	Uptime         time.Duration              `json:"uptime"`
	Endpoints      map[string]EndpointMetrics `json:"endpoints"`
}

type EndpointMetrics struct {
	Exchanges   int64            `json:"exchanges"`
	Failures    int64            `json:"failures"`
	Healthy     bool             `json:"healthy"`
	AvgResponse time.Duration    `json:"avg_response"`
	P50Response time.Duration    `json:"p50_response"`
	P95Response time.Duration    `json:"p95_response"`
	P99Response time.Duration    `json:"p99_response"`
	StatusCodes map[int]int64    `json:"status_codes"`
	Routes      map[string]int64 `json:"routes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		exchanges:     make(map[string]int64),
		failures:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		routes:        make(map[string]map[string]int64),
		healthStatus:  make(map[string]bool),
		startTime:     time.Now(),
	}
}

// RecordExchange counts one exchange with endpoint. A status of 0 (no
// response) and an empty route are not counted in their breakdowns.
func (m *Metrics) RecordExchange(endpoint string, duration time.Duration, statusCode int, route string, failed bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.exchanges[endpoint]++
	if failed {
		m.failures[endpoint]++
	}

	m.responseTimes[endpoint] = append(m.responseTimes[endpoint], duration)
	if len(m.responseTimes[endpoint]) > maxSamples {
		m.responseTimes[endpoint] = m.responseTimes[endpoint][1:]
	}

	if statusCode != 0 {
		if m.statusCodes[endpoint] == nil {
			m.statusCodes[endpoint] = make(map[int]int64)
		}
		m.statusCodes[endpoint][statusCode]++
	}
	if route != "" {
		if m.routes[endpoint] == nil {
			m.routes[endpoint] = make(map[string]int64)
		}
		m.routes[endpoint][route]++
	}
}

func (m *Metrics) UpdateHealthStatus(endpoint string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[endpoint] = healthy
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:    time.Since(m.startTime),
		Endpoints: make(map[string]EndpointMetrics),
	}

	all := make(map[string]struct{})
	for endpoint := range m.exchanges {
		all[endpoint] = struct{}{}
	}
	for endpoint := range m.healthStatus {
		all[endpoint] = struct{}{}
	}

	for endpoint := range all {
		snap.TotalExchanges += m.exchanges[endpoint]
		snap.TotalFailures += m.failures[endpoint]

		em := EndpointMetrics{
			Exchanges:   m.exchanges[endpoint],
			Failures:    m.failures[endpoint],
			Healthy:     m.healthStatus[endpoint],
			StatusCodes: copyMap(m.statusCodes[endpoint]),
			Routes:      copyMap(m.routes[endpoint]),
		}

		if durations := m.responseTimes[endpoint]; len(durations) > 0 {
			sorted := slices.Clone(durations)
			slices.Sort(sorted)

			em.AvgResponse = average(sorted)
			em.P50Response = percentile(sorted, 0.50)
			em.P95Response = percentile(sorted, 0.95)
			em.P99Response = percentile(sorted, 0.99)
		}

		snap.Endpoints[endpoint] = em
	}

	return snap
}

func copyMap[K comparable](src map[K]int64) map[K]int64 {
	if src == nil {
		return nil
	}
	dst := make(map[K]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
