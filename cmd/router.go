package main

import (
	"net/http"

	"github.com/angeloszaimis/response-router/internal/circuitbreaker"
	"github.com/angeloszaimis/response-router/internal/endpoint"
	"github.com/angeloszaimis/response-router/internal/handler"
)

type endpointStatus struct {
	endpoint.Status
	Circuit *circuitbreaker.Snapshot `json:"circuit,omitempty"`
}

type statusResponse struct {
	Healthy   bool             `json:"healthy"`
	Endpoints []endpointStatus `json:"endpoints"`
}

func setupRouter(m *monitor) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /metrics", m.collector.Handler())
	mux.HandleFunc("GET /status", statusHandler(m))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	})

	return mux
}

// statusHandler reports every endpoint and its breaker. It answers 503 while
// any endpoint is unhealthy.
func statusHandler(m *monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		breakers := m.breakers.Stats()

		resp := statusResponse{
			Healthy:   true,
			Endpoints: make([]endpointStatus, 0, len(m.endpoints)),
		}
		for _, ep := range m.endpoints {
			es := endpointStatus{Status: ep.Status()}
			if snap, ok := breakers[ep.URL().Host]; ok {
				es.Circuit = &snap
			}
			resp.Healthy = resp.Healthy && es.Healthy
			resp.Endpoints = append(resp.Endpoints, es)
		}

		status := http.StatusOK
		if !resp.Healthy {
			status = http.StatusServiceUnavailable
		}
		handler.WriteJSON(w, status, resp)
	}
}
