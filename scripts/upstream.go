//go:build ignore

// Upstream is a test HTTP server that answers with the response shapes the
// monitor and the dispatch engine know how to route.
//
// Usage:
//
//	go run scripts/upstream.go -port 8081
//	go run scripts/upstream.go -port 8082 -fail-every 3
//
// Endpoints:
//   - /health answers {"status":"UP"}, or a 503 problem on every n-th call
//   - /success answers application/success+json
//   - /problem answers application/problem+json with status 400
//   - /error answers application/vnd.error+json with status 500
//   - /accounts/{id} answers a JSON account, or 404 as a problem
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
)

type account struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	Balance int64  `json:"balance"`
}

func main() {
	port := flag.Int("port", 8081, "port to listen on")
	failEvery := flag.Int("fail-every", 0, "answer every n-th health check with 503 (0 disables)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	var healthCalls atomic.Int64

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		n := healthCalls.Add(1)
		if *failEvery > 0 && n%int64(*failEvery) == 0 {
			writeBody(w, "application/problem+json", http.StatusServiceUnavailable, map[string]any{
				"type":   "https://example.org/problems/maintenance",
				"title":  "Service Unavailable",
				"status": http.StatusServiceUnavailable,
				"detail": fmt.Sprintf("health check %d rejected", n),
			})
			return
		}
		writeBody(w, "application/json", http.StatusOK, map[string]string{"status": "UP"})
	})

	mux.HandleFunc("GET /success", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, "application/success+json", http.StatusOK, map[string]bool{"happy": true})
	})

	mux.HandleFunc("GET /problem", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, "application/problem+json", http.StatusBadRequest, map[string]any{
			"type":     "https://example.org/problems/invalid",
			"title":    "Bad Request",
			"status":   http.StatusBadRequest,
			"instance": "/problem/" + uuid.NewString(),
		})
	})

	mux.HandleFunc("GET /error", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, "application/vnd.error+json", http.StatusInternalServerError, map[string]string{
			"message": "it failed",
			"path":    r.URL.Path,
			"logref":  uuid.NewString(),
		})
	})

	mux.HandleFunc("GET /accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, err := uuid.Parse(id); err != nil && id != "123" {
			writeBody(w, "application/problem+json", http.StatusNotFound, map[string]any{
				"title":  "Not Found",
				"status": http.StatusNotFound,
				"detail": "no account " + id,
			})
			return
		}
		writeBody(w, "application/json", http.StatusOK, account{ID: id, Owner: "jane", Balance: 4200})
	})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", r.Header.Get("X-Request-Id")),
			slog.String("accept", r.Header.Get("Accept")))
		mux.ServeHTTP(w, r)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting upstream", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func writeBody(w http.ResponseWriter, contentType string, status int, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
