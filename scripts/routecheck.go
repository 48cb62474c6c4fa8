//go:build ignore

// Routecheck sends concurrent requests through the rest client and counts
// which route of a fixed routing tree handled each response.
//
// Usage:
//
//	go run scripts/routecheck.go -base http://localhost:8081 -concurrency 10 -requests 1000
//	go run scripts/routecheck.go -base http://localhost:8081 -out summary.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/angeloszaimis/response-router/internal/circuitbreaker"
	"github.com/angeloszaimis/response-router/pkg/dispatch"
	"github.com/angeloszaimis/response-router/pkg/logger"
	"github.com/angeloszaimis/response-router/pkg/mediatype"
	"github.com/angeloszaimis/response-router/pkg/problem"
	"github.com/angeloszaimis/response-router/pkg/rest"
)

var paths = []string{"/success", "/problem", "/error", "/accounts/123", "/accounts/nope"}

type summary struct {
	Target      string         `json:"target"`
	Requests    int            `json:"requests"`
	Concurrency int            `json:"concurrency"`
	DurationMS  int64          `json:"duration_ms"`
	Throughput  float64        `json:"throughput_rps"`
	Routes      map[string]int `json:"routes"`
	Errors      map[string]int `json:"errors"`
}

func main() {
	base := flag.String("base", "http://localhost:8081", "upstream base url")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	requests := flag.Int("requests", 100, "total number of requests to send")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	outJSON := flag.String("out", "", "write JSON summary to this file (optional)")
	flag.Parse()

	log := logger.New("warn", false, "dev")

	client, err := rest.New(nil,
		rest.WithBaseURL(*base),
		rest.WithTimeout(*timeout),
		rest.WithCircuitBreaker(circuitbreaker.NewRegistry(50, 5*time.Second)),
		rest.WithLogger(log),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid client: %v\n", err)
		os.Exit(1)
	}

	router := dispatch.Route(dispatch.StatusSeries(),
		dispatch.On(dispatch.Successful).Dispatch(dispatch.Route(dispatch.ContentType(),
			dispatch.On(mediatype.MustParse("application/success+json")).Pass(),
			dispatch.On(mediatype.JSON).Pass(),
		)),
		dispatch.AnySeries().Dispatch(dispatch.Route(dispatch.ContentType(),
			problem.Propagate()...,
		)),
	)

	var (
		mu     sync.Mutex
		routes = map[string]int{}
		errs   = map[string]int{}
		wg     sync.WaitGroup
		jobs   = make(chan int)
	)

	start := time.Now()
	for range *concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				path := paths[idx%len(paths)]
				result, err := client.Get(context.Background(), path).
					Accept(mediatype.JSON, mediatype.Problem, mediatype.VndError).
					Dispatch(router)

				mu.Lock()
				if err != nil {
					errs[classify(err)]++
				} else {
					routes[result.Route()]++
				}
				mu.Unlock()
			}
		}()
	}

	for i := range *requests {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	s := summary{
		Target:      *base,
		Requests:    *requests,
		Concurrency: *concurrency,
		DurationMS:  elapsed.Milliseconds(),
		Throughput:  float64(*requests) / elapsed.Seconds(),
		Routes:      routes,
		Errors:      errs,
	}

	fmt.Println("--- Route Check Summary ---")
	fmt.Printf("Target: %s  Requests: %d  Concurrency: %d\n", s.Target, s.Requests, s.Concurrency)
	fmt.Printf("Duration: %v  Throughput: %.2f req/s\n", elapsed, s.Throughput)
	printCounts("Routes", routes)
	printCounts("Errors", errs)

	if *outJSON != "" {
		f, err := os.Create(*outJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		_ = enc.Encode(s)
		f.Close()
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}
}

func classify(err error) string {
	var (
		pe *problem.Exception
		ve *problem.ErrorException
		re *dispatch.RoutingError
		te *rest.TransportError
	)
	switch {
	case errors.As(err, &pe):
		return fmt.Sprintf("problem %d", pe.StatusCode())
	case errors.As(err, &ve):
		return "vnd.error"
	case errors.As(err, &re):
		return "no route"
	case errors.Is(err, rest.ErrCircuitOpen):
		return "circuit open"
	case errors.As(err, &te):
		return "transport"
	default:
		return "other"
	}
}

func printCounts(title string, counts map[string]int) {
	fmt.Printf("\n%s:\n", title)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Printf("  %s -> %d\n", k, counts[k])
	}
}
