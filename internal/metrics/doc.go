// Package metrics aggregates the exchanges of rest clients and the health
// changes of probed endpoints.
//
// Events travel over a buffered channel to a single collector goroutine, so
// recording never blocks the caller; events that do not fit are dropped and
// counted. On shutdown the collector drains what is still buffered.
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	client, _ := rest.New(nil, rest.WithObserver(collector))
//
//	http.Handle("/metrics", collector.Handler())
package metrics
