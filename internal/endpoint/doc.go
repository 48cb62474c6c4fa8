// Package endpoint tracks the upstream endpoints a monitor probes: their
// health, the latency of recent probes and the last failure seen.
package endpoint
