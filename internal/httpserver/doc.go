// Package httpserver runs the monitor's HTTP endpoints with validated
// addresses, sane timeouts and graceful shutdown.
package httpserver
