// Package handler holds the HTTP middleware and response helpers shared by the
// monitor's API.
package handler
