// Package config loads the monitor's configuration from YAML and the
// environment with viper and validates it with ozzo-validation.
//
// Sections: server, logging, client (the probing rest client),
// circuit_breaker, health_check and endpoints.
package config
