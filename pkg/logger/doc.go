// Package logger builds the application's slog loggers: JSON in production,
// human readable text elsewhere.
package logger
