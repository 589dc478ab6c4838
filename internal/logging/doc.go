// Package logging builds the slog loggers used across hinter and defines the
// shared structured-field vocabulary for daemon events.
package logging
