// Package logging builds the slog logger from the logging section of the configuration.
package logging
