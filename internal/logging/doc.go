// Package logging assembles structured slog loggers shared across mediasort.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing (stdout plus the run log file), and exposes attribute helpers so
// pipeline code tags every decision with the same field shapes. A no-op
// logger is available for tests and wiring code that cannot fail.
package logging
