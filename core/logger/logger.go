// Package logger defines the logging contract used across core. Adapters
// live in infra/logger so domain packages stay free of logging dependencies.
package logger

// Logger is the severity-leveled logging contract. Debugw carries structured
// fields for entries that downstream tooling filters on.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
