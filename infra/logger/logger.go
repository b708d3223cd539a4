// Package logger hosts the zerolog adapter behind the core logging contract.
package logger

import corelogger "github.com/mridultyagi687/TSGLogistics-sub000/core/logger"

// Logger aliases the core contract so callers wiring adapters only import
// this package.
type Logger = corelogger.Logger

// New returns the default component-tagged logger. Output format follows the
// APP_ENV variable (see NewZerologLogger).
func New(component string) Logger {
	return NewZerologLogger(component)
}

// NopLogger discards everything. Used in tests and as a safe default.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}
