// Package logging exposes the keyed-value logger the gateway components
// share. Implementations carry a module namespace so per-package and
// per-connection context rides on every line.
package logging

// Logger represents an interface for a logger
type Logger interface {
	Module(ns string) Logger
	Debug(msg string, keyValues ...interface{})
	Info(msg string, keyValues ...interface{})
	Warn(msg string, keyValues ...interface{})
	Error(msg string, keyValues ...interface{})
}
