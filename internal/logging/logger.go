// Package logging provides categorized loggers built on a shared zap core.
// Each subsystem logs under its own named category so per-platform submission
// attempts can be traced end to end.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot     Category = "boot"     // startup and shutdown
	CategoryBrowser  Category = "browser"  // automation sessions
	CategorySubmit   Category = "submit"   // submission orchestration
	CategoryTracking Category = "tracking" // tracking store
	CategoryPrivacy  Category = "privacy"  // retention store and audit log
	CategoryServer   Category = "server"   // HTTP boundary
)

var (
	mu   sync.RWMutex
	base *zap.Logger = zap.NewNop()
)

// Init builds the shared zap core. Verbose enables debug-level output.
func Init(verbose bool) error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	base = logger
	mu.Unlock()
	return nil
}

// SetLogger replaces the shared core. Used by tests to capture output.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	base = l
	mu.Unlock()
}

// Get returns a sugared logger named for the category.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(string(cat)).Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
