// Package logging provides categorized zap loggers for deskpilot. Each
// subsystem gets a named child of a single root logger so log lines carry
// their category and internal errors stay diagnosable without leaking to the
// end user.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies a subsystem.
type Category string

const (
	CategoryBoot    Category = "boot"
	CategoryStore   Category = "store"
	CategoryContext Category = "context"
	CategoryHandoff Category = "handoff"
	CategoryScoring Category = "scoring"
	CategoryTurn    Category = "turn"
	CategoryLLM     Category = "llm"
	CategoryNotify  Category = "notify"
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.Logger)
)

// Init builds the root logger. level is one of debug/info/warn/error; format
// is "json" or "console". Safe to call more than once; later calls replace the
// root and invalidate cached category loggers.
func Init(level, format string) error {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	root = logger
	loggers = make(map[Category]*zap.Logger)
	mu.Unlock()
	return nil
}

// Get returns the logger for a category. Before Init it returns a no-op
// logger, so library code can log unconditionally.
func Get(cat Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	l := root.Named(string(cat))
	loggers[cat] = l
	return l
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}
