// Package logging builds the zap loggers shared by the engine and its CLIs.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger at level.
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// NewDevelopment returns a console logger for local runs.
func NewDevelopment() (*zap.Logger, error) {
	return zap.NewDevelopment()
}

// ForTask scopes a logger to one daily task.
func ForTask(log *zap.Logger, id int, category string) *zap.Logger {
	return log.With(zap.Int("task_id", id), zap.String("category", category))
}
