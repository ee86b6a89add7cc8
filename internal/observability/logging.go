// Package observability provides structured logging for the combat engine.
package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/tabletop/internal/config"
	"github.com/cory-johannsen/tabletop/internal/game/combat"
)

// NewLogger creates a structured logger from the given logging configuration.
// Output goes to stderr so command output on stdout stays machine-readable.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// EncounterFields returns the fields that identify enc in log lines.
func EncounterFields(enc *combat.Encounter) []zap.Field {
	return []zap.Field{
		zap.String("encounter_id", enc.ID),
		zap.String("session_id", enc.SessionID),
		zap.String("status", string(enc.Status)),
		zap.Int("round", enc.Round),
	}
}

// EventLogger is a combat.EventSink that writes every event to a zap logger.
type EventLogger struct {
	Logger *zap.Logger
}

// Record logs ev at info level. It never fails.
func (l EventLogger) Record(_ context.Context, ev combat.Event) error {
	l.Logger.Info("combat event",
		zap.String("type", ev.Type),
		zap.String("session_id", ev.SessionID),
		zap.String("encounter_id", ev.EncounterID),
		zap.String("actor_id", ev.ActorID),
		zap.String("description", ev.Description),
	)
	return nil
}
