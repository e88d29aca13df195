// Package logger builds the zap loggers used by the bptree commands and the
// index manager.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultService = "bptree"

// Config describes where records go and how they look.
type Config struct {
	// Level is the initial minimum level: debug, info, warn or error.
	// Anything unparsable means info.
	Level string `yaml:"level"`
	// Format is "json" (default) or "console".
	Format string `yaml:"format"`
	// OutputFile is a path, or "stdout"/"stderr". Empty means stdout.
	OutputFile string `yaml:"output_file"`
	// Service is attached to every record as the "service" field.
	Service string `yaml:"service"`
}

// New builds a logger with a fixed level.
func New(config Config) (*zap.Logger, error) {
	log, _, err := NewWithLevel(config)
	return log, err
}

// NewWithLevel builds a logger and returns the level handle behind it, so a
// long-running command can raise or lower verbosity while it runs.
func NewWithLevel(config Config) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(parseLevel(config.Level))

	sink, err := openSink(config.OutputFile)
	if err != nil {
		return nil, level, err
	}

	service := config.Service
	if service == "" {
		service = defaultService
	}
	core := zapcore.NewCore(newEncoder(config.Format), sink, level)
	log := zap.New(core, zap.AddCaller()).With(zap.String("service", service))
	return log, level, nil
}

func parseLevel(text string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(text)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	if strings.EqualFold(format, "console") {
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

func openSink(outputFile string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(outputFile) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	file, err := os.OpenFile(outputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", outputFile, err)
	}
	return zapcore.AddSync(file), nil
}
