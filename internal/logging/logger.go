// Package logging builds the diagnostic logger. Diagnostics describe what the
// program is doing (ports opened, reader failures, write errors) and are kept
// apart from the traffic transcript.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output targets
const (
	OutputStderr = "stderr"
	OutputStdout = "stdout"
)

// Config describes where diagnostics go and how much of them
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	Output string // stderr, stdout or a file path

	// Rotation settings, used for file output only
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultConfig logs warnings and errors to stderr
func DefaultConfig() Config {
	return Config{
		Level:      "warn",
		Format:     "console",
		Output:     OutputStderr,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// New creates a logger from cfg
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig(cfg.Format))
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(encoderConfig("console"))
	default:
		return nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	writeSyncer, err := writeSyncer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create write syncer: %w", err)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// ParseLevel parses a level name
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

func encoderConfig(format string) zapcore.EncoderConfig {
	config := zap.NewProductionEncoderConfig()
	config.TimeKey = "timestamp"
	config.MessageKey = "message"
	config.EncodeLevel = zapcore.LowercaseLevelEncoder
	config.EncodeCaller = zapcore.ShortCallerEncoder
	config.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		config.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	}
	return config
}

func writeSyncer(cfg Config) (zapcore.WriteSyncer, error) {
	switch cfg.Output {
	case OutputStderr, "":
		return zapcore.Lock(zapcore.AddSync(os.Stderr)), nil
	case OutputStdout:
		return zapcore.Lock(zapcore.AddSync(os.Stdout)), nil
	}

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}), nil
}
