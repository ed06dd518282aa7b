package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields is an alias for logrus.Fields.
type Fields = logrus.Fields

// Config controls log level, format, and optional rotating file output.
type Config struct {
	Level      string `mapstructure:"level" json:"level"`
	Format     string `mapstructure:"format" json:"format"`
	File       string `mapstructure:"file" json:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size" json:"max_size"`
	MaxAgeDays int    `mapstructure:"max_age" json:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
}

// Logger wraps logrus.Logger.
type Logger struct {
	*logrus.Logger
}

var globalLogger *Logger

// Init configures the global logger. Console output goes to stderr so that
// the install flow's stdout stays reserved for user-facing results. When
// cfg.File is set, output is additionally rotated into that file.
func Init(cfg Config) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	l := logrus.New()
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:          true,
			DisableLevelTruncation: true,
			TimestampFormat:        "2006-01-02 15:04:05",
		})
	}

	outputs := []io.Writer{os.Stderr}

	if cfg.File != "" {
		logDir := filepath.Dir(cfg.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not create log directory %s: %v\n", logDir, err)
		} else {
			rotator := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxAge:     cfg.MaxAgeDays,
				MaxBackups: cfg.MaxBackups,
			}
			outputs = append(outputs, rotator)
		}
	}

	if len(outputs) > 1 {
		l.SetOutput(io.MultiWriter(outputs...))
	} else {
		l.SetOutput(outputs[0])
	}

	globalLogger = &Logger{Logger: l}
	return nil
}

// Get returns the global logger, initializing a plain stderr logger if Init
// was never called (tests, early startup failures).
func Get() *Logger {
	if globalLogger == nil {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		globalLogger = &Logger{Logger: l}
	}
	return globalLogger
}

func Debugf(format string, args ...any) { Get().Debugf(format, args...) }
func Infof(format string, args ...any)  { Get().Infof(format, args...) }
func Warnf(format string, args ...any)  { Get().Warnf(format, args...) }
func Errorf(format string, args ...any) { Get().Errorf(format, args...) }

// WithFields returns an entry with structured fields attached.
func WithFields(fields Fields) *logrus.Entry { return Get().WithFields(fields) }
