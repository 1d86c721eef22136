package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	WithContext(ctx context.Context) Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
}

type Field struct {
	Key   string
	Value interface{}
}

type Fields map[string]interface{}

// Err builds the conventional error field. A nil error yields an empty value.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}

// entryLogger adapts a logrus entry to Logger. Derived loggers share the
// underlying logrus.Logger and copy the entry's fields.
type entryLogger struct {
	entry *logrus.Entry
}

// New logs to stdout. format is "json" or "text"; an unknown level means info.
func New(level string, format string) Logger {
	return NewWithOutput(level, format, os.Stdout)
}

func NewWithOutput(level string, format string, out io.Writer) Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetFormatter(formatter(format))

	if parsed, err := logrus.ParseLevel(level); err == nil {
		base.SetLevel(parsed)
	} else {
		base.SetLevel(logrus.InfoLevel)
	}

	return &entryLogger{entry: logrus.NewEntry(base)}
}

func formatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	}
	return &logrus.TextFormatter{TimestampFormat: time.RFC3339Nano, FullTimestamp: true}
}

func (l *entryLogger) Debug(msg string, fields ...Field) { l.with(fields).Debug(msg) }
func (l *entryLogger) Info(msg string, fields ...Field)  { l.with(fields).Info(msg) }
func (l *entryLogger) Warn(msg string, fields ...Field)  { l.with(fields).Warn(msg) }
func (l *entryLogger) Error(msg string, fields ...Field) { l.with(fields).Error(msg) }
func (l *entryLogger) Fatal(msg string, fields ...Field) { l.with(fields).Fatal(msg) }

func (l *entryLogger) WithContext(ctx context.Context) Logger {
	return &entryLogger{entry: l.entry.WithContext(ctx)}
}

func (l *entryLogger) WithField(key string, value interface{}) Logger {
	return &entryLogger{entry: l.entry.WithField(key, value)}
}

func (l *entryLogger) WithFields(fields Fields) Logger {
	return &entryLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *entryLogger) with(fields []Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return l.entry.WithFields(data)
}

// defaultLogger serves process startup, before the configured logger exists.
var defaultLogger = New("info", "json")

func SetDefault(l Logger) {
	defaultLogger = l
}

// Fatal logs through the process-wide logger and exits.
func Fatal(msg string, fields ...Field) {
	defaultLogger.Fatal(msg, fields...)
}
