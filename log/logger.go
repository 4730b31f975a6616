// Package log wraps zap with the run identity attached to every entry.
// Logger takes structured fields and is used by the conversion runtime;
// Logger.Sugar gives the printf-style variant used by CLI surfaces.
package log

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/utf8conv/types"
)

// Logger provides structured logging with run context.
// Every entry carries the run identity fields of the RunMeta it was built from.
type Logger struct {
	zap    *zap.Logger
	level  zapcore.Level
	fields []zap.Field
}

// SugaredLogger provides printf-style logging for CLI surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger with run context writing to os.Stderr at
// debug level.
func NewLogger(runMeta *types.RunMeta) *Logger {
	return newLoggerWithWriter(runMeta, os.Stderr, zapcore.DebugLevel)
}

// NewLoggerWithLevel is NewLogger with a minimum level name
// ("debug", "info", "warn", "error").
func NewLoggerWithLevel(runMeta *types.RunMeta, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return newLoggerWithWriter(runMeta, os.Stderr, lvl), nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop(), level: zapcore.FatalLevel}
}

// ParseLevel parses a level name. The empty string means info.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

func newCore(w io.Writer, level zapcore.Level) zapcore.Core {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
}

// WithOutput returns a new logger with a different output writer. Context
// fields and level are kept.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	return &Logger{
		zap:    zap.New(newCore(w, l.level)).With(l.fields...),
		level:  l.level,
		fields: l.fields,
	}
}

// With returns a logger with additional context fields.
func (l *Logger) With(fields map[string]any) *Logger {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	all := append(append([]zap.Field{}, l.fields...), zf...)
	return &Logger{zap: l.zap.With(zf...), level: l.level, fields: all}
}

func newLoggerWithWriter(runMeta *types.RunMeta, w io.Writer, level zapcore.Level) *Logger {
	contextFields := []zap.Field{
		zap.String("run_id", runMeta.RunID),
		zap.String("source", runMeta.Source),
	}
	if runMeta.From != "" {
		contextFields = append(contextFields, zap.String("from", string(runMeta.From)))
	}
	if runMeta.To != "" {
		contextFields = append(contextFields, zap.String("to", string(runMeta.To)))
	}

	return &Logger{
		zap:    zap.New(newCore(w, level)).With(contextFields...),
		level:  level,
		fields: contextFields,
	}
}

// Debug logs at debug level. fields is attached under "fields".
func (l *Logger) Debug(message string, fields map[string]any) {
	l.log(zapcore.DebugLevel, message, fields)
}

func (l *Logger) Info(message string, fields map[string]any) {
	l.log(zapcore.InfoLevel, message, fields)
}

func (l *Logger) Warn(message string, fields map[string]any) {
	l.log(zapcore.WarnLevel, message, fields)
}

func (l *Logger) Error(message string, fields map[string]any) {
	l.log(zapcore.ErrorLevel, message, fields)
}

// log skips encoding fields when the level is disabled.
func (l *Logger) log(level zapcore.Level, message string, fields map[string]any) {
	ce := l.zap.Check(level, message)
	if ce == nil {
		return
	}
	if len(fields) == 0 {
		ce.Write()
		return
	}
	ce.Write(zap.Any("fields", fields))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

func (s *SugaredLogger) Debugf(template string, args ...any) { s.sugar.Debugf(template, args...) }
func (s *SugaredLogger) Infof(template string, args ...any) { s.sugar.Infof(template, args...) }
func (s *SugaredLogger) Warnf(template string, args ...any) { s.sugar.Warnf(template, args...) }
func (s *SugaredLogger) Errorf(template string, args ...any) { s.sugar.Errorf(template, args...) }

// With adds loosely typed key-value pairs, as zap.SugaredLogger.With.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
