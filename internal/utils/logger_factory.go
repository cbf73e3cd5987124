package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	logFormatJSONAliasStringConstant     = "json"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	timestampFieldNameConstant           = "timestamp"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// ParseLogLevel normalizes a textual log level.
func ParseLogLevel(value string) (LogLevel, error) {
	candidate := LogLevel(strings.ToLower(strings.TrimSpace(value)))
	if _, supported := logLevelMapping[candidate]; !supported {
		return "", fmt.Errorf(unsupportedLogLevelTemplateConstant, value)
	}
	return candidate, nil
}

// ParseLogFormat normalizes a textual log format. "json" is accepted for structured output.
func ParseLogFormat(value string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case logFormatStructuredStringConstant, logFormatJSONAliasStringConstant:
		return LogFormatStructured, nil
	case logFormatConsoleStringConstant:
		return LogFormatConsole, nil
	default:
		return "", fmt.Errorf(unsupportedLogFormatTemplateConstant, value)
	}
}

// LoggerFactory builds zap.Logger instances that write to a shared sink.
type LoggerFactory struct {
	sink zapcore.WriteSyncer
}

// NewLoggerFactory constructs a factory writing to standard error.
func NewLoggerFactory() *LoggerFactory {
	return NewLoggerFactoryWithSink(zapcore.Lock(os.Stderr))
}

// NewLoggerFactoryWithSink constructs a factory writing to sink.
func NewLoggerFactoryWithSink(sink zapcore.WriteSyncer) *LoggerFactory {
	if sink == nil {
		sink = zapcore.Lock(os.Stderr)
	}
	return &LoggerFactory{sink: sink}
}

// CreateLogger produces a zap.Logger honoring the requested log level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.TimeKey = timestampFieldNameConstant
	encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch requestedLogFormat {
	case LogFormatStructured:
		encoder = zapcore.NewJSONEncoder(encoderConfiguration)
	case LogFormatConsole:
		encoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfiguration)
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	core := zapcore.NewCore(encoder, factory.sink, zap.NewAtomicLevelAt(zapLogLevel))
	return zap.New(core, zap.ErrorOutput(factory.sink)), nil
}

// SyncLogger flushes logger. Errors raised by terminals and pipes that cannot be synced are ignored.
func SyncLogger(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	syncError := logger.Sync()
	if syncError == nil || errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL) {
		return nil
	}
	return syncError
}
