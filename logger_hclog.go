package mqttlite

import (
	"github.com/hashicorp/go-hclog"
)

// HCLogger adapts a hclog.Logger to Logger.
type HCLogger struct {
	logger hclog.Logger
}

// NewHCLogger wraps logger. A nil logger gets a default hclog logger named
// "mqttlite".
func NewHCLogger(logger hclog.Logger) *HCLogger {
	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{
			Name:  "mqttlite",
			Level: hclog.Info,
		})
	}
	return &HCLogger{logger: logger}
}

// Debug logs a debug message.
func (h *HCLogger) Debug(msg string, fields LogFields) {
	h.logger.Debug(msg, hclogArgs(fields)...)
}

// Info logs an info message.
func (h *HCLogger) Info(msg string, fields LogFields) {
	h.logger.Info(msg, hclogArgs(fields)...)
}

// Warn logs a warning message.
func (h *HCLogger) Warn(msg string, fields LogFields) {
	h.logger.Warn(msg, hclogArgs(fields)...)
}

// Error logs an error message.
func (h *HCLogger) Error(msg string, fields LogFields) {
	h.logger.Error(msg, hclogArgs(fields)...)
}

// WithFields returns a logger that adds fields to every entry.
func (h *HCLogger) WithFields(fields LogFields) Logger {
	return &HCLogger{logger: h.logger.With(hclogArgs(fields)...)}
}

// Level returns the current log level.
func (h *HCLogger) Level() LogLevel {
	return fromHCLevel(h.logger.GetLevel())
}

// SetLevel sets the log level.
func (h *HCLogger) SetLevel(level LogLevel) {
	h.logger.SetLevel(toHCLevel(level))
}

func hclogArgs(fields LogFields) []any {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func toHCLevel(level LogLevel) hclog.Level {
	switch level {
	case LogLevelDebug:
		return hclog.Debug
	case LogLevelInfo:
		return hclog.Info
	case LogLevelWarn:
		return hclog.Warn
	case LogLevelError:
		return hclog.Error
	default:
		return hclog.Off
	}
}

func fromHCLevel(level hclog.Level) LogLevel {
	switch level {
	case hclog.Trace, hclog.Debug:
		return LogLevelDebug
	case hclog.Info, hclog.NoLevel:
		return LogLevelInfo
	case hclog.Warn:
		return LogLevelWarn
	case hclog.Error:
		return LogLevelError
	default:
		return LogLevelNone
	}
}
