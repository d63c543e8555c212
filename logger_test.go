package mqttlite

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevelNone, "NONE"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.level.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"trace", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{" warning ", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"off", LogLevelNone, false},
		{"loud", LogLevelNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoOpLogger(t *testing.T) {
	l := NewNoOpLogger()
	assert.Equal(t, LogLevelNone, l.Level())

	l.Debug("d", nil)
	l.Info("i", LogFields{"k": "v"})
	l.Warn("w", nil)
	l.Error("e", nil)
	assert.Same(t, l, l.WithFields(LogFields{"k": "v"}))

	l.SetLevel(LogLevelDebug)
	assert.Equal(t, LogLevelDebug, l.Level())
}

func TestStdLogger(t *testing.T) {
	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewStdLogger(&buf, LogLevelWarn)

		l.Debug("debug message", nil)
		l.Info("info message", nil)
		l.Warn("warn message", nil)
		l.Error("error message", nil)

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "[WARN] warn message")
		assert.Contains(t, out, "[ERROR] error message")
	})

	t.Run("fields sorted", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewStdLogger(&buf, LogLevelDebug)

		l.Info("packet", LogFields{LogFieldPacketType: "PUBLISH", LogFieldBytes: 12})

		assert.Contains(t, buf.String(), "[INFO] packet bytes=12 packet_type=PUBLISH")
	})

	t.Run("with fields", func(t *testing.T) {
		var buf bytes.Buffer
		base := NewStdLogger(&buf, LogLevelDebug)
		l := base.WithFields(LogFields{LogFieldClientID: "c1"})

		l.Debug("connected", LogFields{LogFieldVersion: "5.0"})
		base.Debug("plain", nil)

		out := buf.String()
		assert.Contains(t, out, "connected client_id=c1 protocol_version=5.0")
		assert.Contains(t, out, "[DEBUG] plain\n")
	})

	t.Run("set level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewStdLogger(&buf, LogLevelNone)
		l.Error("hidden", nil)
		assert.Empty(t, buf.String())

		l.SetLevel(LogLevelError)
		assert.Equal(t, LogLevelError, l.Level())
		l.Error("shown", nil)
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestHCLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewHCLogger(hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Output: &buf,
		Level:  hclog.Info,
	}))

	assert.Equal(t, LogLevelInfo, l.Level())

	l.Debug("hidden", nil)
	l.WithFields(LogFields{LogFieldClientID: "c1"}).Warn("ping overdue", LogFields{"unacked": 2})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "ping overdue")
	assert.Contains(t, out, "client_id=c1")
	assert.Contains(t, out, "unacked=2")

	l.SetLevel(LogLevelDebug)
	assert.Equal(t, LogLevelDebug, l.Level())
	l.Debug("now visible", nil)
	assert.Contains(t, buf.String(), "now visible")

	l.SetLevel(LogLevelNone)
	assert.Equal(t, LogLevelNone, l.Level())
	l.Error("dropped", nil)
	assert.NotContains(t, buf.String(), "dropped")
}

func TestHCLoggerDefault(t *testing.T) {
	l := NewHCLogger(nil)
	assert.Equal(t, LogLevelInfo, l.Level())
}
