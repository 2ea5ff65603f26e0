package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSON(level string, buf *bytes.Buffer) *Logger {
	return New(&Config{Level: level, Format: "json", Output: buf})
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{name: "json config", config: &Config{Level: "debug", Format: "json", Output: io.Discard}},
		{name: "console config", config: &Config{Level: "info", Format: "console", Output: io.Discard}},
		{name: "nil output falls back", config: &Config{Level: "warn"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, New(tt.config))
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	newJSON("info", buf).Info("export finished")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "export finished", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	child := newJSON("info", buf).With().
		Str("run_id", "abc").
		Logger()

	child.InfoWith("transcribed", map[string]interface{}{"rows": 12})

	entry := decodeEntry(t, buf)
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, float64(12), entry["rows"])
}

func TestLogger_WarnWith(t *testing.T) {
	buf := &bytes.Buffer{}
	newJSON("info", buf).WarnWith("unsupported column type", map[string]interface{}{
		"column": "Price",
		"row":    3,
	})

	entry := decodeEntry(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Price", entry["column"])
	assert.Equal(t, float64(3), entry["row"])
}

func TestLogger_ErrorWith(t *testing.T) {
	buf := &bytes.Buffer{}
	newJSON("error", buf).ErrorWith("export failed", errors.New("login failed"), map[string]interface{}{
		"host": "db01",
	})

	entry := decodeEntry(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "login failed", entry["error"])
	assert.Equal(t, "db01", entry["host"])
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool
	}{
		{"debug level logs debug", "debug", func(l *Logger) { l.Debugf("d %d", 1) }, true},
		{"info level skips debug", "info", func(l *Logger) { l.Debugf("d %d", 1) }, false},
		{"warn level logs warn", "warn", func(l *Logger) { l.Warnf("w %d", 1) }, true},
		{"error level skips info", "error", func(l *Logger) { l.Info("i") }, false},
		{"unknown level means info", "loud", func(l *Logger) { l.Infof("i %d", 1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(newJSON(tt.level, buf))

			if tt.expected {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WarnWith("ignored", map[string]interface{}{"k": 1})
	})
}

func BenchmarkLogger_WarnWith(b *testing.B) {
	l := New(&Config{Level: "info", Format: "json", Output: io.Discard})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.WarnWith("unsupported column type", map[string]interface{}{"row": i})
	}
}
