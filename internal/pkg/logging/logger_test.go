package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestEncoderConfigShape(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(EncoderConfig()), zapcore.AddSync(&buf), zapcore.InfoLevel)
	zap.New(core).Info("use_case_done", zap.String("outcome", "success"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "use_case_done", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "success", entry["outcome"])
	assert.Contains(t, entry, "ts")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("svc", "test", "loud")
	assert.Error(t, err)
}

func TestNewLoggerCreatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	t.Setenv("LOG_FILE", path)

	logger, err := NewLogger("svc", "test", "debug")
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service":"svc"`)
}
