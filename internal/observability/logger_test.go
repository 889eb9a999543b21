// internal/observability/logger_test.go
package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/stepwise/internal/config"
)

func TestInitialize_Console(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	cfg := config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "stepwise",
		Colors:      config.ColorConfig{Info: "green", Warn: "nonexistent"},
	}
	Initialize(cfg, zapcore.AddSync(&buf))

	logger := GetLogger()
	logger.Info("runner started")
	logger.Warn("plain warning")

	out := buf.String()
	assert.Contains(t, out, "\x1b[32mINFO\x1b[0m")
	assert.Contains(t, out, "stepwise.")
	assert.Contains(t, out, "runner started")
	assert.Contains(t, out, "\tWARN\t", "unknown color names fall back to a plain level")
}

func TestInitialize_JSONAndLevel(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "svc"}, zapcore.AddSync(&buf))

	logger := GetLogger()
	logger.Info("dropped")
	logger.Warn("kept", zap.String("step", "click"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "svc", entry["logger"])
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "click", entry["step"])
}

func TestInitialize_OnlyOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var first, second bytes.Buffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(&first))
	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(&second))

	GetLogger().Info("hello")
	assert.NotEmpty(t, first.String())
	assert.Empty(t, second.String())
}

func TestInitialize_LogFile(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	path := filepath.Join(t.TempDir(), "stepwise.log")
	var console bytes.Buffer
	Initialize(config.LoggerConfig{Level: "info", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&console))

	GetLogger().Info("to both")
	Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "file output is always JSON")
	assert.Equal(t, "to both", entry["msg"])
	assert.Contains(t, console.String(), "to both")
}

func TestGetLogger_Fallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, Sync)
}
