package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func initToFile(t *testing.T, level string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Init(level, "json", path))
	return path
}

func readLog(t *testing.T, path string) string {
	t.Helper()

	Sync()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestInitRejectsInvalidLevel(t *testing.T) {
	err := Init("loud", "json", "stdout")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInitRejectsUnwritablePath(t *testing.T) {
	err := Init("info", "json", filepath.Join(t.TempDir(), "missing", "app.log"))
	assert.Error(t, err)
}

func TestWrapperReportsCallSite(t *testing.T) {
	path := initToFile(t, "info")

	Info("pipeline trained", zap.Int("samples", 100))

	out := readLog(t, path)
	assert.Contains(t, out, `"message":"pipeline trained"`)
	assert.Contains(t, out, `"samples":100`)
	// The wrapper must not swallow the caller frame.
	assert.Contains(t, out, "logger_test.go")
	assert.NotContains(t, out, "logger/logger.go")
}

func TestWithScopesFields(t *testing.T) {
	path := initToFile(t, "info")

	scoped := With(zap.String("ticket_ref", "TICKET-ABC12345"))
	scoped.Warn("store failed")
	scoped.Info("store retried")

	out := readLog(t, path)
	assert.Contains(t, out, `"message":"store failed"`)
	assert.Contains(t, out, `"message":"store retried"`)
	assert.Equal(t, 2, strings.Count(out, `"ticket_ref":"TICKET-ABC12345"`))
}

func TestLevelFiltersDebug(t *testing.T) {
	path := initToFile(t, "warn")

	Debug("noisy detail")
	Warn("cache lookup failed")

	out := readLog(t, path)
	assert.NotContains(t, out, "noisy detail")
	assert.Contains(t, out, "cache lookup failed")
}
