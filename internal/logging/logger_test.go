package logging

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"military-logistics-api-server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestJSONHandlerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "json", slog.LevelWarn))

	logger.Info("dropped")
	logger.Warn("kept", "status", 404)

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Contains(t, buf.String(), `"status":404`)
}

func TestInitCreatesLogDirectory(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := filepath.Join(t.TempDir(), "nested", "logs")
	err := Init(config.LoggingConfig{
		Level:    "debug",
		Format:   "json",
		Filename: filepath.Join(dir, "api.log"),
		MaxSize:  1,
	})
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}
