package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "debug", want: LevelDebug},
		{input: "info", want: LevelInfo},
		{input: "warn", want: LevelWarn},
		{input: "warning", want: LevelWarn},
		{input: "error", want: LevelError},
		{input: "ERROR", want: LevelError},
		{input: "trace", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "error", LevelError.String())
}

func TestGetBeforeInit(t *testing.T) {
	// Loggers must be usable before Init; they just discard output.
	logger := Get("preinit")
	require.NotNil(t, logger)
	logger.Info("goes nowhere")
	logger.With("key", "value").Debug("also nowhere")
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	require.NoError(t, Init(Config{Level: "info", Path: path}))
	t.Cleanup(func() { _ = Close() })

	Get("test").Info("hello from the test", "key", "value")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
	assert.Contains(t, string(data), "test")
}

func TestInitLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	require.NoError(t, Init(Config{Level: "warn", Path: path}))
	t.Cleanup(func() { _ = Close() })

	logger := Get("filter")
	logger.Debug("too quiet")
	logger.Info("still too quiet")
	logger.Warn("loud enough")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "too quiet")
	assert.Contains(t, string(data), "loud enough")
}

func TestInitInvalidLevel(t *testing.T) {
	err := Init(Config{Level: "loudest"})
	require.Error(t, err)
}

func TestInitCreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.log")

	require.NoError(t, Init(Config{Level: "info", Path: path}))
	require.NoError(t, Close())

	_, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	assert.True(t, strings.HasSuffix(path, filepath.Join("intact", "intact.log")), path)
}
