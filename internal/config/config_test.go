package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.MaxDepth)
	assert.Equal(t, []string{"."}, cfg.SearchPaths)
	assert.True(t, cfg.Color)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level())
	assert.Equal(t, ".lambda_history", filepath.Base(cfg.HistoryFile))
}

func TestLoadConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	content := `
max_depth: 200
search_paths:
  - lib
  - vendor/scripts
color: false
log_level: debug
`
	require.NoError(t, os.WriteFile("lambda.yaml", []byte(content), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.MaxDepth)
	assert.Equal(t, []string{"lib", "vendor/scripts"}, cfg.SearchPaths)
	assert.False(t, cfg.Color)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level())
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_depth: 7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxDepth)
}

func TestLoadExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("lambda.yaml", []byte("max_depth: 200\n"), 0o644))
	t.Setenv("LAMBDA_MAX_DEPTH", "64")
	t.Setenv("LAMBDA_LOG_LEVEL", "error")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxDepth)
	assert.Equal(t, zapcore.ErrorLevel, cfg.Level())
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero depth", "max_depth: 0\n", "max_depth must be at least 1"},
		{"negative depth", "max_depth: -5\n", "max_depth must be at least 1"},
		{"bad level", "log_level: loud\n", `log_level "loud" is not a valid level`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lambda.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
