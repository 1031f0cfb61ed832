package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pyprune/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".pyprune.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, config.Default(), *cfg)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	content := `logging:
  level: debug
  format: json
prune:
  extensions: [".py", ".pyi"]
  atomic_write: false
  max_file_size: "512KiB"
  star_imports: report
  dry_run: true
`

	cfg, err := config.LoadConfig(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, config.LevelDebug, cfg.Logging.Level)
	assert.Equal(t, config.FormatJSON, cfg.Logging.Format)
	assert.Equal(t, []string{".py", ".pyi"}, cfg.Prune.Extensions)
	assert.False(t, cfg.Prune.AtomicWrite)
	assert.True(t, cfg.Prune.DryRun)
	assert.Equal(t, "report", cfg.Prune.StarImports)
	assert.Equal(t, config.DefaultFutureImports, cfg.Prune.FutureImports)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(512*1024), size)
}

func TestLoadConfig_InvalidValue_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "logging:\n  level: loud\n"))
	require.ErrorIs(t, err, config.ErrInvalidLogLevel)
}

func TestLoadConfig_MalformedYAML_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "prune: [unclosed\n"))
	require.Error(t, err)
}

func TestLoadConfig_ExplicitMissingFile_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "prune:\n  dry_run: false\n")

	t.Setenv("PYPRUNE_PRUNE_DRY_RUN", "true")
	t.Setenv("PYPRUNE_LOGGING_LEVEL", "warn")
	t.Setenv("PYPRUNE_PRUNE_MAX_FILE_SIZE", "0")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Prune.DryRun)
	assert.Equal(t, config.LevelWarn, cfg.Logging.Level)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Zero(t, size)
}
