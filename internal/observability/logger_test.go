package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezpool/ezpool/internal/config"
)

func TestSetupLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	logger, err := SetupLogger(config.LogConfig{
		Level:   "debug",
		Format:  "json",
		Outputs: []string{path},
	})
	require.NoError(t, err)

	logger.Info("daemon started")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"daemon started"`)
}

func TestSetupLogger_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	logger, err := SetupLogger(config.LogConfig{
		Level:   "error",
		Format:  "json",
		Outputs: []string{path},
	})
	require.NoError(t, err)

	logger.Debug("noise")
	logger.Info("noise")
	logger.Error("real problem")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "noise")
	assert.Contains(t, string(data), "real problem")
}

func TestSetupLogger_DefaultsToStdout(t *testing.T) {
	logger, err := SetupLogger(config.LogConfig{Level: "bogus"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
