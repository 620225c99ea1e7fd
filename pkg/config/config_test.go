package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileExpandsEnv(t *testing.T) {
	t.Setenv("TEST_NEWRON_TOKEN", "sekret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "tracking_uri: https://track.example.com\ntracking_token: ${TEST_NEWRON_TOKEN}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://track.example.com", cfg.TrackingURI)
	assert.Equal(t, "sekret", cfg.TrackingToken)
}

func TestLoadEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracking_uri: file-value\nlog_level: debug\n"), 0o600))

	t.Setenv("NEWRON_TRACKING_URI", "env-value")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-value", cfg.TrackingURI)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFileUsesEnvOnly(t *testing.T) {
	t.Setenv("NEWRON_EXPERIMENT_NAME", "churn-model")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "churn-model", cfg.ExperimentName)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := Config{TrackingURI: "sqlite://runs.db", Python: "/usr/bin/python3"}

	require.NoError(t, Save(path, in))

	out, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in.TrackingURI, out.TrackingURI)
	assert.Equal(t, in.Python, out.Python)
}
