package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	cfg := Default()
	cfg.URL = "http://laser.local:5000"
	cfg.Jog.Steps = 50
	cfg.Cycle.MaxCycles = 10
	require.NoError(t, cfg.SaveTo(path))
	assert.True(t, ExistsAt(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"jog":{"steps":5}}`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Jog.Steps)
	assert.Equal(t, 300*time.Millisecond, cfg.Jog.HoldDelay())
	assert.Equal(t, Default().URL, cfg.URL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LASERPANEL_URL", "http://10.0.0.5:5000")
	t.Setenv("LASERPANEL_JOG_STEPS", "35")
	t.Setenv("LASERPANEL_CYCLE_DWELL_MS", "2500")
	t.Setenv("LASERPANEL_LOG_LEVEL", "debug")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:5000", cfg.URL)
	assert.Equal(t, 35, cfg.Jog.Steps)
	assert.Equal(t, 2500*time.Millisecond, cfg.Cycle.Dwell())
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched values survive.
	assert.Equal(t, 200*time.Millisecond, cfg.Cycle.PollInterval())
}

func TestInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"jog":`), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Jog.Steps = 0
	cfg.Cycle.LegTimeoutMS = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jog.steps")
	assert.Contains(t, err.Error(), "cycle.leg_timeout_ms")
}

func TestZeroDwellDisables(t *testing.T) {
	c := CycleConfig{}
	assert.Less(t, c.Dwell(), time.Duration(0))
}
