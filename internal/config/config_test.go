package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 0.85, cfg.Matching.Threshold, 1e-9)
	assert.InDelta(t, 0.02, cfg.Matching.TieEpsilon, 1e-9)
	assert.InDelta(t, 1.0, cfg.Scoring.Weights.Sum(), 1e-9)
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := Default()
	cfg.Scoring.Weights.Expansion = 0.5 // table now sums to 1.25

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestValidateRejectsBadCurveParams(t *testing.T) {
	cfg := Default()
	cfg.Scoring.Tightness.ZeroScoreRate = cfg.Scoring.Tightness.FullScoreRate

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tightness")
}

func TestValidateRejectsTieEpsilonAboveThreshold(t *testing.T) {
	cfg := Default()
	cfg.Matching.TieEpsilon = 0.9

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tie_epsilon")
}

func TestValidateRequiresLogPathForFileOutput(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""

	assert.Error(t, cfg.Validate())

	cfg.Logging.Output = "console"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestOverlayFileKeepsUnsetDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
matching:
  threshold: 0.9
scoring:
  weights:
    expansion: 0.30
    distress: 0.20
    job_velocity: 0.20
    sentiment: 0.10
    market_tightness: 0.10
    macro: 0.10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg := Default()
	require.NoError(t, overlayFile(cfg, path))
	require.NoError(t, cfg.Validate())

	// Overridden keys win, untouched keys keep their defaults.
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.InDelta(t, 0.9, cfg.Matching.Threshold, 1e-9)
	assert.InDelta(t, 0.02, cfg.Matching.TieEpsilon, 1e-9)
	assert.InDelta(t, 0.30, cfg.Scoring.Weights.Expansion, 1e-9)
	assert.Zero(t, cfg.Scoring.Weights.Turnover)
}

func TestFeedPaths(t *testing.T) {
	paths := PathsConfig{DataDir: "/srv/data", OutputDir: "/srv/out", LogsDir: "/srv/logs"}
	assert.Equal(t, filepath.Join("/srv/data", "permits.csv"), paths.Feed(PermitsFile))
	assert.Equal(t, filepath.Join("/srv/data", "zip_areas.csv"), paths.Feed(ZipAreasFile))
}
