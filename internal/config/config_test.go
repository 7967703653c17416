package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "portfolio", cfg.Mode)
	assert.Equal(t, 3, cfg.MaxCycles)
	assert.Equal(t, 4, cfg.WorkerPoolSize)
	assert.Equal(t, 100000.0, cfg.InitialCash)
	assert.Equal(t, 0.5, cfg.MarginRequirement)
	assert.Equal(t, 5, cfg.WeightCadence)
	assert.Equal(t, 30, cfg.RotationCadence)
	assert.True(t, cfg.CommEnabled)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRADE_MODE", "direction")
	t.Setenv("MAX_CYCLES", "7")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MAX_CHAT_ROUNDS", "not-a-number")

	cfg := DefaultConfig()

	assert.Equal(t, "direction", cfg.Mode)
	assert.Equal(t, 7, cfg.MaxCycles)
	assert.False(t, cfg.CacheEnabled)
	// Unparsable values keep the default.
	assert.Equal(t, 2, cfg.MaxChatRounds)
}

func TestLoadFileOverlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "mode: direction\nmax_cycles: 9\ninitial_cash: 250000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "direction", cfg.Mode)
	assert.Equal(t, 9, cfg.MaxCycles)
	assert.Equal(t, 250000.0, cfg.InitialCash)
	// Fields the file omits keep their defaults.
	assert.Equal(t, 0.5, cfg.MarginRequirement)
}

func TestLoadFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.LLMProvider = "deepseek"
		cfg.DeepSeekAPIKey = "key"
		return cfg
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.DeepSeekAPIKey = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.LLMProvider = "mystery"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Mode = "yolo"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.MaxCycles = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.WorkerPoolSize = -1
	assert.Error(t, cfg.Validate())
}
