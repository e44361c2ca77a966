package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetAllHuntEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LYCHREL_ENV", "LYCHREL_LOG_LEVEL", "LYCHREL_MIN_DIGITS", "LYCHREL_MAX_DIGITS",
		"LYCHREL_TARGET_ITERATIONS", "LYCHREL_MAX_ITERATIONS", "LYCHREL_TARGET_FINAL_DIGITS",
		"LYCHREL_CACHE_SIZE", "LYCHREL_WORKER_CACHE_SIZE", "LYCHREL_GENERATOR_MODE",
		"LYCHREL_CHECKPOINT_INTERVAL", "LYCHREL_CHECKPOINT_FILE", "LYCHREL_DURABLE_CACHE_FILE",
		"LYCHREL_WARMUP", "LYCHREL_BATCH_SIZE",
	} {
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetAllHuntEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1, cfg.MinDigits)
	assert.EqualValues(t, 300, cfg.TargetIterations)
	assert.EqualValues(t, 1000, cfg.MaxIterations)
	assert.Equal(t, 142, cfg.TargetFinalDigits)
	assert.Equal(t, "sequential", cfg.GeneratorMode)
	assert.Equal(t, "hunt_checkpoint.json", cfg.CheckpointFile)
}

func TestLoad_ValidOverrides(t *testing.T) {
	unsetAllHuntEnv(t)
	t.Setenv("LYCHREL_ENV", "dev")
	t.Setenv("LYCHREL_MIN_DIGITS", "5")
	t.Setenv("LYCHREL_MAX_DIGITS", "10")
	t.Setenv("LYCHREL_TARGET_ITERATIONS", "400")
	t.Setenv("LYCHREL_MAX_ITERATIONS", "900")
	t.Setenv("LYCHREL_GENERATOR_MODE", "smart_random")
	t.Setenv("LYCHREL_CHECKPOINT_FILE", "/tmp/checkpoint.json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 5, cfg.MinDigits)
	assert.Equal(t, 10, cfg.MaxDigits)
	assert.EqualValues(t, 400, cfg.TargetIterations)
	assert.EqualValues(t, 900, cfg.MaxIterations)
	assert.Equal(t, "smart_random", cfg.GeneratorMode)
	assert.Equal(t, "/tmp/checkpoint.json", cfg.CheckpointFile)
}

func TestLoad_RejectsInvalidEnv(t *testing.T) {
	unsetAllHuntEnv(t)
	t.Setenv("LYCHREL_ENV", "staging")

	_, err := Load()
	assert.Error(t, err, "expected validation error for invalid env")
}

func TestLoad_RejectsMaxIterationsBelowTarget(t *testing.T) {
	unsetAllHuntEnv(t)
	t.Setenv("LYCHREL_TARGET_ITERATIONS", "500")
	t.Setenv("LYCHREL_MAX_ITERATIONS", "400")

	_, err := Load()
	assert.Error(t, err, "expected validation error when max_iterations < target_iterations")
}

func TestLoad_RejectsMaxDigitsBelowMinDigits(t *testing.T) {
	unsetAllHuntEnv(t)
	t.Setenv("LYCHREL_MIN_DIGITS", "10")
	t.Setenv("LYCHREL_MAX_DIGITS", "5")

	_, err := Load()
	assert.Error(t, err, "expected validation error when max_digits < min_digits")
}

func TestLoad_RejectsWarmupWithZeroCacheSize(t *testing.T) {
	unsetAllHuntEnv(t)
	t.Setenv("LYCHREL_WARMUP", "true")
	t.Setenv("LYCHREL_CACHE_SIZE", "0")

	_, err := Load()
	assert.Error(t, err, "expected validation error for warmup with cache_size=0")
}

func TestLoad_RejectsInvalidGeneratorMode(t *testing.T) {
	unsetAllHuntEnv(t)
	t.Setenv("LYCHREL_GENERATOR_MODE", "quantum_random")

	_, err := Load()
	assert.Error(t, err, "expected validation error for unknown generator mode")
}
