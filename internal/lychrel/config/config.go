// Package config parses hunt configuration from environment variables,
// applying defaults and validation before RecordHunter ever sees it.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/riftlab/lychrel-hunter/internal/lychrel/generator"
	"github.com/riftlab/lychrel-hunter/internal/lychrel/hunterrors"
)

// HuntConfig holds every tunable named in the external-interfaces contract.
type HuntConfig struct {
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log LoggingConfig `koanf:"log" validate:"required"`

	MinDigits            int    `koanf:"min_digits" validate:"required,gte=1"`
	MaxDigits            int    `koanf:"max_digits" validate:"gte=0"`
	TargetIterations     uint32 `koanf:"target_iterations" validate:"required,gte=1"`
	MaxIterations        uint32 `koanf:"max_iterations" validate:"required,gtefield=TargetIterations"`
	TargetFinalDigits    int    `koanf:"target_final_digits" validate:"required,gte=1"`
	CacheSize            int    `koanf:"cache_size" validate:"gte=0"`
	WorkerCacheSize      int    `koanf:"worker_cache_size" validate:"gte=0"`
	GeneratorMode        string `koanf:"generator_mode" validate:"required,oneof=sequential smart_random pattern_based"`
	CheckpointInterval   uint64 `koanf:"checkpoint_interval" validate:"required,gte=1"`
	CheckpointFile       string `koanf:"checkpoint_file" validate:"required"`
	DurableCacheFile     string `koanf:"durable_cache_file"`
	Warmup               bool   `koanf:"warmup"`
	BatchSize            int    `koanf:"batch_size" validate:"required,gte=1"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

// GeneratorModeValue resolves the validated GeneratorMode string to its
// generator.Mode value.
func (c *HuntConfig) GeneratorModeValue() generator.Mode {
	return generator.Mode(c.GeneratorMode)
}

// defaultHuntConfig mirrors the env var defaults listed in the external
// interfaces contract.
var defaultHuntConfig = HuntConfig{
	Env: "prod",
	Log: LoggingConfig{
		Level: "info",
	},
	MinDigits:          1,
	MaxDigits:          0,
	TargetIterations:   300,
	MaxIterations:      1000,
	TargetFinalDigits:  142,
	CacheSize:          2_000_000,
	WorkerCacheSize:    10_000,
	GeneratorMode:      string(generator.Sequential),
	CheckpointInterval: 1_000_000,
	CheckpointFile:     "hunt_checkpoint.json",
	DurableCacheFile:   "",
	Warmup:             false,
	BatchSize:          500_000,
}

// envLoader loads environment variables prefixed "LYCHREL_", translating
// SCREAMING_SNAKE keys to lowercase koanf keys (LYCHREL_MIN_DIGITS ->
// min_digits; the LOG_ group nests, LYCHREL_LOG_LEVEL -> log.level) and
// splitting space/comma-delimited values into slices.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "LYCHREL_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "LYCHREL_"))
			if strings.HasPrefix(key, "log_") {
				key = "log." + strings.TrimPrefix(key, "log_")
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return key, value
			}
			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}
			return key, value
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(defaultHuntConfig, "koanf"), nil)
}

// Load parses environment variables into a HuntConfig, applying defaults
// and validation. Validation failures are wrapped in hunterrors.ErrConfig.
func Load() (*HuntConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("load default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	var cfg HuntConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", hunterrors.ErrConfig, err)
	}
	if err := crossFieldChecks(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// crossFieldChecks covers validation rules the struct tags can't express
// directly: width ordering and the warmup/cache-size interaction.
func crossFieldChecks(cfg *HuntConfig) error {
	if cfg.MaxDigits != 0 && cfg.MaxDigits < cfg.MinDigits {
		return fmt.Errorf("%w: max_digits (%d) must be 0 or >= min_digits (%d)", hunterrors.ErrConfig, cfg.MaxDigits, cfg.MinDigits)
	}
	if cfg.Warmup && cfg.CacheSize == 0 {
		return fmt.Errorf("%w: warmup requires cache_size > 0", hunterrors.ErrConfig)
	}
	return nil
}
