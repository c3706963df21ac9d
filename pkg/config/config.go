package config

// Package config provides a reusable loader for geo3hgc's run configuration:
// HGC compressor parameters, the on-invalid mode, and simulator knobs. It is
// versioned so that applications can depend on a stable API contract.
//
// Version: v0.1.0

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"geo3hgc/core"
	"geo3hgc/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified run configuration for one geo3hgc invocation. It
// mirrors the structure of the YAML files under cmd/config.
type Config struct {
	HGC struct {
		BaseRes            int     `mapstructure:"base_res" json:"base_res"`
		MinRes             int     `mapstructure:"min_res" json:"min_res"`
		MaxLeavesPerBatch  int     `mapstructure:"max_leaves_per_batch" json:"max_leaves_per_batch"`
		MaxSamplesPerBatch int     `mapstructure:"max_samples_per_batch" json:"max_samples_per_batch"`
		HysteresisNear     float64 `mapstructure:"hysteresis_near" json:"hysteresis_near"`
		HysteresisFar      float64 `mapstructure:"hysteresis_far" json:"hysteresis_far"`
		Volume             int64   `mapstructure:"volume" json:"volume"`
	} `mapstructure:"hgc" json:"hgc"`

	OnInvalid string `mapstructure:"on_invalid" json:"on_invalid"`

	Simulator struct {
		NSamples int   `mapstructure:"n_samples" json:"n_samples"`
		NumNodes int   `mapstructure:"num_nodes" json:"num_nodes"`
		RNGSeed  int64 `mapstructure:"rng_seed" json:"rng_seed"`
	} `mapstructure:"simulator" json:"simulator"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

func setDefaults() {
	viper.SetDefault("hgc.base_res", 8)
	viper.SetDefault("hgc.min_res", 0)
	viper.SetDefault("hgc.volume", 0)
	viper.SetDefault("hgc.hysteresis_near", 0.9)
	viper.SetDefault("hgc.hysteresis_far", 1.1)
	viper.SetDefault("on_invalid", "throw")
	viper.SetDefault("simulator.n_samples", 1000)
	viper.SetDefault("simulator.num_nodes", 50)
	viper.SetDefault("simulator.rng_seed", 1)
	viper.SetDefault("logging.level", "info")
}

func bindEnv() {
	_ = viper.BindEnv("hgc.base_res", "HGC_BASE_RES")
	_ = viper.BindEnv("hgc.min_res", "HGC_MIN_RES")
	_ = viper.BindEnv("hgc.max_leaves_per_batch", "HGC_MAX_LEAVES_PER_BATCH")
	_ = viper.BindEnv("hgc.max_samples_per_batch", "HGC_MAX_SAMPLES_PER_BATCH")
	_ = viper.BindEnv("hgc.hysteresis_near", "HGC_HYSTERESIS_NEAR")
	_ = viper.BindEnv("hgc.hysteresis_far", "HGC_HYSTERESIS_FAR")
	_ = viper.BindEnv("hgc.volume", "HGC_VOLUME")
	_ = viper.BindEnv("simulator.n_samples", "N_SAMPLES")
	_ = viper.BindEnv("simulator.num_nodes", "NUM_NODES")
	_ = viper.BindEnv("simulator.rng_seed", "RNG_SEED")
}

// Load reads configuration files and merges any environment specific
// overrides, then applies HGC_*/N_SAMPLES/NUM_NODES/RNG_SEED environment
// bindings. The resulting configuration is stored in AppConfig and returned.
//
// If env is empty, only the default configuration is loaded. A missing
// default config file is not an error: tier defaults and env vars still
// apply.
func Load(env string) (*Config, error) {
	setDefaults()

	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // cmd/config.LoadConfig loads .env via godotenv before calling Load
	bindEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the GEO3HGC_ENV environment
// variable to pick the override file.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("GEO3HGC_ENV", ""))
}

// ToHGCParams applies the tier-by-volume defaults for whichever budgets the
// config left unset, then overlays the values the config explicitly
// carries.
func (c *Config) ToHGCParams() core.HGCParams {
	p := core.DefaultParamsForVolume(c.HGC.Volume)
	p.BaseRes = c.HGC.BaseRes
	p.MinRes = c.HGC.MinRes
	p.HysteresisNear = c.HGC.HysteresisNear
	p.HysteresisFar = c.HGC.HysteresisFar
	if c.HGC.MaxLeavesPerBatch > 0 {
		p.MaxLeavesPerBatch = c.HGC.MaxLeavesPerBatch
	}
	if c.HGC.MaxSamplesPerBatch > 0 {
		p.MaxSamplesPerBatch = c.HGC.MaxSamplesPerBatch
	}
	return p
}
