// Package config loads service configuration from an optional YAML file
// and MODELBENCH_* environment variables, with sensible defaults.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/modelbench/modelbench/pkg/errors"
)

// BenchConfig tunes the benchmark defaults.
type BenchConfig struct {
	TestFraction float64 `mapstructure:"test_fraction"`
	Seed         int64   `mapstructure:"seed"`
	CVFolds      int     `mapstructure:"cv_folds"`
}

// Config is the full service configuration.
type Config struct {
	Addr         string      `mapstructure:"addr"`
	DatabasePath string      `mapstructure:"database_path"`
	LogLevel     string      `mapstructure:"log_level"`
	Bench        BenchConfig `mapstructure:"bench"`
}

// Load reads configuration from the given file path, if any, then from
// the environment. A missing file is only an error when it was named
// explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("database_path", "modelbench.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("bench.test_fraction", 0.2)
	v.SetDefault("bench.seed", 42)
	v.SetDefault("bench.cv_folds", 5)

	v.SetEnvPrefix("MODELBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Bench.TestFraction <= 0 || c.Bench.TestFraction >= 1 {
		return errors.NewConfigurationError("bench.test_fraction", "must be strictly between 0 and 1", c.Bench.TestFraction)
	}
	if c.Bench.CVFolds < 2 {
		return errors.NewConfigurationError("bench.cv_folds", "must be at least 2", c.Bench.CVFolds)
	}
	return nil
}
