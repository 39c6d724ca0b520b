package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/unitpool/pkg/errors"
)

// EnvPrefix is the prefix of environment overrides, e.g. UNITPOOL_POOL_UNIT_SIZE.
const EnvPrefix = "UNITPOOL"

// LoadConfig reads a Config from path (YAML, JSON or TOML by extension) and
// applies UNITPOOL_* environment overrides on top of the file and defaults.
// An empty path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, NewConfig())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file").
				WithDetail("path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode config").
			WithDetail("path", path)
	}
	cfg.Pool.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("pool.name", d.Pool.Name)
	v.SetDefault("pool.unit_size", d.Pool.UnitSize)
	v.SetDefault("pool.batch_count", d.Pool.BatchCount)
	v.SetDefault("pool.free_size_threshold", d.Pool.FreeSizeThreshold)
	v.SetDefault("pool.max_units", d.Pool.MaxUnits)
	v.SetDefault("pool.strategy", string(d.Pool.Strategy))
	v.SetDefault("pool.ledger_mode", string(d.Pool.LedgerMode))
	v.SetDefault("pool.allocator", string(d.Pool.Allocator))
	v.SetDefault("pool.idle_window", d.Pool.IdleWindow)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.output_paths", d.Logging.OutputPaths)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// LoadPoolConfig is LoadConfig narrowed to the pool section.
func LoadPoolConfig(path string) (PoolConfig, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return PoolConfig{}, err
	}
	return cfg.Pool, nil
}
