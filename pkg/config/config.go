package config

import (
	"time"

	"github.com/ajitpratap0/unitpool/pkg/errors"
	"github.com/ajitpratap0/unitpool/pkg/logger"
)

// Strategy selects how a batch of units is backed by memory.
type Strategy string

const (
	// StrategyIndependent allocates every unit separately
	StrategyIndependent Strategy = "independent"
	// StrategySlab allocates one contiguous region per batch and slices it
	StrategySlab Strategy = "slab"
)

// LedgerMode selects the storage mode of the issuance ledger.
type LedgerMode string

const (
	// LedgerIntrusive links units into the ledger through fields embedded in the unit
	LedgerIntrusive LedgerMode = "intrusive"
	// LedgerSeparate allocates a separate tree node per issued unit
	LedgerSeparate LedgerMode = "separate"
)

// AllocatorKind selects where unit memory comes from.
type AllocatorKind string

const (
	// AllocatorHeap backs units with Go heap slices
	AllocatorHeap AllocatorKind = "heap"
	// AllocatorMmap backs units with anonymous memory mappings
	AllocatorMmap AllocatorKind = "mmap"
)

// DefaultIdleWindow is how long a pool must stay over-provisioned before it shrinks.
const DefaultIdleWindow = 300 * time.Second

// PoolConfig describes one fixed-size unit pool.
type PoolConfig struct {
	// Name labels the pool in logs and metrics
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	// UnitSize is the size of every unit in bytes; must be positive before the first fetch
	UnitSize int `yaml:"unit_size" json:"unit_size" mapstructure:"unit_size"`
	// BatchCount is the number of units allocated per growth step (coerced to >= 1)
	BatchCount int `yaml:"batch_count" json:"batch_count" mapstructure:"batch_count"`
	// FreeSizeThreshold destroys recycled units reporting at least this size (0 disables)
	FreeSizeThreshold int `yaml:"free_size_threshold" json:"free_size_threshold" mapstructure:"free_size_threshold"`
	// MaxUnits caps allocated units (0 = unlimited)
	MaxUnits int `yaml:"max_units" json:"max_units" mapstructure:"max_units"`
	// Strategy is independent or slab
	Strategy Strategy `yaml:"strategy" json:"strategy" mapstructure:"strategy"`
	// LedgerMode is intrusive or separate
	LedgerMode LedgerMode `yaml:"ledger_mode" json:"ledger_mode" mapstructure:"ledger_mode"`
	// Allocator is heap or mmap
	Allocator AllocatorKind `yaml:"allocator" json:"allocator" mapstructure:"allocator"`
	// IdleWindow is the hysteresis window before surplus units are released
	IdleWindow time.Duration `yaml:"idle_window" json:"idle_window" mapstructure:"idle_window"`
}

// MetricsConfig controls the Prometheus endpoint of the CLI.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" json:"addr" mapstructure:"addr"`
}

// Config is the file-level configuration read by the CLI.
type Config struct {
	Pool    PoolConfig    `yaml:"pool" json:"pool" mapstructure:"pool"`
	Logging logger.Config `yaml:"logging" json:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
}

// NewPoolConfig creates a PoolConfig with defaults. UnitSize is left as given;
// a zero size is accepted here and rejected by the first fetch.
func NewPoolConfig(name string, unitSize int) PoolConfig {
	return PoolConfig{
		Name:       name,
		UnitSize:   unitSize,
		BatchCount: 1,
		Strategy:   StrategyIndependent,
		LedgerMode: LedgerIntrusive,
		Allocator:  AllocatorHeap,
		IdleWindow: DefaultIdleWindow,
	}
}

// NewConfig creates a file-level Config with defaults.
func NewConfig() *Config {
	return &Config{
		Pool:    NewPoolConfig("default", 0),
		Logging: logger.DefaultConfig(),
		Metrics: MetricsConfig{Addr: ":9464"},
	}
}

// ApplyDefaults fills zero-valued optional fields.
func (pc *PoolConfig) ApplyDefaults() {
	if pc.BatchCount < 1 {
		pc.BatchCount = 1
	}
	if pc.Strategy == "" {
		pc.Strategy = StrategyIndependent
	}
	if pc.LedgerMode == "" {
		pc.LedgerMode = LedgerIntrusive
	}
	if pc.Allocator == "" {
		pc.Allocator = AllocatorHeap
	}
	if pc.IdleWindow <= 0 {
		pc.IdleWindow = DefaultIdleWindow
	}
}

// Validate checks ranges and enumerations.
func (pc *PoolConfig) Validate() error {
	if pc.UnitSize < 0 {
		return errors.New(errors.ErrorTypeValidation, "unit_size cannot be negative").
			WithDetail("unit_size", pc.UnitSize)
	}
	if pc.BatchCount < 0 {
		return errors.New(errors.ErrorTypeValidation, "batch_count cannot be negative").
			WithDetail("batch_count", pc.BatchCount)
	}
	if pc.FreeSizeThreshold < 0 {
		return errors.New(errors.ErrorTypeValidation, "free_size_threshold cannot be negative")
	}
	if pc.MaxUnits < 0 {
		return errors.New(errors.ErrorTypeValidation, "max_units cannot be negative")
	}
	if pc.IdleWindow < 0 {
		return errors.New(errors.ErrorTypeValidation, "idle_window cannot be negative")
	}
	switch pc.Strategy {
	case "", StrategyIndependent, StrategySlab:
	default:
		return errors.New(errors.ErrorTypeValidation, "unknown strategy").
			WithDetail("strategy", pc.Strategy)
	}
	switch pc.LedgerMode {
	case "", LedgerIntrusive, LedgerSeparate:
	default:
		return errors.New(errors.ErrorTypeValidation, "unknown ledger_mode").
			WithDetail("ledger_mode", pc.LedgerMode)
	}
	switch pc.Allocator {
	case "", AllocatorHeap, AllocatorMmap:
	default:
		return errors.New(errors.ErrorTypeValidation, "unknown allocator").
			WithDetail("allocator", pc.Allocator)
	}
	return nil
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New(errors.ErrorTypeValidation, "metrics.addr is required when metrics are enabled")
	}
	return nil
}
