// internal/workers/dataset/generate-dataset/config.go
package generatedataset

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"rsd-dataset/internal/common/config"
)

type Config struct {
	Enabled        bool
	Timeout        time.Duration
	OutputDir      string
	Delimiter      rune
	DefaultRecords int
	DefaultSeed    int64
	// MaxRecords caps a single job so one process variable cannot exhaust
	// the worker's memory.
	MaxRecords int
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		Timeout:        60 * time.Second,
		OutputDir:      "output",
		Delimiter:      ',',
		DefaultRecords: config.DefaultRecords,
		DefaultSeed:    config.DefaultSeed,
		MaxRecords:     1_000_000,
	}
}

// LoadConfig derives the worker settings from the application config.
func LoadConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}

	wcfg := config.GetWorkerConfig(cfg, TaskType)
	c.Enabled = wcfg.Enabled
	if wcfg.Timeout > 0 {
		c.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if cfg.Output.Directory != "" {
		c.OutputDir = cfg.Output.Directory
	}
	c.Delimiter = cfg.Output.DelimiterRune()
	c.DefaultRecords = cfg.Generator.Records
	c.DefaultSeed = cfg.Generator.Seed
	return c
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.MaxRecords, validation.Required, validation.Min(1)),
		validation.Field(&c.DefaultRecords, validation.Min(0), validation.Max(c.MaxRecords)),
	)
}
