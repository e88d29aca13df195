// Package config loads the YAML configuration shared by the bptree commands.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/sushant-115/bptree/pkg/logger"
	"github.com/sushant-115/bptree/pkg/telemetry"
	"gopkg.in/yaml.v3"
)

const (
	DefaultNodeCapacity = 4
	DefaultInserts      = 1000
	DefaultKeyMax       = 10000
)

var (
	ErrInvalidCapacity    = errors.New("index.node_capacity must be at least 2")
	ErrInvalidDeleteRatio = errors.New("stress.delete_ratio must be within [0, 1]")
	ErrInvalidKeyMax      = errors.New("stress.key_max must be positive")
	ErrInvalidInserts     = errors.New("stress.inserts must not be negative")
	ErrInvalidRate        = errors.New("stress.rate_per_second must not be negative")
)

// IndexConfig configures the tree behind the index.
type IndexConfig struct {
	// NodeCapacity is the maximum number of keys a node holds.
	NodeCapacity int `yaml:"node_capacity"`
}

// StressConfig configures the random workload driver.
type StressConfig struct {
	Inserts     int     `yaml:"inserts"`
	KeyMax      int64   `yaml:"key_max"`
	DeleteRatio float64 `yaml:"delete_ratio"`
	// RatePerSecond throttles operations; 0 runs unthrottled.
	RatePerSecond float64 `yaml:"rate_per_second"`
	// Seed makes a run reproducible; 0 picks a random seed.
	Seed uint64 `yaml:"seed"`
}

// Config is the root of the YAML document.
type Config struct {
	Logger    logger.Config    `yaml:"logger"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Index     IndexConfig      `yaml:"index"`
	Stress    StressConfig     `yaml:"stress"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Logger: logger.Config{
			Level:      "info",
			Format:     "console",
			OutputFile: "stderr",
		},
		Telemetry: telemetry.Config{
			ServiceName:      "bptree",
			PrometheusPort:   9464,
			TraceSampleRatio: 1.0,
		},
		Index: IndexConfig{NodeCapacity: DefaultNodeCapacity},
		Stress: StressConfig{
			Inserts: DefaultInserts,
			KeyMax:  DefaultKeyMax,
		},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every out-of-range setting.
func (c Config) Validate() error {
	var errs []error
	if c.Index.NodeCapacity < 2 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidCapacity, c.Index.NodeCapacity))
	}
	if c.Stress.DeleteRatio < 0 || c.Stress.DeleteRatio > 1 {
		errs = append(errs, fmt.Errorf("%w: got %g", ErrInvalidDeleteRatio, c.Stress.DeleteRatio))
	}
	if c.Stress.KeyMax <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidKeyMax, c.Stress.KeyMax))
	}
	if c.Stress.Inserts < 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidInserts, c.Stress.Inserts))
	}
	if c.Stress.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("%w: got %g", ErrInvalidRate, c.Stress.RatePerSecond))
	}
	return errors.Join(errs...)
}
