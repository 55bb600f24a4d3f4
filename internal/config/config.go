// Package config loads the YAML run configuration.
package config

import (
	"os"

	"github.com/born-ml/nas/internal/nas"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the run configuration. Field names follow the YAML keys.
type Config struct {
	SubName        string  `yaml:"sub_name"`
	InputSize      int     `yaml:"input_size"`
	InitChannels   int     `yaml:"init_channels"`
	Layers         int     `yaml:"layers"`
	NumClasses     int     `yaml:"num_classes"`
	WeightsDecay   float32 `yaml:"weights_decay"`
	BatchSize      int     `yaml:"batch_size"`
	TestBatchSize  int     `yaml:"test_batch_size"`
	Seed           int64   `yaml:"seed"`
	Steps          int     `yaml:"steps"`
	Multiplier     int     `yaml:"multiplier"`
	StemMultiplier int     `yaml:"stem_multiplier"`
	CheckpointsDir string  `yaml:"checkpoints_dir"`
	DatasetDir     string  `yaml:"dataset_dir"`
}

// Default returns the CIFAR-10 search configuration.
func Default() Config {
	net := nas.DefaultNetworkConfig()
	return Config{
		SubName:        "pcdarts_cifar",
		InputSize:      net.InputSize,
		InitChannels:   net.InitChannels,
		Layers:         net.Layers,
		NumClasses:     net.NumClasses,
		WeightsDecay:   net.WeightDecay,
		BatchSize:      64,
		TestBatchSize:  64,
		Seed:           1,
		Steps:          net.Steps,
		Multiplier:     net.Multiplier,
		StemMultiplier: net.StemMultiplier,
		CheckpointsDir: "checkpoints",
	}
}

// Load reads a YAML file over Default, so omitted keys keep their defaults,
// and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	//nolint:gosec // G304: config path is user-provided by design
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks the run settings and the network shape.
func (c Config) Validate() error {
	if c.SubName == "" {
		return errors.Wrap(nas.ErrInvalidConfig, "sub_name must not be empty")
	}
	if c.BatchSize <= 0 || c.TestBatchSize <= 0 {
		return errors.Wrapf(nas.ErrInvalidConfig, "batch sizes must be positive, got %d and %d", c.BatchSize, c.TestBatchSize)
	}
	return c.Network().Validate()
}

// Network returns the search network configuration.
func (c Config) Network() nas.NetworkConfig {
	return nas.NetworkConfig{
		Name:           c.SubName,
		InputSize:      c.InputSize,
		InitChannels:   c.InitChannels,
		Layers:         c.Layers,
		NumClasses:     c.NumClasses,
		WeightDecay:    c.WeightsDecay,
		Steps:          c.Steps,
		Multiplier:     c.Multiplier,
		StemMultiplier: c.StemMultiplier,
	}
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o600), "write config")
}
